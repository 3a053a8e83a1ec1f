// Package database provides the SQLite connection used by hond.
//
// The database holds the command journal and its schema history. It is
// opened with a busy timeout, foreign keys on and optional WAL mode, and
// the pool is limited to one connection.
//
// Usage:
//
//	db, err := database.Open(ctx, cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if _, err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are additive: new columns must be nullable or carry a default.
package database
