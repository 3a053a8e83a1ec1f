package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/s-dimaio/JavahOn-sub000/internal/command"
)

const (
	defaultLimit = 50
	maxLimit     = 500

	// timeLayout is fixed width so text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000Z"
)

// ErrMacRequired is returned when an entry or query lacks a MAC address.
var ErrMacRequired = errors.New("journal: mac address is required")

// Entry is one stored send attempt.
type Entry struct {
	ID string `json:"id"`
	command.Record
}

// MarshalJSON flattens the record into the entry.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID            string            `json:"id"`
		MacAddress    string            `json:"mac_address"`
		Command       string            `json:"command"`
		Label         string            `json:"label,omitempty"`
		TransactionID string            `json:"transaction_id,omitempty"`
		Parameters    map[string]string `json:"parameters"`
		Ancillary     map[string]string `json:"ancillary_parameters"`
		Success       bool              `json:"success"`
		Error         string            `json:"error,omitempty"`
		SentAt        time.Time         `json:"sent_at"`
	}{
		e.ID, e.MacAddress, e.Command, e.Label, e.TransactionID,
		e.Parameters, e.Ancillary, e.Success, e.Error, e.SentAt,
	})
}

// Journal stores send attempts in the command_journal table.
//
// Thread Safety: safe for concurrent use; serialisation is left to database/sql.
type Journal struct {
	db    *sql.DB
	newID func() string
}

// New creates a journal on an open, migrated database.
func New(db *sql.DB) *Journal {
	return &Journal{db: db, newID: uuid.NewString}
}

// RecordSend stores one attempt. A zero SentAt is replaced with the current time.
func (j *Journal) RecordSend(ctx context.Context, rec command.Record) error {
	if rec.MacAddress == "" {
		return ErrMacRequired
	}
	if rec.SentAt.IsZero() {
		rec.SentAt = time.Now()
	}

	params, err := encodeValues(rec.Parameters)
	if err != nil {
		return fmt.Errorf("marshalling parameters: %w", err)
	}
	ancillary, err := encodeValues(rec.Ancillary)
	if err != nil {
		return fmt.Errorf("marshalling ancillary parameters: %w", err)
	}

	_, err = j.db.ExecContext(ctx,
		`INSERT INTO command_journal
		 (id, mac_address, command, label, transaction_id, parameters, ancillary, success, error, sent_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.newID(),
		rec.MacAddress,
		rec.Command,
		rec.Label,
		rec.TransactionID,
		params,
		ancillary,
		rec.Success,
		rec.Error,
		rec.SentAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}
	return nil
}

// List returns the most recent entries for an appliance, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - mac: Appliance MAC address
//   - limit: Maximum entries (default 50, capped at 500)
func (j *Journal) List(ctx context.Context, mac string, limit int) ([]Entry, error) {
	if mac == "" {
		return nil, ErrMacRequired
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	limit = min(limit, maxLimit)

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, mac_address, command, label, transaction_id, parameters, ancillary, success, error, sent_at
		 FROM command_journal
		 WHERE mac_address = ?
		 ORDER BY sent_at DESC, rowid DESC
		 LIMIT ?`,
		mac, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var (
			e                 Entry
			params, ancillary string
			sentAt            string
		)
		if err := rows.Scan(&e.ID, &e.MacAddress, &e.Command, &e.Label, &e.TransactionID,
			&params, &ancillary, &e.Success, &e.Error, &sentAt); err != nil {
			return nil, fmt.Errorf("scanning journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &e.Parameters); err != nil {
			return nil, fmt.Errorf("unmarshalling parameters: %w", err)
		}
		if err := json.Unmarshal([]byte(ancillary), &e.Ancillary); err != nil {
			return nil, fmt.Errorf("unmarshalling ancillary parameters: %w", err)
		}
		if e.SentAt, err = time.Parse(timeLayout, sentAt); err != nil {
			return nil, fmt.Errorf("parsing sent_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the given age and returns how many were removed.
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("journal: olderThan must be positive")
	}
	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	res, err := j.db.ExecContext(ctx, "DELETE FROM command_journal WHERE sent_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting journal entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

func encodeValues(values map[string]string) (string, error) {
	if values == nil {
		values = map[string]string{}
	}
	data, err := json.Marshal(values)
	return string(data), err
}

var _ command.Recorder = (*Journal)(nil)
