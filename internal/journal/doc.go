// Package journal keeps a SQLite record of every command transmission
// attempt, successful or not.
//
// Journal implements command.Recorder and is attached to appliances so
// each send is written with its parameters, transaction ID and outcome.
// Entries are read back newest first for the API and can be pruned by age.
package journal
