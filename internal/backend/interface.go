package backend

import (
	"context"

	"finanzas/internal/amqp"
	"finanzas/internal/persistence"
	"finanzas/internal/sheets"
	"finanzas/internal/storage"
)

// LocalStore is the device cache: loaded second, written first.
type LocalStore interface {
	persistence.Source
	persistence.Sink
	persistence.Clearer
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result holds the wired stores. Remote and Publisher may be nil. SQLite
// is set only for the sqlite local backend.
type Result struct {
	Local     LocalStore
	Remote    sheets.SnapshotStore
	SQLite    *storage.SQLiteRepository
	Publisher *amqp.Client
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for backend creation
type Config struct {
	Local  LocalType
	Remote RemoteType

	SQLiteDBPath string

	GoogleSpreadsheetID string
	GoogleSnapshotSheet string

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

type LocalType string

const (
	LocalSQLite LocalType = "sqlite"
	LocalMemory LocalType = "memory"
)

func (t LocalType) String() string { return string(t) }

func (t LocalType) IsValid() bool {
	return t == LocalSQLite || t == LocalMemory
}

type RemoteType string

const (
	RemoteNone   RemoteType = "none"
	RemoteSheets RemoteType = "sheets"
	RemoteMemory RemoteType = "memory"
)

func (t RemoteType) String() string { return string(t) }

func (t RemoteType) IsValid() bool {
	switch t {
	case RemoteNone, RemoteSheets, RemoteMemory:
		return true
	default:
		return false
	}
}
