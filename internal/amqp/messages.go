package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotSyncMessage tells the worker that a new local snapshot exists.
// It carries no ledger data: the worker reads the snapshot from the local
// store, so a late message still pushes the newest state.
type SnapshotSyncMessage struct {
	Version   int64     `json:"version"`
	SavedAt   time.Time `json:"saved_at"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotSyncMessage(version int64, savedAt time.Time) *SnapshotSyncMessage {
	return &SnapshotSyncMessage{
		Version:   version,
		SavedAt:   savedAt,
		Timestamp: time.Now(),
	}
}

func (m *SnapshotSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotSyncMessageFromJSON(data []byte) (*SnapshotSyncMessage, error) {
	var msg SnapshotSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
