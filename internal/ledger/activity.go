package ledger

import (
	"slices"

	"github.com/google/uuid"

	"finanzas/internal/core"
)

// record inserts a new entry at the head of the log and evicts past the
// cap. Must be called with the write lock held.
func (s *Store) record(kind core.ActivityKind, summary string, detail core.ActivityDetail) core.ActivityEntry {
	actor := s.activeProfile()
	entry := core.ActivityEntry{
		ID:          newEntryID(),
		At:          s.clock(),
		Kind:        kind,
		Summary:     summary,
		Detail:      detail,
		ProfileID:   actor.ID,
		ProfileName: actor.Name,
	}
	s.activity = slices.Insert(s.activity, 0, entry)
	if len(s.activity) > MaxActivityEntries {
		clear(s.activity[MaxActivityEntries:])
		s.activity = s.activity[:MaxActivityEntries]
	}
	return entry
}

// newEntryID returns a time-ordered UUIDv7.
func newEntryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
