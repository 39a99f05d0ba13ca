package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

const (
	TransactionExpense TransactionKind = "expense"
	TransactionIncome  TransactionKind = "income"
)

const (
	ActivityIncome       ActivityKind = "income"
	ActivityExpense      ActivityKind = "expense"
	ActivityModification ActivityKind = "modification"
	ActivityDeletion     ActivityKind = "deletion"
)

type (
	TransactionKind string

	ActivityKind string

	// Profile is a household member. Income fields are in the smallest
	// currency unit.
	Profile struct {
		ID                int64  `json:"id"`
		Name              string `json:"name"`
		Avatar            string `json:"avatar,omitempty"`
		BaseIncome        int64  `json:"base_income"`
		ExtraIncome       int64  `json:"extra_income"`
		AccumulatedIncome int64  `json:"accumulated_income"`
	}

	// Transaction is a single expense or income event. Profile holds the
	// owner's name at the time of entry and is not updated on rename.
	// Period is the month bucket of the creation date, not of Date.
	Transaction struct {
		ID          int64           `json:"id"`
		Date        Date            `json:"date"`
		Profile     string          `json:"profile"`
		Kind        TransactionKind `json:"kind"`
		Description string          `json:"description"`
		Amount      int64           `json:"amount"`
		Category    string          `json:"category"`
		Necessity   string          `json:"necessity"`
		Items       string          `json:"items,omitempty"`
		Notes       string          `json:"notes,omitempty"`
		Period      string          `json:"period"`
		Quick       bool            `json:"quick,omitempty"`
	}

	ActivityDetail struct {
		Amount    int64  `json:"amount,omitempty"`
		Category  string `json:"category,omitempty"`
		Necessity string `json:"necessity,omitempty"`
		Previous  string `json:"previous,omitempty"`
		Current   string `json:"current,omitempty"`
	}

	// ActivityEntry is an immutable record of a mutating action.
	ActivityEntry struct {
		ID          string         `json:"id"`
		At          time.Time      `json:"at"`
		Kind        ActivityKind   `json:"kind"`
		Summary     string         `json:"summary"`
		Detail      ActivityDetail `json:"detail"`
		ProfileID   int64          `json:"profile_id"`
		ProfileName string         `json:"profile_name"`
	}

	// Snapshot is the full ledger state exchanged with persistence.
	Snapshot struct {
		Profiles        []Profile       `json:"profiles"`
		ActiveProfileID int64           `json:"active_profile_id"`
		Categories      []string        `json:"categories"`
		Necessities     []string        `json:"necessities"`
		Transactions    []Transaction   `json:"transactions"`
		Activity        []ActivityEntry `json:"activity"`
		SavedAt         time.Time       `json:"saved_at,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownNecessity = errors.New("unknown necessity level")
	ErrFutureDate       = errors.New("date cannot be in the future")
	ErrEmptyName        = errors.New("empty name")
	ErrNoIncome         = errors.New("at least one income amount is required")
	ErrNegativeIncome   = errors.New("income cannot be negative")
	ErrInactiveProfile  = errors.New("income can only change on the active profile")
	ErrInvalidKind      = errors.New("invalid transaction kind")
	ErrAmountTooLarge   = errors.New("amount exceeds the maximum of 1.000.000.000.000.000")
)

// MaxAmount bounds every single amount and income total so sums stay far
// from int64 overflow and render exactly.
const MaxAmount int64 = 1_000_000_000_000_000

// AddAmounts returns a+b clamped to the int64 range.
func AddAmounts(a, b int64) int64 {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && sum >= 0:
		return math.MinInt64
	}
	return sum
}

func (k TransactionKind) IsValid() bool {
	return k == TransactionExpense || k == TransactionIncome
}

func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityIncome, ActivityExpense, ActivityModification, ActivityDeletion:
		return true
	}
	return false
}

// TotalIncome is base + extra + accumulated.
func (p Profile) TotalIncome() int64 {
	return p.BaseIncome + p.ExtraIncome + p.AccumulatedIncome
}

// Validate checks the fields that do not depend on ledger state.
// Category and necessity membership are checked by the store.
func (t Transaction) Validate() error {
	if t.Amount <= 0 {
		return Invalid("amount", ErrInvalidAmount)
	}
	if t.Amount > MaxAmount {
		return Invalid("amount", ErrAmountTooLarge)
	}
	if strings.TrimSpace(t.Description) == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if t.Kind != "" && !t.Kind.IsValid() {
		return Invalid("kind", ErrInvalidKind)
	}
	if t.Date.IsZero() {
		return Invalid("date", errors.New("date cannot be zero"))
	}
	return nil
}

// IsExpense treats an empty kind as expense, which is what older
// snapshots carry.
func (t Transaction) IsExpense() bool {
	return t.Kind == "" || t.Kind == TransactionExpense
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		ActiveProfileID: s.ActiveProfileID,
		SavedAt:         s.SavedAt,
		Profiles:        append([]Profile(nil), s.Profiles...),
		Categories:      append([]string(nil), s.Categories...),
		Necessities:     append([]string(nil), s.Necessities...),
		Transactions:    append([]Transaction(nil), s.Transactions...),
		Activity:        append([]ActivityEntry(nil), s.Activity...),
	}
	return out
}
