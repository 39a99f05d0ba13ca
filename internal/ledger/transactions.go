package ledger

import (
	"fmt"
	"slices"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/format"
)

// NewTransaction is the input of AddTransaction. A zero Date means today
// and a zero ProfileID means the active profile.
type NewTransaction struct {
	Date        core.Date
	ProfileID   int64
	Kind        core.TransactionKind
	Description string
	Amount      int64
	Category    string
	Necessity   string
	Items       string
	Notes       string
	Quick       bool
}

// QuickEntry is the abbreviated creation path: today, active profile,
// default necessity.
type QuickEntry struct {
	Description string
	Amount      int64
	Category    string
}

// TransactionPatch lists the mutable fields. Nil means unchanged. Quick
// only applies to transactions created as quick entries.
type TransactionPatch struct {
	Amount      *int64
	Description *string
	Category    *string
	Quick       *bool
}

// AddTransaction validates and appends a transaction, then logs it.
func (s *Store) AddTransaction(in NewTransaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTransaction(in)
}

// AddQuickTransaction records a quick entry dated today for the active
// profile with the default necessity level.
func (s *Store) AddQuickTransaction(q QuickEntry) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTransaction(NewTransaction{
		Description: q.Description,
		Amount:      q.Amount,
		Category:    q.Category,
		Necessity:   core.NecessityMedium,
		Quick:       true,
	})
}

func (s *Store) addTransaction(in NewTransaction) (core.Transaction, error) {
	now := s.clock()
	today := core.DateOf(now)

	kind := in.Kind
	if kind == "" {
		kind = core.TransactionExpense
	}
	date := in.Date
	if date.IsZero() {
		date = today
	}

	tx := core.Transaction{
		Date:        date,
		Kind:        kind,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		Category:    in.Category,
		Necessity:   in.Necessity,
		Items:       strings.TrimSpace(in.Items),
		Notes:       strings.TrimSpace(in.Notes),
		Period:      core.PeriodOf(today).Key(),
		Quick:       in.Quick,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if !contains(s.categories, tx.Category) {
		return core.Transaction{}, core.Invalid("category", fmt.Errorf("%w: %q", core.ErrUnknownCategory, tx.Category))
	}
	if !contains(s.necessities, tx.Necessity) {
		return core.Transaction{}, core.Invalid("necessity", fmt.Errorf("%w: %q", core.ErrUnknownNecessity, tx.Necessity))
	}
	if date.After(today) {
		return core.Transaction{}, core.Invalid("date", core.ErrFutureDate)
	}

	profileID := in.ProfileID
	if profileID == 0 {
		profileID = s.activeID
	}
	pi, ok := s.findProfile(profileID)
	if !ok {
		return core.Transaction{}, core.NotFound("profile", profileID)
	}
	tx.Profile = s.profiles[pi].Name

	id := now.UnixMilli()
	if id <= s.lastTxID {
		id = s.lastTxID + 1
	}
	s.lastTxID = id
	tx.ID = id

	s.transactions = append(s.transactions, tx)

	switch {
	case kind == core.TransactionIncome:
		s.record(core.ActivityIncome, "Ingreso registrado: "+tx.Description, core.ActivityDetail{
			Amount:   tx.Amount,
			Category: tx.Category,
		})
	case tx.Quick:
		s.record(core.ActivityExpense, "Gasto rápido agregado: "+tx.Description, core.ActivityDetail{
			Amount:   tx.Amount,
			Category: tx.Category,
		})
	default:
		s.record(core.ActivityExpense, "Gasto registrado: "+tx.Description, core.ActivityDetail{
			Amount:    tx.Amount,
			Category:  tx.Category,
			Necessity: tx.Necessity,
		})
	}
	s.touch()
	return tx, nil
}

type change struct {
	label, before, after string
}

// EditTransaction applies a patch. Edits that change nothing are not
// logged and do not bump the version.
func (s *Store) EditTransaction(id int64, patch TransactionPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findTransaction(id)
	if !ok {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	if patch.Amount != nil && *patch.Amount <= 0 {
		return core.Transaction{}, core.Invalid("amount", core.ErrInvalidAmount)
	}
	if patch.Amount != nil && *patch.Amount > core.MaxAmount {
		return core.Transaction{}, core.Invalid("amount", core.ErrAmountTooLarge)
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) == "" {
		return core.Transaction{}, core.Invalid("description", core.ErrEmptyDescription)
	}
	if patch.Category != nil && !contains(s.categories, *patch.Category) {
		return core.Transaction{}, core.Invalid("category", fmt.Errorf("%w: %q", core.ErrUnknownCategory, *patch.Category))
	}

	tx := s.transactions[i]
	wasQuick := tx.Quick
	var changes []change

	if patch.Amount != nil && *patch.Amount != tx.Amount {
		changes = append(changes, change{"Monto", format.FormatCurrency(tx.Amount), format.FormatCurrency(*patch.Amount)})
		tx.Amount = *patch.Amount
	}
	if patch.Description != nil {
		desc := strings.TrimSpace(*patch.Description)
		if desc != tx.Description {
			changes = append(changes, change{"Descripción", `"` + tx.Description + `"`, `"` + desc + `"`})
			tx.Description = desc
		}
	}
	if patch.Category != nil && *patch.Category != tx.Category {
		changes = append(changes, change{"Categoría", tx.Category, *patch.Category})
		tx.Category = *patch.Category
	}
	if wasQuick && patch.Quick != nil && *patch.Quick != tx.Quick {
		changes = append(changes, change{"Rápido", yesNo(tx.Quick), yesNo(*patch.Quick)})
		tx.Quick = *patch.Quick
	}
	if len(changes) == 0 {
		return tx, nil
	}

	s.transactions[i] = tx

	detail := core.ActivityDetail{Category: tx.Category}
	var summary string
	switch {
	case len(changes) == 1 && changes[0].label == "Monto":
		summary = "Monto modificado: " + tx.Description
		detail.Previous = changes[0].before
		detail.Current = changes[0].after
	case wasQuick:
		summary = "Gasto rápido modificado: " + tx.Description
		detail.Previous, detail.Current = describeChanges(changes)
	default:
		summary = "Gasto modificado: " + tx.Description
		detail.Previous, detail.Current = describeChanges(changes)
	}
	s.record(core.ActivityModification, summary, detail)
	s.touch()
	return tx, nil
}

// DeleteTransaction removes a transaction and logs its amount, category
// and necessity. The log entry outlives the transaction.
func (s *Store) DeleteTransaction(id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findTransaction(id)
	if !ok {
		return core.Transaction{}, core.NotFound("transaction", id)
	}
	tx := s.transactions[i]
	s.transactions = slices.Delete(s.transactions, i, i+1)

	s.record(core.ActivityDeletion, "Transacción eliminada: "+tx.Description, core.ActivityDetail{
		Amount:    tx.Amount,
		Category:  tx.Category,
		Necessity: tx.Necessity,
	})
	s.touch()
	return tx, nil
}

func describeChanges(changes []change) (before, after string) {
	b := make([]string, len(changes))
	a := make([]string, len(changes))
	for i, c := range changes {
		b[i] = c.label + ": " + c.before
		a[i] = c.label + ": " + c.after
	}
	return strings.Join(b, ", "), strings.Join(a, ", ")
}

func yesNo(v bool) string {
	if v {
		return "sí"
	}
	return "no"
}
