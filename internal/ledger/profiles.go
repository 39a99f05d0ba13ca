package ledger

import (
	"fmt"
	"strings"

	"finanzas/internal/core"
	"finanzas/internal/format"
)

// AddIncome adds base+extra to the profile's accumulated income and
// clears the transient base/extra fields. Only the active profile can
// receive income; zero means the active profile.
func (s *Store) AddIncome(profileID, base, extra int64) (core.Profile, error) {
	if base < 0 || extra < 0 {
		return core.Profile{}, core.Invalid("income", core.ErrNegativeIncome)
	}
	if base == 0 && extra == 0 {
		return core.Profile{}, core.Invalid("income", core.ErrNoIncome)
	}
	if base > core.MaxAmount || extra > core.MaxAmount {
		return core.Profile{}, core.Invalid("income", core.ErrAmountTooLarge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.incomeProfile(profileID)
	if err != nil {
		return core.Profile{}, err
	}
	p := &s.profiles[i]
	total := base + extra
	if p.AccumulatedIncome > core.MaxAmount-total {
		return core.Profile{}, core.Invalid("income", core.ErrAmountTooLarge)
	}
	p.AccumulatedIncome += total
	p.BaseIncome = 0
	p.ExtraIncome = 0

	var breakdown string
	switch {
	case base > 0 && extra > 0:
		breakdown = incomeLabel(base, extra)
	case base > 0:
		breakdown = "Base: " + format.FormatCurrency(base)
	default:
		breakdown = "Extra: " + format.FormatCurrency(extra)
	}
	s.record(core.ActivityIncome, "Ingreso agregado: "+format.FormatCurrency(total), core.ActivityDetail{
		Amount:  total,
		Current: breakdown,
	})
	s.touch()
	return *p, nil
}

// SetRecurringIncome overwrites base and extra income. A modification is
// logged only when a value actually changed.
func (s *Store) SetRecurringIncome(profileID, base, extra int64) (core.Profile, error) {
	if base < 0 || extra < 0 {
		return core.Profile{}, core.Invalid("income", core.ErrNegativeIncome)
	}
	if base > core.MaxAmount || extra > core.MaxAmount {
		return core.Profile{}, core.Invalid("income", core.ErrAmountTooLarge)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.incomeProfile(profileID)
	if err != nil {
		return core.Profile{}, err
	}
	p := &s.profiles[i]
	if p.BaseIncome == base && p.ExtraIncome == extra {
		return *p, nil
	}

	previous := incomeLabel(p.BaseIncome, p.ExtraIncome)
	p.BaseIncome = base
	p.ExtraIncome = extra

	s.record(core.ActivityModification, "Ingresos actualizados", core.ActivityDetail{
		Previous: previous,
		Current:  incomeLabel(base, extra),
	})
	s.touch()
	return *p, nil
}

func (s *Store) incomeProfile(profileID int64) (int, error) {
	if profileID == 0 {
		profileID = s.activeID
	}
	i, ok := s.findProfile(profileID)
	if !ok {
		return -1, core.NotFound("profile", profileID)
	}
	if profileID != s.activeID {
		return -1, core.Invalid("profile", core.ErrInactiveProfile)
	}
	return i, nil
}

func incomeLabel(base, extra int64) string {
	return fmt.Sprintf("Base: %s, Extra: %s", format.FormatCurrency(base), format.FormatCurrency(extra))
}

// AddProfile creates a profile with id max(existing)+1.
func (s *Store) AddProfile(name string) (core.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Profile{}, core.Invalid("name", core.ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var maxID int64
	for _, p := range s.profiles {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	p := core.Profile{ID: maxID + 1, Name: name}
	s.profiles = append(s.profiles, p)
	s.touch()
	return p, nil
}

// RenameProfile changes the display name. Existing transactions keep the
// name they were recorded with.
func (s *Store) RenameProfile(id int64, name string) (core.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Profile{}, core.Invalid("name", core.ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findProfile(id)
	if !ok {
		return core.Profile{}, core.NotFound("profile", id)
	}
	if s.profiles[i].Name != name {
		s.profiles[i].Name = name
		s.touch()
	}
	return s.profiles[i], nil
}

// SetAvatar stores an avatar reference (URL or data URI). Empty clears it.
func (s *Store) SetAvatar(id int64, ref string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findProfile(id)
	if !ok {
		return core.Profile{}, core.NotFound("profile", id)
	}
	ref = strings.TrimSpace(ref)
	if s.profiles[i].Avatar != ref {
		s.profiles[i].Avatar = ref
		s.touch()
	}
	return s.profiles[i], nil
}

// SwitchProfile makes id the active profile.
func (s *Store) SwitchProfile(id int64) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.findProfile(id)
	if !ok {
		return core.Profile{}, core.NotFound("profile", id)
	}
	if s.activeID != id {
		s.activeID = id
		s.touch()
	}
	return s.profiles[i], nil
}

// AddCategory appends name unless an identical entry exists. added is
// false for duplicates.
func (s *Store) AddCategory(name string) (added bool, err error) {
	return s.addToSet(&s.categories, "category", name)
}

// AddNecessityLevel appends name unless an identical entry exists.
func (s *Store) AddNecessityLevel(name string) (added bool, err error) {
	return s.addToSet(&s.necessities, "necessity", name)
}

func (s *Store) addToSet(set *[]string, field, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, core.Invalid(field, core.ErrEmptyName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if contains(*set, name) {
		return false, nil
	}
	*set = append(*set, name)
	s.touch()
	return true, nil
}

// ResetAll clears transactions and zeroes every profile's income fields
// and avatar. Categories, necessities and the activity log are kept.
func (s *Store) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = []core.Transaction{}
	for i := range s.profiles {
		s.profiles[i].BaseIncome = 0
		s.profiles[i].ExtraIncome = 0
		s.profiles[i].AccumulatedIncome = 0
		s.profiles[i].Avatar = ""
	}
	s.touch()
}

// FactoryReset restores the first-run state, including an empty activity
// log. Transaction ids keep increasing across the reset.
func (s *Store) FactoryReset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	last := s.lastTxID
	s.restore(core.DefaultSnapshot())
	s.lastTxID = last
	s.touch()
}
