package aggregate

import (
	"time"

	"finanzas/internal/core"
	"finanzas/internal/format"
)

// TransactionFilter narrows the transaction list. Zero fields do not
// filter; MaxAmount 0 means no upper bound.
type TransactionFilter struct {
	From      core.Date
	To        core.Date
	MinAmount int64
	MaxAmount int64
	Category  string
	Profile   string
}

func Filter(txs []core.Transaction, f TransactionFilter) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if !f.From.IsZero() && tx.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && tx.Date.After(f.To) {
			continue
		}
		if tx.Amount < f.MinAmount {
			continue
		}
		if f.MaxAmount > 0 && tx.Amount > f.MaxAmount {
			continue
		}
		if f.Category != "" && tx.Category != f.Category {
			continue
		}
		if f.Profile != "" && tx.Profile != f.Profile {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// DescriptionSuggestions returns each distinct description once, in
// first-seen order.
func DescriptionSuggestions(txs []core.Transaction) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, tx := range txs {
		if _, ok := seen[tx.Description]; ok {
			continue
		}
		seen[tx.Description] = struct{}{}
		out = append(out, tx.Description)
	}
	return out
}

// Dashboard is the monthly overview for one profile.
type Dashboard struct {
	Period            string       `json:"period"`
	MonthLabel        string       `json:"month_label"`
	Profile           core.Profile `json:"profile"`
	Income            int64        `json:"income"`
	Expenses          int64        `json:"expenses"`
	Balance           int64        `json:"balance"`
	BudgetUsedPercent float64      `json:"budget_used_percent"`
	Count             int          `json:"count"`
	Largest           int64        `json:"largest"`
	Smallest          int64        `json:"smallest"`
	DaysElapsed       int          `json:"days_elapsed"`
	DaysInMonth       int          `json:"days_in_month"`
	DailyAverage      int64        `json:"daily_average"`
	Projected         int64        `json:"projected"`
	ByCategory        Breakdown    `json:"by_category"`
	ByNecessity       Breakdown    `json:"by_necessity"`
	ByProfile         Breakdown    `json:"by_profile"`
	Daily             []DailyPoint `json:"daily"`
	Split             Split        `json:"split"`
}

// Summarize builds the dashboard for today's period bucket. Income is the
// profile's total; expenses cover every profile's spend in the bucket.
func Summarize(profile core.Profile, txs []core.Transaction, today core.Date) Dashboard {
	period := core.PeriodOf(today)
	month := Expenses(InPeriod(txs, period))

	d := Dashboard{
		Period:      period.Key(),
		MonthLabel:  format.MonthName(period.Month),
		Profile:     profile,
		Income:      profile.TotalIncome(),
		Expenses:    Total(month),
		Count:       len(month),
		DaysElapsed: today.Day(),
		DaysInMonth: period.Days(),
		ByCategory:  ByCategory(month),
		ByNecessity: ByNecessity(month),
		ByProfile:   ByProfile(month),
		Daily:       DailySeries(month),
		Split:       NecessaryVsUnnecessary(month),
	}
	d.Balance = d.Income - d.Expenses
	d.BudgetUsedPercent = format.RoundPercent(format.Share(d.Expenses, d.Income))

	for i, tx := range month {
		if i == 0 || tx.Amount > d.Largest {
			d.Largest = tx.Amount
		}
		if i == 0 || tx.Amount < d.Smallest {
			d.Smallest = tx.Amount
		}
	}

	proj := DailyAverageAndProjection(month, d.DaysElapsed, d.DaysInMonth)
	d.DailyAverage = proj.DailyAverage
	d.Projected = proj.Projected
	return d
}

// MonthlyActivity splits the log into today's month and the one before.
type MonthlyActivity struct {
	Current  []core.ActivityEntry `json:"current"`
	Previous []core.ActivityEntry `json:"previous"`
}

// ActivityByMonth groups entries by the calendar month of their
// timestamp in loc. Order is preserved.
func ActivityByMonth(entries []core.ActivityEntry, today core.Date, loc *time.Location) MonthlyActivity {
	if loc == nil {
		loc = time.Local
	}
	cur := core.PeriodOf(today)
	prev := cur.Prev()
	out := MonthlyActivity{
		Current:  []core.ActivityEntry{},
		Previous: []core.ActivityEntry{},
	}
	for _, e := range entries {
		day := core.DateOf(e.At.In(loc))
		switch {
		case cur.Contains(day):
			out.Current = append(out.Current, e)
		case prev.Contains(day):
			out.Previous = append(out.Previous, e)
		}
	}
	return out
}

type ActivitySummary struct {
	Income   int64 `json:"income"`
	Expenses int64 `json:"expenses"`
	Balance  int64 `json:"balance"`
}

// SummarizeActivity totals income and expense entries. Modifications and
// deletions do not count.
func SummarizeActivity(entries []core.ActivityEntry) ActivitySummary {
	var s ActivitySummary
	for _, e := range entries {
		switch e.Kind {
		case core.ActivityIncome:
			s.Income = core.AddAmounts(s.Income, e.Detail.Amount)
		case core.ActivityExpense:
			s.Expenses = core.AddAmounts(s.Expenses, e.Detail.Amount)
		}
	}
	s.Balance = s.Income - s.Expenses
	return s
}

// DefaultRecent is the size of the mini feed.
const DefaultRecent = 10

// RecentActivity returns the n newest entries of a newest-first log.
func RecentActivity(entries []core.ActivityEntry, n int) []core.ActivityEntry {
	if n <= 0 {
		n = DefaultRecent
	}
	if len(entries) < n {
		n = len(entries)
	}
	return append([]core.ActivityEntry(nil), entries[:n]...)
}

// FilterActivity keeps entries of kind. An empty kind keeps everything.
func FilterActivity(entries []core.ActivityEntry, kind core.ActivityKind) []core.ActivityEntry {
	out := make([]core.ActivityEntry, 0, len(entries))
	for _, e := range entries {
		if kind == "" || e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
