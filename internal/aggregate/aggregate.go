// Package aggregate turns transaction and activity collections into sums,
// groupings and trend figures. Every function is pure: inputs are never
// modified and the same input always gives the same output.
//
// Money is summed as int64 in the smallest currency unit. Percentages are
// float64 rounded to one decimal, and a zero denominator yields 0 or a
// Comparison without signal instead of Inf or NaN.
package aggregate

import (
	"sort"

	"finanzas/internal/core"
	"finanzas/internal/format"
)

// Bucket is one key of a grouping.
type Bucket struct {
	Key    string `json:"key"`
	Amount int64  `json:"amount"`
}

// Breakdown keeps buckets in first-seen order.
type Breakdown []Bucket

func (b Breakdown) Get(key string) int64 {
	for _, bucket := range b {
		if bucket.Key == key {
			return bucket.Amount
		}
	}
	return 0
}

func (b Breakdown) Total() int64 {
	var total int64
	for _, bucket := range b {
		total = core.AddAmounts(total, bucket.Amount)
	}
	return total
}

// Largest returns the bucket with the highest amount. Ties go to the
// bucket seen first.
func (b Breakdown) Largest() (Bucket, bool) {
	if len(b) == 0 {
		return Bucket{}, false
	}
	best := b[0]
	for _, bucket := range b[1:] {
		if bucket.Amount > best.Amount {
			best = bucket
		}
	}
	return best, true
}

type DailyPoint struct {
	Day    core.Date `json:"day"`
	Amount int64     `json:"amount"`
}

func Total(txs []core.Transaction) int64 {
	var total int64
	for _, tx := range txs {
		total = core.AddAmounts(total, tx.Amount)
	}
	return total
}

// TotalsForPeriod sums the transactions whose period bucket is period.
func TotalsForPeriod(txs []core.Transaction, period core.Period) int64 {
	return Total(InPeriod(txs, period))
}

// InPeriod keeps transactions bucketed into period.
func InPeriod(txs []core.Transaction, period core.Period) []core.Transaction {
	key := period.Key()
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Period == key {
			out = append(out, tx)
		}
	}
	return out
}

// Between keeps transactions dated in [from, to].
func Between(txs []core.Transaction, from, to core.Date) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Between(from, to) {
			out = append(out, tx)
		}
	}
	return out
}

// Expenses drops income-kind transactions.
func Expenses(txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.IsExpense() {
			out = append(out, tx)
		}
	}
	return out
}

func ByCategory(txs []core.Transaction) Breakdown {
	return groupBy(txs, func(tx core.Transaction) string { return tx.Category })
}

func ByNecessity(txs []core.Transaction) Breakdown {
	return groupBy(txs, func(tx core.Transaction) string { return tx.Necessity })
}

func ByProfile(txs []core.Transaction) Breakdown {
	return groupBy(txs, func(tx core.Transaction) string { return tx.Profile })
}

func groupBy(txs []core.Transaction, key func(core.Transaction) string) Breakdown {
	index := map[string]int{}
	out := Breakdown{}
	for _, tx := range txs {
		k := key(tx)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Bucket{Key: k})
		}
		out[i].Amount = core.AddAmounts(out[i].Amount, tx.Amount)
	}
	return out
}

// DailySeries sums amounts per calendar day, sorted by day.
func DailySeries(txs []core.Transaction) []DailyPoint {
	byDay := map[core.Date]int64{}
	for _, tx := range txs {
		byDay[tx.Date] = core.AddAmounts(byDay[tx.Date], tx.Amount)
	}
	out := make([]DailyPoint, 0, len(byDay))
	for day, amount := range byDay {
		out = append(out, DailyPoint{Day: day, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}

// Comparison is the change between a current and a prior window.
// HasSignal is false when the prior window had no transactions.
type Comparison struct {
	Current   int64   `json:"current"`
	Previous  int64   `json:"previous"`
	Delta     int64   `json:"delta"`
	Percent   float64 `json:"percent"`
	HasSignal bool    `json:"has_signal"`
}

// WeekOverWeek compares [today-6, today] with [today-13, today-7].
func WeekOverWeek(txs []core.Transaction, today core.Date) Comparison {
	current := Between(txs, today.AddDays(-6), today)
	previous := Between(txs, today.AddDays(-13), today.AddDays(-7))
	return compare(current, previous)
}

// MonthOverMonth compares today's calendar month with the one before,
// using each transaction's own date.
func MonthOverMonth(txs []core.Transaction, today core.Date) Comparison {
	period := core.PeriodOf(today)
	prev := period.Prev()
	return compare(
		Between(txs, period.First(), period.Last()),
		Between(txs, prev.First(), prev.Last()),
	)
}

func compare(current, previous []core.Transaction) Comparison {
	c := Comparison{
		Current:  Total(current),
		Previous: Total(previous),
	}
	c.Delta = c.Current - c.Previous
	if len(previous) == 0 || c.Previous == 0 {
		return c
	}
	c.HasSignal = true
	c.Percent = format.RoundPercent(format.Share(c.Delta, c.Previous))
	return c
}

// Projection extrapolates the month-end total from the daily average.
type Projection struct {
	Total        int64 `json:"total"`
	DailyAverage int64 `json:"daily_average"`
	Projected    int64 `json:"projected"`
}

// DailyAverageAndProjection returns total/daysElapsed and that average
// times daysInMonth, both rounded half up.
func DailyAverageAndProjection(txs []core.Transaction, daysElapsed, daysInMonth int) Projection {
	p := Projection{Total: Total(txs)}
	if daysElapsed <= 0 {
		return p
	}
	p.DailyAverage = divRound(p.Total, int64(daysElapsed))
	p.Projected = divRound(p.Total*int64(daysInMonth), int64(daysElapsed))
	return p
}

func divRound(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	if a < 0 {
		return -divRound(-a, b)
	}
	return (2*a + b) / (2 * b)
}
