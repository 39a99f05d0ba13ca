package aggregate

import (
	"math"
	"testing"
	"time"

	"finanzas/internal/core"
)

var today = core.NewDate(2025, 3, 14)

func tx(date core.Date, amount int64, category, necessity string) core.Transaction {
	return core.Transaction{
		Date:        date,
		Amount:      amount,
		Category:    category,
		Necessity:   necessity,
		Profile:     "Ana",
		Description: category,
		Period:      core.PeriodOf(date).Key(),
	}
}

func TestTotalsForPeriodIsExact(t *testing.T) {
	march := core.Period{Year: 2025, Month: time.March}
	var txs []core.Transaction
	var want int64
	for i := int64(1); i <= 200; i++ {
		amount := i*997 + 3
		txs = append(txs, tx(today, amount, core.CategoryFood, core.NecessityHigh))
		want += amount
	}
	txs = append(txs, tx(core.NewDate(2025, 2, 10), 123456, core.CategoryFood, core.NecessityHigh))

	if got := TotalsForPeriod(txs, march); got != want {
		t.Fatalf("TotalsForPeriod = %d, want %d", got, want)
	}
	if got := TotalsForPeriod(nil, march); got != 0 {
		t.Fatalf("empty total = %d", got)
	}
}

func TestTotalSaturates(t *testing.T) {
	// Snapshots loaded from storage are not re-validated, so sums must not wrap.
	txs := []core.Transaction{
		tx(today, math.MaxInt64, core.CategoryFood, core.NecessityHigh),
		tx(today, math.MaxInt64, core.CategoryFood, core.NecessityHigh),
	}
	if got := Total(txs); got != math.MaxInt64 {
		t.Fatalf("Total = %d, want %d", got, int64(math.MaxInt64))
	}
	if got := TotalsForPeriod(txs, core.PeriodOf(today)); got != math.MaxInt64 {
		t.Fatalf("TotalsForPeriod = %d", got)
	}
}

func TestScenarioSingleFoodTransaction(t *testing.T) {
	txs := []core.Transaction{tx(today, 15000, "Alimentación", core.NecessityHigh)}

	cats := ByCategory(txs)
	if len(cats) != 1 || cats.Get("Alimentación") != 15000 {
		t.Fatalf("ByCategory = %+v", cats)
	}
	split := NecessaryVsUnnecessary(txs)
	if split != (Split{Necessary: 15000, Unnecessary: 0}) {
		t.Fatalf("split = %+v", split)
	}
}

func TestGroupingsKeepFirstSeenOrder(t *testing.T) {
	txs := []core.Transaction{
		tx(today, 100, "Salud", core.NecessityCritical),
		tx(today, 200, "Comida", core.NecessityLow),
		tx(today, 300, "Salud", core.NecessityLow),
		tx(today, 50, "Aseo", core.NecessityMedium),
	}
	got := ByCategory(txs)
	want := Breakdown{{"Salud", 400}, {"Comida", 200}, {"Aseo", 50}}
	if len(got) != len(want) {
		t.Fatalf("ByCategory = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ByCategory[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}

	nec := ByNecessity(txs)
	if nec[0].Key != core.NecessityCritical || nec.Get(core.NecessityLow) != 500 {
		t.Fatalf("ByNecessity = %+v", nec)
	}
	if prof := ByProfile(txs); len(prof) != 1 || prof.Get("Ana") != 650 {
		t.Fatalf("ByProfile = %+v", prof)
	}
	if top, ok := got.Largest(); !ok || top.Key != "Salud" {
		t.Fatalf("Largest = %+v", top)
	}
}

func TestDailySeriesIsSorted(t *testing.T) {
	txs := []core.Transaction{
		tx(core.NewDate(2025, 3, 10), 100, "a", ""),
		tx(core.NewDate(2025, 3, 2), 50, "a", ""),
		tx(core.NewDate(2025, 3, 10), 25, "a", ""),
		tx(core.NewDate(2025, 2, 28), 10, "a", ""),
	}
	got := DailySeries(txs)
	if len(got) != 3 {
		t.Fatalf("len = %d", len(got))
	}
	wantDays := []string{"2025-02-28", "2025-03-02", "2025-03-10"}
	wantAmounts := []int64{10, 50, 125}
	for i := range got {
		if got[i].Day.String() != wantDays[i] || got[i].Amount != wantAmounts[i] {
			t.Errorf("point %d = %s/%d", i, got[i].Day, got[i].Amount)
		}
	}
}

func TestSplitExcludesCustomLevels(t *testing.T) {
	txs := []core.Transaction{
		tx(today, 100, "a", core.NecessityLow),
		tx(today, 200, "a", core.NecessityMedium),
		tx(today, 400, "a", core.NecessityCritical),
		tx(today, 800, "a", "Capricho"),
	}
	if got := NecessaryVsUnnecessary(txs); got != (Split{Necessary: 400, Unnecessary: 300}) {
		t.Fatalf("split = %+v", got)
	}

	c := DefaultClassifier()
	c["Capricho"] = PriorityLow
	if got := SplitByPriority(txs, c); got.Unnecessary != 1100 {
		t.Fatalf("custom classifier split = %+v", got)
	}
}

func TestWeekOverWeek(t *testing.T) {
	t.Run("increase", func(t *testing.T) {
		txs := []core.Transaction{
			tx(today.AddDays(-10), 50000, "a", ""),
			tx(today.AddDays(-2), 40000, "a", ""),
			tx(today, 25000, "a", ""),
		}
		got := WeekOverWeek(txs, today)
		want := Comparison{Current: 65000, Previous: 50000, Delta: 15000, Percent: 30.0, HasSignal: true}
		if got != want {
			t.Fatalf("WeekOverWeek = %+v, want %+v", got, want)
		}
	})

	t.Run("window edges", func(t *testing.T) {
		txs := []core.Transaction{
			tx(today.AddDays(-6), 10, "a", ""),
			tx(today.AddDays(-7), 20, "a", ""),
			tx(today.AddDays(-13), 40, "a", ""),
			tx(today.AddDays(-14), 80, "a", ""),
		}
		got := WeekOverWeek(txs, today)
		if got.Current != 10 || got.Previous != 60 {
			t.Fatalf("WeekOverWeek = %+v", got)
		}
	})

	t.Run("no prior week", func(t *testing.T) {
		got := WeekOverWeek([]core.Transaction{tx(today, 1000, "a", "")}, today)
		if got.HasSignal || got.Percent != 0 {
			t.Fatalf("expected no signal, got %+v", got)
		}
	})
}

func TestMonthOverMonth(t *testing.T) {
	txs := []core.Transaction{
		tx(core.NewDate(2025, 2, 3), 100000, "a", ""),
		tx(core.NewDate(2025, 3, 1), 60000, "a", ""),
		tx(core.NewDate(2025, 3, 12), 20000, "a", ""),
		tx(core.NewDate(2025, 1, 20), 999, "a", ""),
	}
	got := MonthOverMonth(txs, today)
	want := Comparison{Current: 80000, Previous: 100000, Delta: -20000, Percent: -20.0, HasSignal: true}
	if got != want {
		t.Fatalf("MonthOverMonth = %+v, want %+v", got, want)
	}

	if got := MonthOverMonth(txs[1:3], today); got.HasSignal {
		t.Fatalf("expected no signal, got %+v", got)
	}
}

func TestDailyAverageAndProjection(t *testing.T) {
	txs := []core.Transaction{tx(today, 70000, "a", ""), tx(today, 14000, "a", "")}
	got := DailyAverageAndProjection(txs, 14, 31)
	if got.Total != 84000 || got.DailyAverage != 6000 || got.Projected != 186000 {
		t.Fatalf("projection = %+v", got)
	}
	if got := DailyAverageAndProjection(txs, 0, 31); got.DailyAverage != 0 || got.Projected != 0 {
		t.Fatalf("zero days projection = %+v", got)
	}
	// 100/3 = 33.33 -> 33, 100*31/3 = 1033.33 -> 1033
	if got := DailyAverageAndProjection([]core.Transaction{tx(today, 100, "a", "")}, 3, 31); got.DailyAverage != 33 || got.Projected != 1033 {
		t.Fatalf("rounded projection = %+v", got)
	}
}

func TestFilter(t *testing.T) {
	a := tx(core.NewDate(2025, 3, 1), 1000, "Salud", "")
	b := tx(core.NewDate(2025, 3, 5), 5000, "Comida", "")
	c := tx(core.NewDate(2025, 3, 9), 9000, "Comida", "")
	c.Profile = "Pareja"
	txs := []core.Transaction{a, b, c}

	cases := []struct {
		name string
		f    TransactionFilter
		want int
	}{
		{"no filter", TransactionFilter{}, 3},
		{"from", TransactionFilter{From: core.NewDate(2025, 3, 5)}, 2},
		{"to", TransactionFilter{To: core.NewDate(2025, 3, 5)}, 2},
		{"amount range", TransactionFilter{MinAmount: 2000, MaxAmount: 8000}, 1},
		{"category", TransactionFilter{Category: "Comida"}, 2},
		{"profile", TransactionFilter{Profile: "Pareja"}, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Filter(txs, tc.f); len(got) != tc.want {
				t.Fatalf("got %d transactions, want %d", len(got), tc.want)
			}
		})
	}
}

func TestDescriptionSuggestions(t *testing.T) {
	txs := []core.Transaction{{Description: "Pan"}, {Description: "Bus"}, {Description: "Pan"}}
	got := DescriptionSuggestions(txs)
	if len(got) != 2 || got[0] != "Pan" || got[1] != "Bus" {
		t.Fatalf("suggestions = %v", got)
	}
}

func TestSummarize(t *testing.T) {
	profile := core.Profile{ID: 1, Name: "Ana", BaseIncome: 500000, ExtraIncome: 100000, AccumulatedIncome: 400000}
	income := tx(today, 777, "Sueldo", "")
	income.Kind = core.TransactionIncome
	txs := []core.Transaction{
		tx(core.NewDate(2025, 3, 2), 200000, "Comida", core.NecessityHigh),
		tx(core.NewDate(2025, 3, 10), 50000, "Cine", core.NecessityLow),
		tx(core.NewDate(2025, 2, 10), 30000, "Comida", core.NecessityHigh),
		income,
	}

	d := Summarize(profile, txs, today)
	if d.Period != "3-2025" || d.MonthLabel != "marzo" {
		t.Fatalf("period = %s %s", d.Period, d.MonthLabel)
	}
	if d.Income != 1000000 || d.Expenses != 250000 || d.Balance != 750000 {
		t.Fatalf("totals = %+v", d)
	}
	if d.BudgetUsedPercent != 25.0 || d.Count != 2 || d.Largest != 200000 || d.Smallest != 50000 {
		t.Fatalf("stats = %+v", d)
	}
	if d.DaysElapsed != 14 || d.DaysInMonth != 31 || d.Projected != 553571 {
		t.Fatalf("projection = %d/%d/%d", d.DaysElapsed, d.DaysInMonth, d.Projected)
	}
	if d.Split.Necessary != 200000 || d.Split.Unnecessary != 50000 {
		t.Fatalf("split = %+v", d.Split)
	}

	empty := Summarize(core.Profile{}, nil, today)
	if empty.BudgetUsedPercent != 0 || empty.Largest != 0 || empty.Projected != 0 {
		t.Fatalf("empty dashboard = %+v", empty)
	}
}

func TestActivityViews(t *testing.T) {
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 12, 0, 0, 0, time.UTC) }
	entries := []core.ActivityEntry{
		{Kind: core.ActivityExpense, At: at(2025, 3, 10), Detail: core.ActivityDetail{Amount: 3000}},
		{Kind: core.ActivityIncome, At: at(2025, 3, 5), Detail: core.ActivityDetail{Amount: 10000}},
		{Kind: core.ActivityDeletion, At: at(2025, 2, 20), Detail: core.ActivityDetail{Amount: 999}},
		{Kind: core.ActivityExpense, At: at(2025, 2, 2), Detail: core.ActivityDetail{Amount: 1000}},
		{Kind: core.ActivityExpense, At: at(2025, 1, 2), Detail: core.ActivityDetail{Amount: 5}},
	}

	months := ActivityByMonth(entries, today, time.UTC)
	if len(months.Current) != 2 || len(months.Previous) != 2 {
		t.Fatalf("months = %d/%d", len(months.Current), len(months.Previous))
	}

	sum := SummarizeActivity(entries)
	if sum.Income != 10000 || sum.Expenses != 4005 || sum.Balance != 5995 {
		t.Fatalf("summary = %+v", sum)
	}

	if got := RecentActivity(entries, 2); len(got) != 2 || got[0].Detail.Amount != 3000 {
		t.Fatalf("recent = %+v", got)
	}
	if got := RecentActivity(entries, 0); len(got) != len(entries) {
		t.Fatalf("default recent = %d", len(got))
	}
	if got := FilterActivity(entries, core.ActivityExpense); len(got) != 3 {
		t.Fatalf("filtered = %d", len(got))
	}
}
