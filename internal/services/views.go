package services

import (
	"context"
	"fmt"
	"io"

	"finanzas/internal/aggregate"
	"finanzas/internal/core"
	"finanzas/internal/export"
	"finanzas/internal/insights"
	"finanzas/internal/ledger"
)

// Transactions returns the ledger filtered by f, in storage order.
func (s *LedgerService) Transactions(f aggregate.TransactionFilter) []core.Transaction {
	return aggregate.Filter(s.current().Transactions(), f)
}

func (s *LedgerService) Suggestions() []string {
	return cached(s, "suggestions", func(st *ledger.Store) []string {
		return aggregate.DescriptionSuggestions(st.Transactions())
	})
}

// Dashboard summarizes today's month for a profile. A zero id means the
// active profile.
func (s *LedgerService) Dashboard(profileID int64) (aggregate.Dashboard, error) {
	st := s.current()
	profile := st.ActiveProfile()
	if profileID != 0 {
		p, err := st.Profile(profileID)
		if err != nil {
			return aggregate.Dashboard{}, err
		}
		profile = p
	}
	return cached(s, viewName("dashboard", profile.ID), func(st *ledger.Store) aggregate.Dashboard {
		return aggregate.Summarize(profile, st.Transactions(), st.Today())
	}), nil
}

func (s *LedgerService) InsightList() []insights.Insight {
	return cached(s, "insights", func(st *ledger.Store) []insights.Insight {
		return s.engine.Analyze(st.Transactions(), st.Today())
	})
}

// Insights lets the service act as the reminder scheduler's source.
func (s *LedgerService) Insights(context.Context) ([]insights.Insight, error) {
	return s.InsightList(), nil
}

// Activity returns the newest-first log, optionally restricted to kind.
func (s *LedgerService) Activity(kind core.ActivityKind) ([]core.ActivityEntry, error) {
	if kind != "" && !kind.IsValid() {
		return nil, core.Invalid("kind", fmt.Errorf("unknown activity kind %q", kind))
	}
	return aggregate.FilterActivity(s.current().Activity(), kind), nil
}

func (s *LedgerService) RecentActivity(n int) []core.ActivityEntry {
	return aggregate.RecentActivity(s.current().Activity(), n)
}

func (s *LedgerService) ActivityMonths() aggregate.MonthlyActivity {
	return cached(s, "activity-months", func(st *ledger.Store) aggregate.MonthlyActivity {
		return aggregate.ActivityByMonth(st.Activity(), st.Today(), st.Location())
	})
}

func (s *LedgerService) ActivitySummary() aggregate.ActivitySummary {
	return cached(s, "activity-summary", func(st *ledger.Store) aggregate.ActivitySummary {
		return aggregate.SummarizeActivity(st.Activity())
	})
}

func (s *LedgerService) ExportTransactionsCSV(w io.Writer, f aggregate.TransactionFilter, opts export.Options) error {
	return export.WriteTransactionsCSV(w, s.Transactions(f), opts)
}

func (s *LedgerService) ExportTransactionsXLSX(w io.Writer, f aggregate.TransactionFilter) error {
	return export.WriteTransactionsXLSX(w, s.Transactions(f))
}

func (s *LedgerService) ExportActivityCSV(w io.Writer, kind core.ActivityKind, opts export.Options) error {
	entries, err := s.Activity(kind)
	if err != nil {
		return err
	}
	return export.WriteActivityCSV(w, entries, s.Location(), opts)
}
