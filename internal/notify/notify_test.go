package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finanzas/internal/insights"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{"", Clock{20, 0}, false},
		{"07:30", Clock{7, 30}, false},
		{"23:59", Clock{23, 59}, false},
		{"24:00", Clock{}, true},
		{"12:60", Clock{}, true},
		{"noon", Clock{}, true},
		{"-1:10", Clock{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidClock) {
					t.Fatalf("err = %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("ParseClock(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestNextReminder(t *testing.T) {
	loc := time.FixedZone("CLT", -3*3600)
	tests := []struct {
		name string
		now  time.Time
		at   string
		want time.Time
	}{
		{"later today", time.Date(2025, 3, 14, 10, 0, 0, 0, loc), "20:00", time.Date(2025, 3, 14, 20, 0, 0, 0, loc)},
		{"already passed", time.Date(2025, 3, 14, 21, 0, 0, 0, loc), "20:00", time.Date(2025, 3, 15, 20, 0, 0, 0, loc)},
		{"exactly now", time.Date(2025, 3, 14, 20, 0, 0, 0, loc), "20:00", time.Date(2025, 3, 15, 20, 0, 0, 0, loc)},
		{"month end", time.Date(2025, 3, 31, 22, 0, 0, 0, loc), "", time.Date(2025, 4, 1, 20, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextReminder(tt.now, tt.at)
			if err != nil || !got.Equal(tt.want) {
				t.Fatalf("NextReminder = %v, %v; want %v", got, err, tt.want)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	found := []insights.Insight{
		{Icon: "📊", Title: "Categoría con más gasto", Message: "info only", Severity: insights.SeverityInfo},
		{Icon: "💡", Title: "Oportunidad de ahorro", Message: "70.0% de tus gastos son de baja prioridad ($7.000)", Suggestion: "Reduciendo un 20% podrías ahorrar $1.400", Severity: insights.SeverityWarning},
	}
	n := Build(time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC), found)
	if n.Reminder.Title != ReminderTitle || n.Tag != Tag {
		t.Fatalf("reminder = %+v", n.Reminder)
	}
	if len(n.Alerts) != 1 {
		t.Fatalf("alerts = %+v", n.Alerts)
	}
	if n.Alerts[0].Title != "💡 Oportunidad de ahorro" || n.Alerts[0].Severity != insights.SeverityWarning {
		t.Fatalf("alert = %+v", n.Alerts[0])
	}

	if empty := Build(time.Now(), nil); empty.Alerts == nil || len(empty.Alerts) != 0 {
		t.Fatalf("alerts = %#v", empty.Alerts)
	}
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func TestSchedulerRun(t *testing.T) {
	rec := &recordingNotifier{}
	src := SourceFunc(func(context.Context) ([]insights.Insight, error) {
		return []insights.Insight{{Title: "x", Severity: insights.SeverityWarning}}, nil
	})
	s := NewScheduler(Clock{20, 0}, time.UTC, src, rec, nil)

	now := time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	fire := make(chan time.Time)
	var waits []time.Duration
	var mu sync.Mutex
	s.newTimer = func(d time.Duration) (<-chan time.Time, func() bool) {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return fire, func() bool { return true }
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	fire <- time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)
	fire <- time.Date(2025, 3, 15, 20, 0, 0, 0, time.UTC)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}

	if rec.count() != 2 {
		t.Fatalf("sent %d notifications", rec.count())
	}
	if len(rec.sent[0].Alerts) != 1 {
		t.Fatalf("alerts = %+v", rec.sent[0].Alerts)
	}
	mu.Lock()
	defer mu.Unlock()
	if waits[0] != time.Hour {
		t.Fatalf("first wait = %v", waits[0])
	}
}

func TestTickWithFailingSource(t *testing.T) {
	rec := &recordingNotifier{}
	src := SourceFunc(func(context.Context) ([]insights.Insight, error) { return nil, errors.New("boom") })
	s := NewScheduler(Clock{20, 0}, time.UTC, src, rec, nil)

	s.Tick(context.Background(), time.Now())
	if rec.count() != 1 || len(rec.sent[0].Alerts) != 0 {
		t.Fatalf("sent = %+v", rec.sent)
	}
}
