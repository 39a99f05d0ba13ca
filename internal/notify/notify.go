// Package notify schedules the daily expense reminder and turns critical
// insights into alerts.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finanzas/internal/insights"
	"finanzas/internal/log"
)

const DefaultReminderTime = "20:00"

const (
	ReminderTitle = "💰 Recordatorio de Finanzas"
	ReminderBody  = "¡No olvides registrar tus gastos del día!"
	Tag           = "finanzas-notification"
)

var ErrInvalidClock = errors.New("invalid clock time, want HH:MM")

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }

// ParseClock parses "HH:MM" in 24-hour notation. Empty input yields the
// default reminder time.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultReminderTime
	}
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return Clock{}, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock{Hour: h, Minute: m}, nil
}

// NextReminder returns the next occurrence of at strictly after now, in
// now's location. If today's slot has passed it is tomorrow's.
func NextReminder(now time.Time, at string) (time.Time, error) {
	c, err := ParseClock(at)
	if err != nil {
		return time.Time{}, err
	}
	return c.Next(now), nil
}

func (c Clock) Next(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), c.Hour, c.Minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, c.Hour, c.Minute, 0, 0, now.Location())
	}
	return next
}

// Alert is one user-facing message.
type Alert struct {
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Severity insights.Severity `json:"severity,omitempty"`
}

// Notification is what a scheduler tick delivers.
type Notification struct {
	At       time.Time `json:"at"`
	Tag      string    `json:"tag"`
	Reminder Alert     `json:"reminder"`
	Alerts   []Alert   `json:"alerts"`
}

// Build assembles the reminder plus one alert per critical insight.
func Build(at time.Time, found []insights.Insight) Notification {
	n := Notification{
		At:       at,
		Tag:      Tag,
		Reminder: Alert{Title: ReminderTitle, Body: ReminderBody},
		Alerts:   []Alert{},
	}
	for _, in := range insights.Critical(found) {
		body := in.Message
		if in.Suggestion != "" {
			body += ". " + in.Suggestion
		}
		n.Alerts = append(n.Alerts, Alert{
			Title:    strings.TrimSpace(in.Icon + " " + in.Title),
			Body:     body,
			Severity: in.Severity,
		})
	}
	return n
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the structured log.
type LogNotifier struct {
	Logger *log.Logger
}

func (l LogNotifier) Notify(ctx context.Context, n Notification) error {
	logger := l.Logger
	if logger == nil {
		logger = log.FromContext(ctx)
	}
	logger = logger.WithComponent(log.ComponentNotify)
	logger.InfoContext(ctx, n.Reminder.Title, "body", n.Reminder.Body, "tag", n.Tag)
	for _, a := range n.Alerts {
		logger.WarnContext(ctx, a.Title, "body", a.Body, "severity", string(a.Severity))
	}
	return nil
}
