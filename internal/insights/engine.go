// Package insights evaluates spending heuristics over a transaction window.
//
// Each heuristic is a Rule registered on an Engine under a name. Rules run
// in registration order and may emit zero or more insights. The engine
// keeps no state between calls, so Analyze can be re-run at any time with
// the same result for the same input.
package insights

import (
	"finanzas/internal/aggregate"
	"finanzas/internal/core"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Kind string

const (
	KindCategory  Kind = "category-analysis"
	KindWeekly    Kind = "weekly-trend"
	KindLowPrio   Kind = "unnecessary-spending"
	KindMonthly   Kind = "monthly-comparison"
	KindSavingTip Kind = "saving-tip"
)

type Insight struct {
	Kind       Kind     `json:"kind"`
	Icon       string   `json:"icon"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Severity   Severity `json:"severity"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// Thresholds are the fixed limits the default rules compare against.
// Shares and changes are percentages.
type Thresholds struct {
	DominantShare    float64
	WeeklyIncrease   float64
	LowPriorityShare float64
	MonthlyChange    float64
	FoodShare        float64
	TransportLimit   int64

	LowPriorityCategories []string
	FoodCategory          string
	TransportCategory     string
	Classifier            aggregate.Classifier
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		DominantShare:         40,
		WeeklyIncrease:        20,
		LowPriorityShare:      30,
		MonthlyChange:         10,
		FoodShare:             35,
		TransportLimit:        50000,
		LowPriorityCategories: []string{core.CategoryEntertainment, core.CategoryOther},
		FoodCategory:          core.CategoryFood,
		TransportCategory:     core.CategoryTransport,
		Classifier:            aggregate.DefaultClassifier(),
	}
}

// Window is what every rule sees: the expense transactions, their total
// and the day the analysis runs for.
type Window struct {
	Transactions []core.Transaction
	Total        int64
	Today        core.Date
}

// Rule is the strategy interface for one heuristic.
type Rule interface {
	Evaluate(w Window, th Thresholds) []Insight
}

// RuleFunc adapts a plain function to Rule.
type RuleFunc func(w Window, th Thresholds) []Insight

func (f RuleFunc) Evaluate(w Window, th Thresholds) []Insight { return f(w, th) }

// Rule names of the default registry, in evaluation order.
const (
	RuleDominantCategory  = "dominant-category"
	RuleWeeklyTrend       = "weekly-trend"
	RuleLowPriority       = "low-priority"
	RuleMonthlyComparison = "monthly-comparison"
	RuleSavingTips        = "saving-tips"
)

type Engine struct {
	thresholds Thresholds
	order      []string
	rules      map[string]Rule
}

// NewEngine returns an engine with the five default rules registered.
func NewEngine(th Thresholds) *Engine {
	e := &Engine{thresholds: th, rules: map[string]Rule{}}
	e.Register(RuleDominantCategory, RuleFunc(dominantCategory))
	e.Register(RuleWeeklyTrend, RuleFunc(weeklyTrend))
	e.Register(RuleLowPriority, RuleFunc(lowPriority))
	e.Register(RuleMonthlyComparison, RuleFunc(monthlyComparison))
	e.Register(RuleSavingTips, RuleFunc(savingTips))
	return e
}

// Register adds a rule at the end of the order. Registering an existing
// name replaces the rule in place.
func (e *Engine) Register(name string, r Rule) {
	if _, ok := e.rules[name]; !ok {
		e.order = append(e.order, name)
	}
	e.rules[name] = r
}

// Rules lists the registered rule names in evaluation order.
func (e *Engine) Rules() []string {
	return append([]string(nil), e.order...)
}

func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// Analyze runs every rule over the expense transactions of txs. The
// input slice is not modified.
func (e *Engine) Analyze(txs []core.Transaction, today core.Date) []Insight {
	out := []Insight{}
	expenses := aggregate.Expenses(txs)
	if len(expenses) == 0 {
		return out
	}
	w := Window{
		Transactions: expenses,
		Total:        aggregate.Total(expenses),
		Today:        today,
	}
	for _, name := range e.order {
		out = append(out, e.rules[name].Evaluate(w, e.thresholds)...)
	}
	return out
}

// Analyze runs the default engine.
func Analyze(txs []core.Transaction, today core.Date) []Insight {
	return NewEngine(DefaultThresholds()).Analyze(txs, today)
}

// Critical keeps the insights worth a notification.
func Critical(in []Insight) []Insight {
	out := make([]Insight, 0, len(in))
	for _, i := range in {
		if i.Severity == SeverityWarning || i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}
