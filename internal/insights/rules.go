package insights

import (
	"fmt"
	"math"
	"slices"

	"finanzas/internal/aggregate"
	"finanzas/internal/core"
	"finanzas/internal/format"
)

func dominantCategory(w Window, th Thresholds) []Insight {
	top, ok := aggregate.ByCategory(w.Transactions).Largest()
	if !ok {
		return nil
	}
	pct := format.RoundPercent(format.Share(top.Amount, w.Total))

	in := Insight{
		Kind:       KindCategory,
		Icon:       "📊",
		Title:      "Categoría con más gasto",
		Message:    fmt.Sprintf("Gastaste %s en %s (%s del total)", format.FormatCurrency(top.Amount), top.Key, format.FormatPercent(pct)),
		Severity:   SeverityInfo,
		Suggestion: "Mantén este equilibrio en tus gastos",
	}
	if pct > th.DominantShare {
		in.Severity = SeverityWarning
		in.Suggestion = fmt.Sprintf("Intenta reducir un 10%% en %s para ahorrar %s", top.Key, format.FormatAmount(float64(top.Amount)*0.1))
	}
	return []Insight{in}
}

func weeklyTrend(w Window, th Thresholds) []Insight {
	cmp := aggregate.WeekOverWeek(w.Transactions, w.Today)
	if !cmp.HasSignal {
		return nil
	}
	switch {
	case cmp.Delta > 0:
		sev := SeverityInfo
		if cmp.Percent > th.WeeklyIncrease {
			sev = SeverityWarning
		}
		return []Insight{{
			Kind:       KindWeekly,
			Icon:       "📈",
			Title:      "Tendencia semanal",
			Message:    fmt.Sprintf("Gastaste %s más que la semana pasada (+%s)", format.FormatCurrency(cmp.Delta), format.FormatPercent(cmp.Percent)),
			Severity:   sev,
			Suggestion: "¿Quieres revisar en qué categoría gastaste más?",
		}}
	case cmp.Delta < 0:
		return []Insight{{
			Kind:       KindWeekly,
			Icon:       "📉",
			Title:      "Tendencia semanal",
			Message:    fmt.Sprintf("¡Ahorraste %s comparado con la semana pasada!", format.FormatCurrency(-cmp.Delta)),
			Severity:   SeveritySuccess,
			Suggestion: "¡Excelente trabajo! Sigue así.",
		}}
	}
	return nil
}

func lowPriority(w Window, th Thresholds) []Insight {
	var low int64
	for _, tx := range w.Transactions {
		if th.Classifier[tx.Necessity] == aggregate.PriorityLow || slices.Contains(th.LowPriorityCategories, tx.Category) {
			low = core.AddAmounts(low, tx.Amount)
		}
	}
	pct := format.RoundPercent(format.Share(low, w.Total))
	if pct <= th.LowPriorityShare {
		return nil
	}
	return []Insight{{
		Kind:       KindLowPrio,
		Icon:       "💡",
		Title:      "Oportunidad de ahorro",
		Message:    fmt.Sprintf("%s de tus gastos son de baja prioridad (%s)", format.FormatPercent(pct), format.FormatCurrency(low)),
		Severity:   SeverityWarning,
		Suggestion: fmt.Sprintf("Reduciendo un 20%% podrías ahorrar %s", format.FormatAmount(float64(low)*0.2)),
	}}
}

func monthlyComparison(w Window, th Thresholds) []Insight {
	cmp := aggregate.MonthOverMonth(w.Transactions, w.Today)
	if !cmp.HasSignal {
		return nil
	}
	if math.Abs(float64(cmp.Delta)) <= float64(cmp.Previous)*th.MonthlyChange/100 {
		return nil
	}
	if cmp.Delta > 0 {
		return []Insight{{
			Kind:       KindMonthly,
			Icon:       "⚠️",
			Title:      "Comparación mensual",
			Message:    fmt.Sprintf("Estás gastando %s más que el mes pasado", format.FormatCurrency(cmp.Delta)),
			Severity:   SeverityWarning,
			Suggestion: "¿Quieres ver qué categoría aumentó?",
		}}
	}
	return []Insight{{
		Kind:       KindMonthly,
		Icon:       "✅",
		Title:      "Comparación mensual",
		Message:    fmt.Sprintf("¡Ahorraste %s vs. mes pasado!", format.FormatCurrency(-cmp.Delta)),
		Severity:   SeveritySuccess,
		Suggestion: "¡Mantén este ritmo!",
	}}
}

// savingTip is one category-specific advisory.
type savingTip struct {
	applies func(w Window, th Thresholds) bool
	insight Insight
}

var savingTipList = []savingTip{
	{
		applies: func(w Window, th Thresholds) bool {
			return format.Share(categoryTotal(w.Transactions, th.FoodCategory), w.Total) > th.FoodShare
		},
		insight: Insight{
			Kind:       KindSavingTip,
			Icon:       "🍽️",
			Title:      "Consejo de ahorro",
			Message:    "Los gastos en alimentación son altos",
			Severity:   SeverityInfo,
			Suggestion: "Planifica tus comidas semanalmente para reducir compras impulsivas",
		},
	},
	{
		applies: func(w Window, th Thresholds) bool {
			return categoryTotal(w.Transactions, th.TransportCategory) > th.TransportLimit
		},
		insight: Insight{
			Kind:       KindSavingTip,
			Icon:       "🚌",
			Title:      "Consejo de ahorro",
			Message:    "Gastos de transporte elevados",
			Severity:   SeverityInfo,
			Suggestion: "Considera opciones de transporte compartido o transporte público",
		},
	},
}

func savingTips(w Window, th Thresholds) []Insight {
	var out []Insight
	for _, tip := range savingTipList {
		if tip.applies(w, th) {
			out = append(out, tip.insight)
		}
	}
	return out
}

func categoryTotal(txs []core.Transaction, category string) int64 {
	var total int64
	for _, tx := range txs {
		if tx.Category == category {
			total = core.AddAmounts(total, tx.Amount)
		}
	}
	return total
}
