package aggregate

import "finanzas/internal/core"

type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityHigh
)

// Classifier maps necessity levels to a priority bucket. Levels missing
// from the map belong to neither bucket.
type Classifier map[string]Priority

// DefaultClassifier is the fixed convention: Alta and Crítica are
// necessary, Baja and Media are not.
func DefaultClassifier() Classifier {
	return Classifier{
		core.NecessityLow:      PriorityLow,
		core.NecessityMedium:   PriorityLow,
		core.NecessityHigh:     PriorityHigh,
		core.NecessityCritical: PriorityHigh,
	}
}

type Split struct {
	Necessary   int64 `json:"necessary"`
	Unnecessary int64 `json:"unnecessary"`
}

// NecessaryVsUnnecessary splits spend with the default classifier.
// Custom necessity levels are excluded.
func NecessaryVsUnnecessary(txs []core.Transaction) Split {
	return SplitByPriority(txs, DefaultClassifier())
}

func SplitByPriority(txs []core.Transaction, c Classifier) Split {
	var s Split
	for _, tx := range txs {
		switch c[tx.Necessity] {
		case PriorityHigh:
			s.Necessary = core.AddAmounts(s.Necessary, tx.Amount)
		case PriorityLow:
			s.Unnecessary = core.AddAmounts(s.Unnecessary, tx.Amount)
		}
	}
	return s
}
