package rules

import (
	"github.com/leolech14/statement-refinery/internal/domain"
	"github.com/shopspring/decimal"
)

// AdjustmentThreshold is the widest absolute amount still treated as a
// rounding/interest micro-correction. Exactly 0.30 qualifies; 0.31 does not.
var AdjustmentThreshold = decimal.New(30, -2)

// Classifier maps a description and amount to a category. It wraps the rule
// engine with the one non-lexical rule: tiny non-zero amounts are always
// adjustments, because their descriptions are unreliable.
type Classifier struct {
	engine *Engine

	// MissHook, when set, is called with descriptions that fell through to
	// DIVERSOS, the signal that the rule table may need extension.
	MissHook func(description string)
}

// NewClassifier builds a classifier around a rule engine.
func NewClassifier(engine *Engine) *Classifier {
	return &Classifier{engine: engine}
}

// Classify returns the category for a transaction. The decision order is
// fixed: amount band, then the rule engine's priority-ordered decision list,
// then the DIVERSOS fallback. Ties are impossible since the first matching
// rule wins.
func (c *Classifier) Classify(description string, amount decimal.Decimal) domain.Category {
	abs := amount.Abs()
	if !abs.IsZero() && abs.LessThanOrEqual(AdjustmentThreshold) {
		return domain.CategoryAdjustment
	}

	if result, ok := c.engine.Match(description); ok {
		return result.Category
	}

	if c.MissHook != nil {
		c.MissHook(description)
	}
	return domain.CategoryMisc
}
