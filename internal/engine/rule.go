package engine

import "backtester/internal/model"

// Evaluate applies the rule to one evaluated day and returns the action to
// take: the then-action when the condition holds, the else-action otherwise.
// Callers must only pass days with a defined SMA; warmup days never get here.
func Evaluate(price, sma float64, rule model.Rule) model.Action {
	var met bool
	switch rule.Condition {
	case model.CondPriceAboveSMA:
		met = price > sma
	case model.CondPriceBelowSMA:
		met = price < sma
	case model.CondPriceAtOrAboveSMA:
		met = price >= sma
	case model.CondPriceAtOrBelowSMA:
		met = price <= sma
	}
	if met {
		return rule.ThenAction
	}
	return rule.ElseAction
}
