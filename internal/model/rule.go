package model

import (
	"encoding/json"
	"fmt"
)

// Condition compares the daily close against the SMA.
type Condition int

const (
	CondPriceAboveSMA Condition = iota // price > sma
	CondPriceBelowSMA                  // price < sma
	CondPriceAtOrAboveSMA              // price >= sma
	CondPriceAtOrBelowSMA              // price <= sma
)

var conditionNames = map[Condition]string{
	CondPriceAboveSMA:     "price > sma",
	CondPriceBelowSMA:     "price < sma",
	CondPriceAtOrAboveSMA: "price >= sma",
	CondPriceAtOrBelowSMA: "price <= sma",
}

// ParseCondition maps the wire form of a condition onto its enum value.
func ParseCondition(s string) (Condition, error) {
	for c, name := range conditionNames {
		if s == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown condition %q", s)
}

func (c Condition) String() string {
	if name, ok := conditionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("condition(%d)", int(c))
}

// MarshalJSON encodes the condition in its wire form.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON rejects any string that is not one of the four conditions.
func (c *Condition) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCondition(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Action is what the rule tells the simulator to do on an evaluated day.
type Action int

const (
	ActionHold Action = iota
	ActionBuy
	ActionSell
	// ActionExit forces the position flat. In this single-asset model it
	// behaves exactly like ActionSell; it is only valid as an else-action.
	ActionExit
)

var actionNames = map[Action]string{
	ActionHold: "hold",
	ActionBuy:  "buy",
	ActionSell: "sell",
	ActionExit: "exit",
}

// ParseAction maps the wire form of an action onto its enum value.
func ParseAction(s string) (Action, error) {
	for a, name := range actionNames {
		if s == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown action %q", s)
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalJSON encodes the action in its wire form.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON rejects any string that is not one of the four actions.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAction(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Rule is the if/then/else trading rule. It is immutable once a backtest
// starts; exit is only permitted as the else branch.
type Rule struct {
	Condition  Condition `json:"if_condition"`
	ThenAction Action    `json:"then_action"`
	ElseAction Action    `json:"else_action"`
}

// Validate checks the enum domains: then ∈ {buy, sell, hold},
// else ∈ {buy, sell, hold, exit}.
func (r Rule) Validate() error {
	if _, ok := conditionNames[r.Condition]; !ok {
		return fmt.Errorf("invalid condition %d", int(r.Condition))
	}
	switch r.ThenAction {
	case ActionBuy, ActionSell, ActionHold:
	default:
		return fmt.Errorf("invalid then_action %q", r.ThenAction)
	}
	switch r.ElseAction {
	case ActionBuy, ActionSell, ActionHold, ActionExit:
	default:
		return fmt.Errorf("invalid else_action %q", r.ElseAction)
	}
	return nil
}
