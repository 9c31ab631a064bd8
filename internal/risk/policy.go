package risk

import "vitalmine-server/internal/vitals"

// Trigger names the single-vital condition that escalated a Stable base
// result to Warning.
type Trigger string

const (
	NoTrigger   Trigger = ""
	Fever       Trigger = "fever"
	Hypothermia Trigger = "hypothermia"
	Tachycardia Trigger = "tachycardia"
	Tachypnea   Trigger = "tachypnea"
)

// WarningRule is one row of the single-vital escalation table.
type WarningRule struct {
	Trigger Trigger
	Matches func(v vitals.Vitals) bool
}

// WarningRules is evaluated top to bottom; the first match wins.
var WarningRules = []WarningRule{
	{Trigger: Fever, Matches: func(v vitals.Vitals) bool { return v.Temperature > 38.0 }},
	{Trigger: Hypothermia, Matches: func(v vitals.Vitals) bool { return v.Temperature < 36.0 }},
	{Trigger: Tachycardia, Matches: func(v vitals.Vitals) bool { return v.HeartRate > 100 }},
	{Trigger: Tachypnea, Matches: func(v vitals.Vitals) bool { return v.RespRate > 22 }},
}

// Assessment is the final classification of one reading.
type Assessment struct {
	Label     Label
	Trigger   Trigger
	BaseLabel Label
	Strategy  string
	SIRSScore int
}

// Policy is the combined production policy: a binary sick/healthy gate from
// the base strategy, refined by the single-vital Warning table. High is never
// downgraded.
type Policy struct {
	Base  Strategy
	Rules []WarningRule
}

// NewPolicy returns a Policy over base using the default WarningRules.
func NewPolicy(base Strategy) *Policy {
	if base == nil {
		base = SIRS{}
	}
	return &Policy{Base: base, Rules: WarningRules}
}

// Assess classifies v. It never fails: a base strategy error is answered by
// the SIRS rules.
func (p *Policy) Assess(v vitals.Vitals) Assessment {
	rule := SIRS{}
	d, err := p.Base.Classify(v)
	if err != nil || !d.Label.Valid() {
		d, _ = rule.Classify(v)
		d.Strategy = rule.Name() + "-fallback"
	}

	a := Assessment{
		Label:     d.Label,
		BaseLabel: d.Label,
		Strategy:  d.Strategy,
		SIRSScore: rule.Score(v),
	}
	if d.Label == High {
		return a
	}

	a.Label = Stable
	for _, r := range p.Rules {
		if r.Matches(v) {
			a.Label = Warning
			a.Trigger = r.Trigger
			break
		}
	}
	return a
}
