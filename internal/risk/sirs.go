package risk

import "vitalmine-server/internal/vitals"

// SIRS thresholds.
const (
	sirsTempLow  = 36.0
	sirsTempHigh = 38.0
	sirsHR       = 90
	sirsRR       = 20
	sirsWBCLow   = 4000.0
	sirsWBCHigh  = 12000.0

	// SIRSHighScore is the score at which the rule strategy reports High.
	SIRSHighScore = 2
)

// SIRS is the deterministic four-criteria rule strategy. It has no Warning
// tier.
type SIRS struct{}

func (SIRS) Name() string { return "sirs" }

// Score counts the SIRS criteria met by v.
func (SIRS) Score(v vitals.Vitals) int {
	score := 0
	if v.Temperature > sirsTempHigh || v.Temperature < sirsTempLow {
		score++
	}
	if v.HeartRate > sirsHR {
		score++
	}
	if v.RespRate > sirsRR {
		score++
	}
	if v.WBCCount > sirsWBCHigh || v.WBCCount < sirsWBCLow {
		score++
	}
	return score
}

func (s SIRS) Classify(v vitals.Vitals) (Decision, error) {
	if s.Score(v) >= SIRSHighScore {
		return Decision{Label: High, Strategy: s.Name()}, nil
	}
	return Decision{Label: Stable, Strategy: s.Name()}, nil
}
