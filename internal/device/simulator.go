package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the pause between simulated transmissions.
const DefaultInterval = 30 * time.Second

// Scenario bounds the random vitals a simulated device produces. Integer
// bounds are inclusive.
type Scenario struct {
	Name         string
	TempMin      float64
	TempMax      float64
	HeartRateMin int
	HeartRateMax int
	RespRateMin  int
	RespRateMax  int
	WBCMin       int
	WBCMax       int
}

// Scenarios are the built-in device behaviours.
var Scenarios = map[string]Scenario{
	"stable": {
		Name: "stable", TempMin: 36.1, TempMax: 37.2,
		HeartRateMin: 60, HeartRateMax: 90, RespRateMin: 12, RespRateMax: 18,
		WBCMin: 5000, WBCMax: 10000,
	},
	"sepsis": {
		Name: "sepsis", TempMin: 38.5, TempMax: 40.5,
		HeartRateMin: 100, HeartRateMax: 140, RespRateMin: 22, RespRateMax: 35,
		WBCMin: 13000, WBCMax: 20000,
	},
	"hypothermia": {
		Name: "hypothermia", TempMin: 34.0, TempMax: 35.8,
		HeartRateMin: 50, HeartRateMax: 65, RespRateMin: 10, RespRateMax: 14,
		WBCMin: 4000, WBCMax: 9000,
	},
}

// ScenarioNames lists the built-in scenario names in sorted order.
func ScenarioNames() []string {
	names := make([]string, 0, len(Scenarios))
	for name := range Scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupScenario returns the named scenario.
func LookupScenario(name string) (Scenario, error) {
	s, ok := Scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q (want one of %v)", name, ScenarioNames())
	}
	return s, nil
}

// Sample draws one payload. Temperature is rounded to one decimal.
func (s Scenario) Sample(r *rand.Rand) Payload {
	temp := s.TempMin + r.Float64()*(s.TempMax-s.TempMin)
	return Payload{
		Temperature: math.Round(temp*10) / 10,
		HeartRate:   between(r, s.HeartRateMin, s.HeartRateMax),
		RespRate:    between(r, s.RespRateMin, s.RespRateMax),
		WBCCount:    float64(between(r, s.WBCMin, s.WBCMax)),
	}
}

func between(r *rand.Rand, lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

// Transport delivers a payload to the server.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

// Simulator plays a device following a scenario.
type Simulator struct {
	Scenario  Scenario
	Transport Transport
	Interval  time.Duration
	Rand      *rand.Rand
	Log       *zap.Logger
}

// Run transmits count payloads, or until ctx is done when count <= 0.
// Individual send failures are logged and the loop continues.
func (s *Simulator) Run(ctx context.Context, count int) error {
	if s.Transport == nil {
		return errors.New("simulator has no transport")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	rng := s.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	log := s.Log
	if log == nil {
		log = zap.NewNop()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for sent := 0; count <= 0 || sent < count; sent++ {
		p := s.Scenario.Sample(rng)
		if err := s.Transport.Send(ctx, p); err != nil {
			log.Warn("transmission failed", zap.String("scenario", s.Scenario.Name), zap.Error(err))
		} else {
			log.Info("transmitted",
				zap.String("scenario", s.Scenario.Name),
				zap.Float64("temperature", p.Temperature),
				zap.Int("heart_rate", p.HeartRate),
			)
		}
		if count > 0 && sent+1 == count {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
