package logreg

import (
	"errors"
	"math"
	"math/rand"

	"vitalmine-server/internal/risk"
	"vitalmine-server/internal/vitals"
)

// Sample is one labelled training row.
type Sample struct {
	X     []float64
	Label int
}

// TrainOptions controls gradient descent.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	L2           float64
	Threshold    float64
}

// DefaultTrainOptions are good enough for the synthetic SIRS data set.
var DefaultTrainOptions = TrainOptions{
	Epochs:       3000,
	LearningRate: 0.5,
	L2:           0.001,
	Threshold:    0.5,
}

// GenerateSynthetic builds n random patients labelled by the SIRS rule
// strategy (risk.SIRSHighScore criteria or more means sick).
func GenerateSynthetic(n int, seed int64) []Sample {
	r := rand.New(rand.NewSource(seed))
	var rule risk.SIRS
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		v := vitals.Vitals{
			Temperature: 35 + r.Float64()*6,
			HeartRate:   50 + r.Intn(90),
			RespRate:    10 + r.Intn(30),
			WBCCount:    float64(2000 + r.Intn(18000)),
		}
		label := 0
		if rule.Score(v) >= risk.SIRSHighScore {
			label = 1
		}
		x := []float64{v.Temperature, float64(v.HeartRate), float64(v.RespRate), v.WBCCount}
		out = append(out, Sample{X: x, Label: label})
	}
	return out
}

// Train fits a logistic regression by batch gradient descent on
// standardised features.
func Train(samples []Sample, opts TrainOptions) (*Model, error) {
	if len(samples) == 0 {
		return nil, errors.New("no training samples")
	}
	if opts.Epochs <= 0 {
		opts = DefaultTrainOptions
	}
	if opts.Threshold <= 0 || opts.Threshold >= 1 {
		opts.Threshold = 0.5
	}

	nf := len(FeatureNames)
	mean := make([]float64, nf)
	scale := make([]float64, nf)
	for _, s := range samples {
		if len(s.X) != nf {
			return nil, ErrInvalidModel
		}
		for j, v := range s.X {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(samples))
	}
	for _, s := range samples {
		for j, v := range s.X {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / float64(len(samples)))
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	z := make([][]float64, len(samples))
	for i, s := range samples {
		row := make([]float64, nf)
		for j, v := range s.X {
			row[j] = (v - mean[j]) / scale[j]
		}
		z[i] = row
	}

	w := make([]float64, nf)
	b := 0.0
	grad := make([]float64, nf)
	m := float64(len(samples))
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gb := 0.0
		for i, row := range z {
			p := b
			for j, v := range row {
				p += w[j] * v
			}
			diff := sigmoid(p) - float64(samples[i].Label)
			for j, v := range row {
				grad[j] += diff * v
			}
			gb += diff
		}
		for j := range w {
			w[j] -= opts.LearningRate * (grad[j]/m + opts.L2*w[j])
		}
		b -= opts.LearningRate * gb / m
	}

	return &Model{
		Features:  append([]string(nil), FeatureNames...),
		Weights:   w,
		Intercept: b,
		Mean:      mean,
		Scale:     scale,
		Threshold: opts.Threshold,
	}, nil
}

// Accuracy is the fraction of samples m labels correctly.
func Accuracy(m *Model, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	correct := 0
	for _, s := range samples {
		p, err := m.Probability(s.X)
		if err != nil {
			continue
		}
		pred := 0
		if p >= m.Threshold {
			pred = 1
		}
		if pred == s.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(samples))
}
