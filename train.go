package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vitalmine-server/internal/logreg"
)

func trainModelCmd() *cobra.Command {
	var (
		samples int
		seed    int64
		out     string
		opts    = logreg.DefaultTrainOptions
	)
	cmd := &cobra.Command{
		Use:   "train-model",
		Short: "Train the sepsis model on synthetic patients and write it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if samples < 10 {
				return fmt.Errorf("--samples must be at least 10")
			}
			data := logreg.GenerateSynthetic(samples, seed)
			cmd.Printf("Training on %d synthetic patients...\n", len(data))

			m, err := logreg.Train(data, opts)
			if err != nil {
				return err
			}
			if err := m.Save(out); err != nil {
				return err
			}
			cmd.Printf("Model saved to %s (training accuracy %.2f%%)\n", out, 100*logreg.Accuracy(m, data))

			p, err := m.Probability([]float64{39.5, 110, 24, 15000})
			if err != nil {
				return err
			}
			label, _ := m.Predict(39.5, 110, 24, 15000)
			cmd.Printf("Test prediction for a sick patient: %d (1=sick, 0=healthy), confidence %.2f%%\n", label, 100*p)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&samples, "samples", 1000, "number of synthetic patients")
	f.Int64Var(&seed, "seed", 42, "random seed")
	f.StringVar(&out, "out", "sepsis_model.json", "output path")
	f.IntVar(&opts.Epochs, "epochs", opts.Epochs, "gradient descent epochs")
	f.Float64Var(&opts.LearningRate, "learning-rate", opts.LearningRate, "gradient descent step size")
	return cmd
}
