package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vitalmine-server/internal/device"
	"vitalmine-server/internal/logger"
)

type simulateOptions struct {
	scenario  string
	interval  time.Duration
	count     int
	transport string
	url       string
	username  string
	password  string
	broker    string
}

func simulateCmd() *cobra.Command {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a virtual wearable that streams vitals for a subject",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulator(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.scenario, "scenario", "stable", "scenario: "+strings.Join(device.ScenarioNames(), ", "))
	f.DurationVar(&opts.interval, "interval", device.DefaultInterval, "time between transmissions")
	f.IntVar(&opts.count, "count", 0, "number of transmissions, 0 runs until interrupted")
	f.StringVar(&opts.transport, "transport", "http", "transport: http or mqtt")
	f.StringVar(&opts.url, "url", "http://127.0.0.1:5000", "server base URL for the http transport")
	f.StringVar(&opts.username, "username", "patient_om", "subject username")
	f.StringVar(&opts.password, "password", "password123", "subject password for the http transport")
	f.StringVar(&opts.broker, "broker", os.Getenv("MQTT_BROKER"), "MQTT broker for the mqtt transport")
	return cmd
}

func runSimulator(ctx context.Context, opts simulateOptions) error {
	scenario, err := device.LookupScenario(opts.scenario)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger("info", "console", "vitalmine-simulator")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var transport device.Transport
	switch opts.transport {
	case "http":
		transport = device.NewHTTPTransport(opts.url, opts.username, opts.password)
	case "mqtt":
		if opts.broker == "" {
			return fmt.Errorf("--broker is required for the mqtt transport")
		}
		mc, err := device.NewMQTTClient(device.MQTTConfig{
			Broker:   opts.broker,
			ClientID: "vitalmine-sim-" + uuid.NewString()[:8],
		}, log)
		if err != nil {
			return err
		}
		defer mc.Disconnect()
		transport = &device.MQTTTransport{Client: mc, Username: opts.username}
	default:
		return fmt.Errorf("unknown transport %q: want http or mqtt", opts.transport)
	}

	log.Info("simulation started",
		zap.String("scenario", scenario.Name),
		zap.String("transport", opts.transport),
		zap.String("subject", opts.username),
		zap.Duration("interval", opts.interval),
	)
	sim := &device.Simulator{
		Scenario:  scenario,
		Transport: transport,
		Interval:  opts.interval,
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:       log,
	}
	if err := sim.Run(ctx, opts.count); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("simulation stopped")
	return nil
}
