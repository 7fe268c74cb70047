package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zatekoja/carerouter/backend/internal/app"
	"github.com/zatekoja/carerouter/backend/internal/domain/entities"
	"github.com/zatekoja/carerouter/backend/internal/infrastructure/observability"
)

type options struct {
	lat, lng float64
	severity string
	mode     string
	radius   int
	tts      bool
	audioOut string
	source   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend the nearest hospital or clinic with the shortest travel plus wait",
		Long: `Runs one recommendation against the configured facility source and prints
the JSON response. Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&opts.lat, "lat", 0, "latitude of the caller (required)")
	flags.Float64Var(&opts.lng, "lng", 0, "longitude of the caller (required)")
	flags.StringVar(&opts.severity, "severity", string(entities.SeverityMedium), "symptom severity: low, medium or high")
	flags.StringVar(&opts.mode, "mode", string(entities.TravelModeDriving), "travel mode: driving, transit or walking")
	flags.IntVar(&opts.radius, "radius", entities.DefaultRadiusMeters, "search radius in meters")
	flags.BoolVar(&opts.tts, "tts", false, "synthesize the spoken summary")
	flags.StringVar(&opts.audioOut, "audio-out", "", "write synthesized audio to this file (implies --tts)")
	flags.StringVar(&opts.source, "source", "", "override FACILITY_SOURCE (google or mock)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")

	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, opts *options) error {
	cfg, err := app.LoadConfig(ctx)
	if err != nil {
		return err
	}
	if opts.source != "" {
		cfg.Google.Source = opts.source
	}
	// stdout carries the JSON response
	observability.InitLoggerWithOutput(cmd.ErrOrStderr(), "recommend-cli", "development", cfg.Log.Level)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer container.Close()

	req := entities.RecommendRequest{
		Location:      entities.Location{Latitude: opts.lat, Longitude: opts.lng},
		Severity:      entities.Severity(opts.severity),
		Mode:          entities.TravelMode(opts.mode),
		RadiusMeters:  opts.radius,
		IncludeSpeech: opts.tts || opts.audioOut != "",
	}

	resp, err := container.Service.Recommend(ctx, req)
	if err != nil {
		return err
	}

	if opts.audioOut != "" {
		if err := os.WriteFile(opts.audioOut, resp.Audio, 0o644); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		resp.Audio = nil
		fmt.Fprintf(cmd.ErrOrStderr(), "audio written to %s\n", opts.audioOut)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
