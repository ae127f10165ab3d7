package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"agilboard/internal/config"
	"agilboard/internal/infrastructure"
	"agilboard/internal/services"
	"agilboard/internal/upstream"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the upstream services once and print the health report",
	Long: `probe runs the same aggregation as GET /health against the configured user and
problem services, prints the report as JSON and exits non-zero unless both are up.`,
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 10*time.Second, "overall deadline for the probe")
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// stdout carries the report, so logs go to stderr
	logger := infrastructure.NewLogger(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn})

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	health := services.NewHealthService(upstream.NewClient(cfg.Upstream, logger), logger)
	status := health.HealthCheck(ctx)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(status); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if !status.Healthy() {
		return fmt.Errorf("upstream services are %s", status.Status)
	}
	return nil
}
