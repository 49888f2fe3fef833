package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/A-Yoshitsugu/crossborder/config"
	"github.com/A-Yoshitsugu/crossborder/internal/app"
	"github.com/A-Yoshitsugu/crossborder/internal/domain"
	"github.com/A-Yoshitsugu/crossborder/internal/infrastructure/demand"
	"github.com/A-Yoshitsugu/crossborder/internal/logger"
	"github.com/A-Yoshitsugu/crossborder/internal/usecase"
)

// feeFlags maps CLI flag names to the override they set
var feeFlags = []struct {
	name  string
	usage string
	field func(*domain.FeeOverrides) *domain.OptionalFloat
}{
	{"fx", "source -> target currency rate", func(o *domain.FeeOverrides) *domain.OptionalFloat { return &o.FXRate }},
	{"gst", "import tax rate", func(o *domain.FeeOverrides) *domain.OptionalFloat { return &o.GSTRate }},
	{"platform-fee", "marketplace fee rate", func(o *domain.FeeOverrides) *domain.OptionalFloat { return &o.PlatformFeeRate }},
	{"payment-fee", "payment processing fee rate", func(o *domain.FeeOverrides) *domain.OptionalFloat { return &o.PaymentFeeRate }},
	{"gm-threshold", "minimum gross margin to keep a row", func(o *domain.FeeOverrides) *domain.OptionalFloat { return &o.MarginThreshold }},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Fetch demand, match it to the catalog and print the scored report as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runScan(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringSliceP("cats", "c", nil, "demand categories (comma separated or repeated)")
	scanCmd.Flags().Int("days", 30, "demand lookback window in days")
	scanCmd.Flags().String("demand", "", "read demand rows from a JSON file instead of the demand API")
	scanCmd.Flags().Bool("pretty", false, "indent the JSON report")
	for _, f := range feeFlags {
		scanCmd.Flags().Float64(f.name, 0, f.usage+" (overrides the fee file)")
	}

	_ = scanCmd.MarkFlagRequired("cats")
}

// overridesFromFlags sets only the fee flags the user actually passed, so an
// explicit 0 reaches validation instead of silently meaning "default".
func overridesFromFlags(flags *pflag.FlagSet) (domain.FeeOverrides, error) {
	var o domain.FeeOverrides
	for _, f := range feeFlags {
		if !flags.Changed(f.name) {
			continue
		}
		v, err := flags.GetFloat64(f.name)
		if err != nil {
			return o, err
		}
		*f.field(&o) = domain.Some(v)
	}
	return o, nil
}

func runScan(cmd *cobra.Command) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lg, err := logger.New(viper.GetBool("json") || cfg.Log.JSON, viper.GetBool("debug") || cfg.Log.Debug)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer func() { _ = lg.Sync() }()

	cats, _ := cmd.Flags().GetStringSlice("cats")
	days, _ := cmd.Flags().GetInt("days")
	demandFile, _ := cmd.Flags().GetString("demand")
	pretty, _ := cmd.Flags().GetBool("pretty")

	overrides, err := overridesFromFlags(cmd.Flags())
	if err != nil {
		return err
	}

	var opts []app.Option
	if demandFile != "" {
		items, rejected, err := demand.LoadFile(demandFile)
		if err != nil {
			return err
		}
		for _, r := range rejected {
			lg.Warn("skipping demand row", zap.String("file", demandFile), zap.Int("index", r.Index), zap.Error(r.Err))
		}
		opts = append(opts, app.WithDemandProvider(demand.NewStaticProvider(items)))
	}

	deps, cleanup, err := app.Wire(ctx, cfg, lg, opts...)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.LoadCatalog(ctx, lg); err != nil {
		return err
	}

	report, err := deps.Service.FindOpportunities(ctx, usecase.OpportunityQuery{
		Categories: cats,
		Days:       days,
		Overrides:  overrides,
	})
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), report, pretty)
}

func writeReport(w io.Writer, report *domain.OpportunityReport, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(report)
}
