package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/parcel-risk/internal/config"
	"github.com/sells-group/parcel-risk/internal/model"
)

// Exit codes.
const (
	exitFailure  = 1
	exitBadInput = 2
	exitUpstream = 3
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "parcel-risk",
	Short: "Building risk and price fairness scoring for Korean parcels",
	Long: `Resolves lot-number addresses to legal district codes, queries the
building register and real-transaction services, and scores structural
and legal risk and price fairness. Every analysis is recorded in the
history store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyLogFlags(cmd, &c.Log)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		_ = zap.L().Sync()
	},
}

// applyLogFlags lets --log-level and --log-format override the loaded
// config when given explicitly.
func applyLogFlags(cmd *cobra.Command, lc *config.LogConfig) {
	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		lc.Level = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		lc.Format = f.Value.String()
	}
}

// exitCode separates caller mistakes from registry outages so scripts can
// tell them apart.
func exitCode(err error) int {
	var (
		invalidAddr *model.InvalidAddressError
		badParcel   *model.ParcelIDLengthError
		notFound    *model.BuildingInfoNotFoundError
	)
	switch {
	case errors.As(err, &invalidAddr), errors.As(err, &badParcel), errors.Is(err, model.ErrInvalidDealInput):
		return exitBadInput
	case errors.As(err, &notFound):
		return exitUpstream
	default:
		return exitFailure
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "log format (json or console)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}
