package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"dcf_builder/pkg/core/casefile"
	"dcf_builder/pkg/core/config"
	"dcf_builder/pkg/core/engine"
	"dcf_builder/pkg/core/engine/loader"
	"dcf_builder/pkg/core/logging"
	"dcf_builder/pkg/core/model"
	"dcf_builder/pkg/core/report"
)

var (
	cfgFile    string
	engineKind string
	verbose    bool
	asJSON     bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dcf",
	Short: "Discounted cash flow valuation toolkit",
	Long: `dcf values a company from a case file (YAML, JSON or Hjson) holding a
forecast and valuation context.

Commands:
  value        - full valuation with EV bridge, comps and SOTP
  scenarios    - value every configured scenario
  sensitivity  - WACC x growth / exit multiple sweep
  montecarlo   - seeded simulation of enterprise value
  npv, irr     - NPV/IRR kernel on dated cash flows
  parity       - compare the fast and exact kernels
  report       - Markdown/HTML valuation report
  defaults     - write a starter case file`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		// the CLI is quiet unless asked; engine selection logs at info
		level := "warn"
		if verbose {
			level = "debug"
		}
		logging.Setup(level, true)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $DCF_CONFIG or ./config/server.yaml)")
	rootCmd.PersistentFlags().StringVar(&engineKind, "engine", "", "numeric engine: fast or exact (default from config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
}

func loadCase(path string) (model.BuilderState, error) {
	state, err := casefile.Load(path)
	if err != nil {
		return model.BuilderState{}, fmt.Errorf("load case: %w", err)
	}
	return state, nil
}

// loadEngine picks the kernel from --engine, then config, falling back when
// the config allows it.
func loadEngine(ctx context.Context) (engine.Engine, error) {
	name := engineKind
	if name == "" {
		name = cfg.Engine.Kind
	}
	kind, err := loader.ParseKind(name)
	if err != nil {
		return nil, err
	}
	return loader.Load(ctx, loader.Options{
		Preferred:     kind,
		AllowFallback: engineKind == "" && cfg.Engine.AllowFallback,
		SkipSelfCheck: cfg.Engine.SkipSelfCheck,
	})
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func currencySymbol(state model.BuilderState) string {
	return report.CurrencySymbol(state.Context.Metadata.Currency)
}
