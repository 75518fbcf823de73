package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"dcf_builder/pkg/core/casefile"
	"dcf_builder/pkg/core/model"
)

var (
	defaultsYear   int
	defaultsOut    string
	defaultsFormat string
)

var defaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Write a starter case",
	Long: `Prints (or writes with --out) the starter case: six forecast periods,
base/bull/bear scenarios and two segments.`,
	Args: cobra.NoArgs,
	RunE: runDefaults,
}

func init() {
	defaultsCmd.Flags().IntVar(&defaultsYear, "year", time.Now().Year(), "first forecast year")
	defaultsCmd.Flags().StringVarP(&defaultsOut, "out", "o", "", "output case file (.yaml, .json or .hjson)")
	defaultsCmd.Flags().StringVar(&defaultsFormat, "format", "yaml", "stdout format when --out is not given")
	rootCmd.AddCommand(defaultsCmd)
}

func runDefaults(cmd *cobra.Command, args []string) error {
	state := model.DefaultState(defaultsYear)
	if defaultsOut != "" {
		if err := casefile.Save(defaultsOut, state); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", defaultsOut)
		return nil
	}
	f, err := casefile.ParseFormat(defaultsFormat)
	if err != nil {
		return err
	}
	data, err := casefile.Encode(state, f)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
