// Package main provides the genomeviz command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genomeviz",
		Short: "Comparative genome visualization from GenBank files",
		Long: `genomeviz renders comparative genome figures: it parses GenBank
records, extracts CDS features, aligns genomes pairwise with MUMmer and
draws feature tracks, homology links and an identity colorbar.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newMummerCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig loads ~/.genomeviz.yaml when present.
func initConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.AddConfigPath(home)
	viper.SetConfigName(".genomeviz")
	viper.SetConfigType("yaml")
	_ = viper.ReadInConfig()
}
