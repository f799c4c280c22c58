package cmd

import (
	"github.com/spf13/cobra"

	"github.com/user/phishguard/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "phishguard",
	Short: "Hybrid phishing risk analysis for email",
	Long: `PhishGuard combines deterministic email checks (authentication headers,
URL heuristics, attachment and content patterns) with a language-model
assessment into a single fused risk score and classification.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.DebugEnabled = DebugMode
	},
}

var DebugMode bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
}
