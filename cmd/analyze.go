package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/phishguard/pkg/engine"
)

var (
	analyzeJSON    bool
	analyzeSender  string
	analyzeSubject string
	analyzeBank    string
	analyzeAccount string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <email-file>",
	Short: "Analyze a raw email file (.eml) for phishing risk",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading email file: %w", err)
		}

		cfg := loadConfigOrExit()
		ctx := context.Background()

		provider := buildProvider(ctx, cfg)
		if closer, ok := provider.(interface{ Close() }); ok {
			defer closer.Close()
		}
		analyzer := buildAnalyzer(cfg, provider)

		input := engine.EmailInput{
			RawEmail:    string(raw),
			SenderEmail: analyzeSender,
			Subject:     analyzeSubject,
		}
		if analyzeBank != "" || analyzeAccount != "" {
			input.Context = &engine.AnalysisContext{
				Institution: analyzeBank,
				AccountType: analyzeAccount,
			}
		}

		assessment, err := analyzer.Analyze(ctx, input)
		if err != nil {
			return err
		}

		if analyzeJSON {
			out, err := json.MarshalIndent(assessment, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		printAssessment(assessment)
		return nil
	},
}

func printAssessment(a engine.RiskAssessment) {
	fmt.Println("=== Phishing Risk Assessment ===")
	fmt.Printf("Sender:     %s\n", a.Metadata.Sender)
	fmt.Printf("Subject:    %s\n", a.Metadata.Subject)
	fmt.Printf("Risk Score: %.1f / 100\n", a.Score)
	fmt.Printf("Risk Level: %s\n", strings.ToUpper(string(a.Level)))
	fmt.Printf("Phishing:   %v\n", a.IsPhishing)
	fmt.Println()
	fmt.Printf("Deterministic score: %.1f (SPF=%s DKIM=%s DMARC=%s)\n",
		a.Deterministic.Score, a.Deterministic.SPF, a.Deterministic.DKIM, a.Deterministic.DMARC)
	fmt.Printf("Semantic likelihood: %.1f (confidence %.2f)\n",
		a.Semantic.Likelihood, a.Semantic.Confidence)

	if len(a.Indicators) > 0 {
		fmt.Printf("\nIndicators (%d):\n", len(a.Indicators))
		for _, ind := range a.Indicators {
			fmt.Printf("  [%s] %.2f  %s\n", ind.Kind, ind.Confidence, ind.Reason)
		}
	}
	if a.Semantic.Reasoning != "" {
		fmt.Printf("\nReasoning: %s\n", a.Semantic.Reasoning)
	}
	fmt.Printf("\nProcessed in %.1fms (engine %s)\n", a.ProcessingTimeMS, a.Version)
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Output the full assessment as JSON")
	analyzeCmd.Flags().StringVar(&analyzeSender, "sender", "", "Override the sender address")
	analyzeCmd.Flags().StringVar(&analyzeSubject, "subject", "", "Override the subject line")
	analyzeCmd.Flags().StringVar(&analyzeBank, "bank", "", "User's banking institution for contextual scoring")
	analyzeCmd.Flags().StringVar(&analyzeAccount, "account-type", "", "User's account type (personal, business)")
	rootCmd.AddCommand(analyzeCmd)
}
