package cmd

import (
	"fmt"

	"github.com/bimmerbailey/driftlog/internal/llm"
	"github.com/bimmerbailey/driftlog/internal/prompt"
	"github.com/spf13/cobra"
)

var explainCmd = &cobra.Command{
	Use:   "explain [flags] <reference> <candidate>",
	Short: "Ask a local LLM to explain how a candidate run diverged",
	Long: `Compare a candidate log against a reference log, then send the
report to a local Ollama model and stream its explanation.

Prompt types:
  explain  narrative of how the candidate run differs (default)
  triage   flagged lines ranked by how likely they explain a failure

Examples:
  driftlog explain good.log bad.log
  driftlog explain --type triage --model mistral good.log bad.log
  driftlog explain --check`,
	Args: func(cmd *cobra.Command, args []string) error {
		if check, _ := cmd.Flags().GetBool("check"); check {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().String("type", string(prompt.TypeExplain), "prompt type (explain, triage)")
	explainCmd.Flags().String("model", "", "model to use (default from llm.ollama.model)")
	explainCmd.Flags().Bool("check", false, "only check that the provider and model are available")
	explainCmd.Flags().Int("max-lines", prompt.DefaultMaxLines, "flagged and missing lines sent to the model")
	explainCmd.Flags().Bool("no-redact", false, "send log lines without redacting secrets")

	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	typeStr, _ := cmd.Flags().GetString("type")
	model, _ := cmd.Flags().GetString("model")
	check, _ := cmd.Flags().GetBool("check")
	maxLines, _ := cmd.Flags().GetInt("max-lines")
	noRedact, _ := cmd.Flags().GetBool("no-redact")

	pt, err := prompt.ParseType(typeStr)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if model == "" {
		model = cfg.LLM.Ollama.Model
	}

	r := newRunner(cfg)
	ctx := commandContext(cmd)
	out := cmd.OutOrStdout()

	provider, err := llm.NewProvider(cfg.LLM, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}
	if err := llm.Check(ctx, provider, model); err != nil {
		return fmt.Errorf("cannot use %s at %s: %w\n\nStart Ollama with: ollama serve",
			model, cfg.LLM.Ollama.Host, err)
	}
	if check {
		fmt.Fprintf(out, "%s is reachable and %s is available\n", cfg.LLM.Ollama.Host, model)
		return nil
	}

	reference, err := r.load(args[0])
	if err != nil {
		return err
	}
	candidate, err := r.load(args[1])
	if err != nil {
		return err
	}

	opts := reportOptions(cfg)
	opts.DiffEntries = true
	report, err := r.compare(ctx, reference, candidate, opts)
	if err != nil {
		return err
	}

	writer, err := newWriter(cmd, cfg)
	if err != nil {
		return err
	}
	if err := writer.WriteSummary(report); err != nil {
		return err
	}

	var redactor *prompt.Redactor
	if cfg.LLM.Redact.Enabled && !noRedact {
		if redactor, err = prompt.NewRedactor(cfg.LLM.Redact.Patterns); err != nil {
			return err
		}
	}

	messages, err := prompt.Build(pt, prompt.FromReport(report, maxLines, redactor))
	if err != nil {
		return err
	}
	r.logger.Info("prompt built", "type", pt, "messages", len(messages), "redacted", redactor.Count())

	fmt.Fprintf(out, "\n=== %s (%s) ===\n\n", pt, model)
	_, err = llm.Stream(ctx, provider, messages, &llm.ChatOptions{
		Model:       model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, out)
	fmt.Fprintln(out)
	return err
}
