package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/liamcoop/formulas/formula"
	"github.com/liamcoop/formulas/generation"
	"github.com/liamcoop/formulas/internal/config"
	"github.com/liamcoop/formulas/llm/provider"
	"github.com/liamcoop/formulas/policy"
	"github.com/liamcoop/formulas/prompt"
)

// errInvalid signals a non-zero exit after the result has been printed.
var errInvalid = errors.New("formula is not valid")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errInvalid) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "formulactl",
		Short:         "Inspect and exercise the amortization formula pipeline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newValidateCmd(),
		newNormalizeCmd(),
		newPromptCmd(),
		newGenerateCmd(),
		newCatalogCmd(),
	)
	return rootCmd
}

type validateOutput struct {
	Formula string  `json:"formula"`
	IsValid bool    `json:"isValid"`
	Rule    string  `json:"rule,omitempty"`
	Error   *string `json:"error"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <formula>",
		Short: "Normalize and validate a candidate formula",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidate := formula.Normalize(strings.Join(args, " "))
			out := validateOutput{Formula: candidate, IsValid: true}

			if err := formula.NewValidator(policy.Default()).Validate(candidate); err != nil {
				msg := err.Error()
				out.IsValid = false
				out.Error = &msg
				var verr *formula.ValidationError
				if errors.As(err, &verr) {
					out.Rule = string(verr.Rule)
				}
			}

			if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
				return err
			}
			if !out.IsValid {
				return errInvalid
			}
			return nil
		},
	}
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Read generated text from stdin and print the candidate formula",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), formula.Normalize(string(raw)))
			return err
		},
	}
}

func newPromptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prompt <request>",
		Short: "Print the message sequence sent for a request",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), prompt.Assemble(strings.Join(args, " ")))
		},
	}
}

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate <request>",
		Short: "Generate and validate a formula with the configured provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			gen, release, err := provider.New(cmd.Context(), cfg.LLM)
			if err != nil {
				return err
			}
			defer release()

			svc := generation.New(gen, policy.Default())
			res, err := svc.Generate(cmd.Context(), generation.Request{Prompt: strings.Join(args, " ")})
			if err != nil {
				return err
			}

			if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.IsValid {
				return errInvalid
			}
			return nil
		},
	}
}

type catalogOutput struct {
	AllowedVariables  []string `json:"allowedVariables"`
	ForbiddenKeywords []string `json:"forbiddenKeywords"`
	LiteralTokens     []string `json:"literalTokens"`
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Print the policy catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := policy.Default()
			return writeJSON(cmd.OutOrStdout(), catalogOutput{
				AllowedVariables:  c.AllowedVariables(),
				ForbiddenKeywords: c.ForbiddenKeywords(),
				LiteralTokens:     c.LiteralTokens(),
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
