package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"phishvault/internal/config"
	"phishvault/internal/scanner"
	"phishvault/pkg/domain"
	"phishvault/pkg/logger"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// verdictColor picks the output color of a verdict.
func verdictColor(v domain.Verdict) *color.Color {
	switch v {
	case domain.VerdictMalicious:
		return color.New(color.FgRed, color.Bold)
	case domain.VerdictSuspicious:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

// printInspection renders an inspection for a terminal.
func printInspection(w io.Writer, in *scanner.Inspection) {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)

	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = fmt.Fprintf(w, "URL:       %s\n", in.URL)
	_, _ = fmt.Fprintf(w, "Final URL: %s\n", in.Signals.FinalURL)
	_, _ = fmt.Fprint(w, "Verdict:   ")
	_, _ = verdictColor(in.Result.Verdict).Fprintf(w, "%s (score %d)\n", in.Result.Verdict, in.Result.Score)
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")

	if len(in.Result.Notes) > 0 {
		_, _ = fmt.Fprintln(w, "Findings:")
		for _, n := range in.Result.Notes {
			_, _ = fmt.Fprintf(w, "  - %s\n", n)
		}
	}
	if len(in.Signals.RedirectChain) > 1 {
		_, _ = fmt.Fprintln(w, "Redirects:")
		for i, r := range in.Signals.RedirectChain {
			_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, r)
		}
	}
	if in.Signals.ScreenshotRef != "" {
		_, _ = fmt.Fprintf(w, "Screenshot: %s\n", in.Signals.ScreenshotRef)
	}
	if in.Signals.Degraded() {
		_, _ = color.New(color.FgYellow).Fprintln(w, "Capture was degraded:")
		for _, e := range in.Signals.CaptureErrors {
			_, _ = gray.Fprintf(w, "  ! %s\n", e)
		}
	}
	_, _ = gray.Fprintf(w, "fingerprint %s\n", in.Fingerprint)
}

// inspectCommand constructs the 'inspect' subcommand that captures and scores
// one URL without a database.
func inspectCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <url>",
		Short: "Captures and scores a URL once and prints the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			asJSON, _ := cmd.Flags().GetBool("json")
			screenshots, _ := cmd.Flags().GetBool("screenshot")

			agent, closeBrowser := getCaptureAgent(ctx, cfg, screenshots)
			defer closeBrowser()

			sc := scanner.New(scanner.Deps{
				Capturer: agent,
				Engine:   getScoringEngine(ctx, cfg),
			}, scanner.NewOptions(cfg))

			in, err := sc.Inspect(ctx, args[0])
			if err != nil {
				logger.Error(ctx, "could not inspect URL", zap.Error(err))

				return fmt.Errorf("could not inspect %s: %w", args[0], err)
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(in); err != nil {
					return fmt.Errorf("could not encode inspection: %w", err)
				}

				return nil
			}

			figure.NewColorFigure("PhishVault", "doom", "red", true).Print()
			printInspection(os.Stdout, in)

			return nil
		},
	}

	cmd.Flags().Bool("json", false, "Print the inspection as JSON")
	cmd.Flags().Bool("screenshot", false, "Store a screenshot in the configured directory")

	return cmd
}
