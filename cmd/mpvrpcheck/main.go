// Command mpvrpcheck verifies MPVRP solutions from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mpvrp-verify-service/internal/adapters/instancefile"
	"mpvrp-verify-service/internal/config"
	"mpvrp-verify-service/internal/domain"
	"mpvrp-verify-service/internal/platform/obs"
	"mpvrp-verify-service/internal/services"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Exit codes of the verify command.
const (
	exitOK         = 0
	exitRejected   = 1
	exitStructural = 2
)

// exitError carries a process exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := rootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitStructural
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mpvrpcheck",
		Short: "Verify multi-product vehicle routing solutions",
		Long: `Check a solver's solution against an MPVRP instance.

Examples:
  mpvrpcheck verify --instance inst.dat --solution sol.dat
  mpvrpcheck verify --instance inst.dat --solution sol.yaml --format sparse --output json
  mpvrpcheck inspect --instance inst.dat
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(verifyCmd())
	cmd.AddCommand(inspectCmd())
	return cmd
}

func verifyCmd() *cobra.Command {
	var (
		instancePath string
		solutionPath string
		format       string
		output       string
		configPath   string
		logLevel     string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a solution against an instance",
		Long: `Verify a solution against an instance.

Exit status is 0 when the solution is feasible and its reported metrics
match, 1 when it is not, and 2 when an input cannot be read at all.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "text" && output != "json" {
				return &exitError{code: exitStructural, err: fmt.Errorf("unknown output %q (want text or json)", output)}
			}

			cfg, err := config.Load(configPath)
			if err != nil {
				return &exitError{code: exitStructural, err: err}
			}
			logger, err := obs.NewLogger(logLevel)
			if err != nil {
				return &exitError{code: exitStructural, err: err}
			}
			defer func() { _ = logger.Sync() }()

			instance, err := os.ReadFile(instancePath)
			if err != nil {
				return &exitError{code: exitStructural, err: fmt.Errorf("read instance: %w", err)}
			}
			solution, err := os.ReadFile(solutionPath)
			if err != nil {
				return &exitError{code: exitStructural, err: fmt.Errorf("read solution: %w", err)}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			v := services.NewVerifier(logger, cfg.Tolerance, cfg.Workers)
			verdict, err := v.Run(ctx, services.VerifyRequest{
				Instance: instance,
				Solution: solution,
				Format:   format,
			})
			if err != nil {
				var se *domain.StructuralError
				if errors.As(err, &se) {
					return &exitError{code: exitStructural, err: err}
				}
				return err
			}

			out := cmd.OutOrStdout()
			if output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(verdict); err != nil {
					return fmt.Errorf("encode verdict: %w", err)
				}
			} else {
				writeVerdict(out, verdict)
			}

			if !verdict.Feasible || !verdict.CostMatch {
				return &exitError{code: exitRejected}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&instancePath, "instance", "", "Instance file")
	cmd.Flags().StringVar(&solutionPath, "solution", "", "Solution file")
	cmd.Flags().StringVar(&format, "format", services.FormatAuto, "Solution format: auto, ordered or sparse")
	cmd.Flags().StringVar(&output, "output", "text", "Output: text or json")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "Log level (diagnostics go to stderr)")
	_ = cmd.MarkFlagRequired("instance")
	_ = cmd.MarkFlagRequired("solution")

	return cmd
}

func inspectCmd() *cobra.Command {
	var instancePath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Parse an instance and print its shape and advisories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := instancefile.ParseFile(instancePath)
			if err != nil {
				return &exitError{code: exitStructural, err: err}
			}
			writeInstance(cmd.OutOrStdout(), parsed)
			return nil
		},
	}

	cmd.Flags().StringVar(&instancePath, "instance", "", "Instance file")
	_ = cmd.MarkFlagRequired("instance")

	return cmd
}
