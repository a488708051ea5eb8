// Package main provides the local CLI for calcbot commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/calcbot/internal/commands"
	apperrors "github.com/ZanzyTHEbar/calcbot/internal/errors"
	"github.com/ZanzyTHEbar/calcbot/internal/monitoring"
)

const defaultTimeout = 10 * time.Second

// errAlreadyReported marks a failure whose reply was already printed.
var errAlreadyReported = errors.New("already reported")

var (
	runJSON    bool
	runTimeout time.Duration
	logLevel   string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		var appErr *apperrors.AppError
		switch {
		case errors.Is(err, errAlreadyReported):
		case errors.As(err, &appErr):
			logErrln(apperrors.UserMessage(appErr))
		default:
			logErrln(err.Error())
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "calcbot",
		Short:         "Run calcbot commands locally",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRunCmd())

	return rootCmd
}

func newRegistry(stderr io.Writer) *commands.Registry {
	logger := monitoring.NewLoggerWithWriter(stderr, monitoring.ParseLevel(logLevel))
	slog.SetDefault(logger.Logger)

	return commands.NewRegistry(commands.WithObserver(
		func(name string, optionCount int, err error, duration time.Duration) {
			category := ""
			if err != nil {
				category = string(apperrors.ToAppError(err).Category)
			}
			logger.CommandLogger(name, optionCount, category, duration)
		},
	))
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List commands and their options",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	registry := newRegistry(cmd.ErrOrStderr())
	if _, err := fmt.Fprint(cmd.OutOrStdout(), renderDefinitions(registry.Definitions())); err != nil {
		return apperrors.WrapError(err, "failed to write output")
	}
	return nil
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <command> [option=value ...]",
		Short: "Run a command",
		Example: `  calcbot run analyze type=statistic data="1 2 3 4 100"
  calcbot run regression type=quadratic x_values="1 2 3 4" y_values="1 4 9 16"
  calcbot run caesar operation=decode input="khoor"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runRunCmd,
	}
	cmd.Flags().BoolVar(&runJSON, "json", false, "print the raw reply as JSON")
	cmd.Flags().DurationVar(&runTimeout, "timeout", defaultTimeout, "give up after this long")
	return cmd
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(args[1:])
	if err != nil {
		return apperrors.NewValidationError(err.Error(), err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	registry := newRegistry(cmd.ErrOrStderr())
	resp, err := registry.Dispatch(ctx, commands.Invocation{Name: args[0], Options: opts})
	if err != nil && !resp.Ephemeral {
		return err
	}

	out := cmd.OutOrStdout()
	if runJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(resp); encErr != nil {
			return apperrors.WrapError(encErr, "failed to write output")
		}
	} else if _, werr := fmt.Fprint(out, renderResponse(resp)); werr != nil {
		return apperrors.WrapError(werr, "failed to write output")
	}

	// The reply already explains the failure; only the exit status is left.
	if err != nil {
		return errAlreadyReported
	}
	return nil
}

// parseOptions turns option=value arguments into command options. Values
// may themselves contain '='.
func parseOptions(args []string) (commands.Options, error) {
	opts := commands.Options{}
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("argument %q is not option=value", arg)
		}
		if _, dup := opts[name]; dup {
			return nil, fmt.Errorf("option %q given twice", name)
		}
		opts[name] = value
	}
	return opts, nil
}

func logErrln(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, errorStyle.Render(msg))
}
