package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/agbru/megacalc/internal/cli"
	"github.com/agbru/megacalc/internal/config"
	apperrors "github.com/agbru/megacalc/internal/errors"
	"github.com/agbru/megacalc/internal/logging"
	"github.com/agbru/megacalc/internal/orchestration"
	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/internal/server"
	"github.com/agbru/megacalc/internal/service"
	"github.com/agbru/megacalc/internal/ui"
)

// ServiceFactory builds the calculation service for a resolved configuration.
type ServiceFactory func(cfg config.AppConfig, logger logging.Logger) service.Service

// Application represents the megacalc application instance. It owns the
// configuration bound to the command line and dispatches to the CLI
// calculation, the HTTP server or the maintenance subcommands.
type Application struct {
	// Config holds the resolved application configuration.
	Config config.AppConfig
	// Out is the writer for standard output.
	Out io.Writer
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
	// NewService builds the service. Tests replace it with a mock.
	NewService ServiceFactory

	logger logging.Logger
}

// New creates an Application writing to out and errWriter.
func New(out, errWriter io.Writer) *Application {
	return &Application{
		Config:     config.Default(),
		Out:        out,
		ErrWriter:  errWriter,
		NewService: DefaultService,
		logger:     logging.Nop{},
	}
}

// DefaultService builds a CalculatorService over the default engine registry.
func DefaultService(cfg config.AppConfig, logger logging.Logger) service.Service {
	return service.NewCalculatorService(
		service.DefaultRegistry(cfg.MaxPrimeIndex),
		service.WithBackend(cfg.Backend),
		service.WithLimits(cfg.ToLimits()),
		service.WithLogger(logger),
	)
}

// AvailableBackends returns the backend names registered for any sequence.
func AvailableBackends() []string {
	r := service.DefaultRegistry(0)
	var names []string
	for _, kind := range []sequence.Kind{sequence.Fibonacci, sequence.Factorial, sequence.Prime} {
		for _, name := range r.Backends(kind) {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names
}

// exitCodeError carries a non-zero exit code through cobra's error return
// once the failure has already been reported to the user.
type exitCodeError struct {
	code int
}

func (e exitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func codeError(code int) error {
	if code == apperrors.ExitSuccess {
		return nil
	}
	return exitCodeError{code: code}
}

// Run parses args and executes the selected command.
//
// Parameters:
//   - ctx: The parent context.
//   - args: The command-line arguments, without the program name.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, args []string) int {
	root := a.NewRootCommand()
	root.SetArgs(args)
	root.SetOut(a.Out)
	root.SetErr(a.ErrWriter)
	return a.exitCode(root.ExecuteContext(ctx))
}

func (a *Application) exitCode(err error) int {
	if err == nil {
		return apperrors.ExitSuccess
	}
	var coded exitCodeError
	if errors.As(err, &coded) {
		return coded.code
	}
	var (
		cfgErr   apperrors.ConfigError
		inputErr apperrors.InputError
	)
	if errors.As(err, &cfgErr) || errors.As(err, &inputErr) {
		return apperrors.HandleCalculationError(err, 0, a.ErrWriter, cli.CLIColorProvider{})
	}
	fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
	fmt.Fprintln(a.ErrWriter, "Run 'megacalc --help' for usage.")
	return apperrors.ExitErrorConfig
}

// NewRootCommand builds the command tree: the root calculation command and
// the serve, estimate, verify and version subcommands.
func (a *Application) NewRootCommand() *cobra.Command {
	a.Config = config.Default()

	root := &cobra.Command{
		Use:           "megacalc <fib|fact|prime>",
		Short:         "Exact Fibonacci numbers, factorials and primes",
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		ValidArgs:     []string{"fib", "fact", "prime"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prepare(cmd, args); err != nil {
				return err
			}
			if a.Config.ServerMode {
				return a.runServer(cmd.Context())
			}
			return a.runCalculate(cmd.Context(), cmd.OutOrStdout())
		},
	}
	a.Config.RegisterFlags(root.PersistentFlags())
	root.SetGlobalNormalizationFunc(config.NormalizeFlagName)
	root.SetVersionTemplate("megacalc {{.Version}}\n")

	defaultHelp := root.HelpFunc()
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		if cmd != root {
			defaultHelp(cmd, args)
			return
		}
		ui.InitTheme(a.Config.NoColor)
		config.WriteUsage(cmd.OutOrStdout(), cmd.UseLine(), cmd.Flags())
	})

	root.AddCommand(
		a.newServeCommand(),
		a.newEstimateCommand(),
		a.newVerifyCommand(),
		newVersionCommand(),
	)
	return root
}

func (a *Application) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (same as --server)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.prepare(cmd, nil); err != nil {
				return err
			}
			return a.runServer(cmd.Context())
		},
	}
}

func (a *Application) newEstimateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "estimate <fib|fact|prime>",
		Short:     "Forecast the run time without calculating (same as --dry-run)",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"fib", "fact", "prime"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prepare(cmd, args); err != nil {
				return err
			}
			a.Config.DryRun = true
			ctx, cancel := SetupLifecycle(cmd.Context(), a.Config.Timeout)
			defer cancel.Cleanup()
			return a.runCalculate(ctx, cmd.OutOrStdout())
		},
	}
}

func (a *Application) newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <result-file>...",
		Short: "Check saved result files against their xxh64 checksum",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.prepare(cmd, nil); err != nil {
				return err
			}
			return codeError(verifyFiles(cmd.OutOrStdout(), args))
		},
	}
}

// verifyFiles checks every path and reports one line per file.
func verifyFiles(out io.Writer, paths []string) int {
	t := ui.GetCurrentTheme()
	code := apperrors.ExitSuccess
	for _, path := range paths {
		sum, err := cli.VerifyResultFile(path)
		if err != nil {
			fmt.Fprintf(out, "%s  %s %v\n", path, t.Sprint(ui.Error, "FAILED"), err)
			code = apperrors.ExitErrorGeneric
			continue
		}
		fmt.Fprintf(out, "%s  %s (xxh64 %s)\n", path, t.Sprint(ui.Success, "OK"), sum)
	}
	return code
}

// prepare resolves the configuration layers, then sets up the theme and the
// logger. A positional argument is the sequence kind.
func (a *Application) prepare(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		a.Config.Kind = args[0]
	}
	if err := a.Config.Resolve(cmd.Flags(), AvailableBackends()); err != nil {
		return err
	}

	ui.InitTheme(a.Config.NoColor)
	zl := logging.Setup(a.ErrWriter, a.Config.LogLevel, cli.IsTerminal(a.ErrWriter))
	a.logger = logging.NewZerologAdapter(zl)
	a.logger.Debug("configuration resolved", logging.String("config", a.Config.String()))
	return nil
}

// runCalculate executes the standard CLI calculation.
func (a *Application) runCalculate(ctx context.Context, out io.Writer) error {
	req, err := a.Config.ToRequest()
	if err != nil {
		return err
	}

	ctx, stopSignals := SetupSignals(ctx)
	defer stopSignals()

	svc := a.NewService(a.Config, a.logger)
	return codeError(orchestration.Execute(ctx, svc, req, a.Config, out))
}

// runServer starts the HTTP server mode and blocks until SIGINT or SIGTERM.
func (a *Application) runServer(ctx context.Context) error {
	ctx, stopSignals := SetupSignals(ctx)
	defer stopSignals()

	srv := server.NewServer(a.NewService(a.Config, a.logger), a.Config,
		server.WithLogger(a.logger),
		server.WithVersion(Version),
	)
	if err := srv.Start(ctx); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return codeError(apperrors.ExitErrorGeneric)
	}
	return nil
}
