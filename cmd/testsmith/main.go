package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"testsmith/internal/config"
	"testsmith/internal/llm"
	llmclient "testsmith/internal/llmClient"
	"testsmith/internal/logging"
	"testsmith/internal/ui"
)

// exitError ends the process with code after its message, if any, is printed.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string { return e.msg }

// app carries per-invocation state shared by the subcommands.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// global flags
	configFile string
	provider   string
	model      string
	verbose    bool
	logJSON    bool
	logFile    string

	cfg      *config.Config
	logger   *zap.Logger
	progress ui.Progress

	// newClient is swapped out in tests.
	newClient func(ctx context.Context, cfg llmclient.Config) (llmclient.Client, error)
	// progressFor picks the reporter; Console on a terminal-aware stdout by default.
	progressFor func(w io.Writer) ui.Progress
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		newClient: llmclient.New,
		progressFor: func(w io.Writer) ui.Progress {
			if f, ok := w.(*os.File); ok {
				return ui.NewConsole(f)
			}
			return ui.NewConsoleWriter(w, false)
		},
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "testsmith",
		Short: "Generate, review and audit Python code with a language model",
		Long: `testsmith extracts the public functions of Python files and asks a
language model (Gemini or any OpenAI-compatible endpoint) to write pytest
cases for them. It also reviews diffs, reports dead code and gates on
test coverage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lo := logging.Options{Verbose: a.verbose, JSON: a.logJSON}
			if a.logFile != "" {
				lo.OutputPaths = []string{a.logFile}
			}
			logger, err := logging.New(lo)
			if err != nil {
				return err
			}
			a.logger = logger

			cfg, err := config.Load(config.LoadOptions{ConfigFile: a.configFile})
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("provider") {
				cfg.SetProvider(a.provider)
			}
			if cmd.Flags().Changed("model") {
				cfg.Model = a.model
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.progress = a.progressFor(a.stdout)
			a.logger.Debug("configuration loaded",
				zap.String("command", cmd.Name()),
				zap.String("provider", cfg.Provider),
				zap.String("model", cfg.Model))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default "+config.DefaultConfigFile+")")
	pf.StringVar(&a.provider, "provider", "", "generation provider: gemini or openai")
	pf.StringVar(&a.model, "model", "", "model id")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	pf.BoolVar(&a.logJSON, "log-json", false, "emit logs as JSON")
	pf.StringVar(&a.logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(a.genCmd(), a.reviewCmd(), a.staleCmd(), a.coverageCmd(), a.modelsCmd())
	return root
}

// client connects to the configured provider. It fails with
// config.ErrMissingCredential before any network or file access.
func (a *app) client(ctx context.Context) (llmclient.Client, error) {
	cc, err := a.cfg.ClientConfig()
	if err != nil {
		return nil, err
	}
	return a.newClient(ctx, cc)
}

// generator layers rate limiting, logging and retry over c.
func (a *app) generator(c llmclient.Client) llm.Generator {
	wrapped := llm.Wrap(c,
		llm.RateLimit(a.cfg.RPS, a.cfg.Burst),
		llm.WithLogging(a.logger),
	)
	return &llm.Retrier{
		Client:       wrapped,
		MaxAttempts:  a.cfg.MaxRetries,
		InitialDelay: a.cfg.InitialDelay,
		Logger:       a.logger,
	}
}

// execute runs one invocation and maps its error to a process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			if ee.msg != "" {
				fmt.Fprintln(a.stderr, ee.msg)
			}
			return ee.code
		}
		fmt.Fprintln(a.stderr, "error:", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := newApp(os.Stdin, os.Stdout, os.Stderr).execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
