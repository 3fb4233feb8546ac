package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"selection-context/src/clipboard"
	"selection-context/src/config"
	"selection-context/src/engine"
	"selection-context/src/logutil"
	"selection-context/src/platform"
	"selection-context/src/runtimeinit"
	"selection-context/src/session"
	"selection-context/src/singleinstance"
)

const (
	exitFailure          = 1
	exitAllFailed        = 2
	exitPermissionDenied = 3
)

type cliOptions struct {
	jsonOutput  bool
	verbose     bool
	noDelegate  bool
	toClipboard bool
	timeout     time.Duration
	strategies  string
	envPath     string
}

// app holds the process edges so commands can run against fakes.
type app struct {
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
	bootstrap func(runtimeinit.Options) (*runtimeinit.Runtime, error)
	delegate  func(ctx context.Context, r singleinstance.PortRange, req singleinstance.Request) (bool, singleinstance.Response, error)

	// ownedClipboard reports content this process put on the clipboard that
	// would vanish when it exits. handOff passes it to a holder process.
	ownedClipboard func() (clipboard.Snapshot, bool)
	handOff        func(s clipboard.Snapshot, limit time.Duration) error
}

func defaultApp() *app {
	return &app{
		stdin:     os.Stdin,
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		bootstrap: runtimeinit.Bootstrap,
		delegate: func(ctx context.Context, r singleinstance.PortRange, req singleinstance.Request) (bool, singleinstance.Response, error) {
			return singleinstance.NewClient(r).TryGet(ctx, req)
		},
		ownedClipboard: func() (clipboard.Snapshot, bool) {
			if !clipboard.OwnershipEndsWithProcess {
				return clipboard.Snapshot{}, false
			}
			return clipboard.Owned()
		},
		handOff: spawnHolder,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := runWithArgs(ctx, defaultApp(), os.Args)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func runWithArgs(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		args = []string{"selctx"}
	}
	opts := &cliOptions{}
	cmd := newRootCmd(a, opts)
	cmd.SetArgs(args[1:])
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCmd(a *app, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "selctx",
		Short:         "Print the selected text of the focused application, with its surrounding context",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGet(cmd.Context(), *opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	pf.StringVar(&opts.envPath, "env", "", "Path to a .env file (highest precedence)")
	pf.DurationVar(&opts.timeout, "timeout", 0, "Deadline for one retrieval (0 sizes it from the strategy chain)")
	pf.StringVar(&opts.strategies, "strategies", "", "Comma-separated strategy chain; implies --no-delegate")

	cmd.Flags().BoolVar(&opts.noDelegate, "no-delegate", false, "Never hand the request to a running daemon")
	cmd.Flags().BoolVar(&opts.toClipboard, "to-clipboard", false, "Put the selection on the clipboard instead of printing it")

	cmd.AddCommand(newGetCmd(a, opts), newDaemonCmd(a, opts), newCheckCmd(a, opts), newHoldCmd(a))
	return cmd
}

func newGetCmd(a *app, opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Retrieve the current selection (default command)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGet(cmd.Context(), *opts)
		},
	}
	cmd.Flags().BoolVar(&opts.noDelegate, "no-delegate", false, "Never hand the request to a running daemon")
	cmd.Flags().BoolVar(&opts.toClipboard, "to-clipboard", false, "Put the selection on the clipboard instead of printing it")
	return cmd
}

func (opts cliOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{EnvPathOverride: opts.envPath, StrategiesOverride: opts.strategies}
}

func (a *app) setupLogging(opts cliOptions, fileLogging bool) {
	if opts.verbose {
		logutil.SetupVerbose(a.stderr, fileLogging)
		return
	}
	logutil.Setup(fileLogging)
}

func (a *app) runGet(ctx context.Context, opts cliOptions) error {
	cfg, err := config.LoadWithOptions(opts.loadOptions())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.setupLogging(opts, cfg.EnableFileLogging)

	deadline := retrievalDeadline(opts, cfg)
	if !opts.noDelegate && opts.strategies == "" {
		dctx, cancel := context.WithTimeout(ctx, deadline+time.Second)
		delegated, resp, err := a.delegate(dctx, portRange(cfg), singleinstance.Request{ToClipboard: opts.toClipboard})
		cancel()
		if delegated {
			log.Printf("delegated to resident daemon")
			return a.printRemote(opts, resp, err)
		}
	}

	rt, err := a.bootstrap(runtimeinit.Options{Config: cfg})
	if err != nil {
		return err
	}
	target, err := a.target(opts, rt)
	if err != nil {
		return err
	}
	_, err = session.Execute(ctx, session.Options{
		Deadline: deadline,
		Retrieve: rt.Engine.Retrieve,
		Target:   target,
	})
	a.keepClipboard(cfg)
	return err
}

// keepClipboard hands whatever this process left on the clipboard, a restored
// snapshot or a delivered result, to a holder before exit.
func (a *app) keepClipboard(cfg *config.Config) {
	if a.ownedClipboard == nil || a.handOff == nil {
		return
	}
	s, ok := a.ownedClipboard()
	if !ok {
		return
	}
	if err := a.handOff(s, cfg.ClipboardHold); err != nil {
		log.Printf("clipboard handoff failed: %v", err)
		fmt.Fprintf(a.stderr, "Warning: clipboard content is lost on exit: %v\n", err)
		return
	}
	log.Printf("clipboard handed off (%s content)", s.Format())
}

func (a *app) target(opts cliOptions, rt *runtimeinit.Runtime) (session.ResultTarget, error) {
	switch {
	case opts.toClipboard:
		if rt.Caps == nil || rt.Caps.Clipboard == nil {
			return nil, errors.New("clipboard is unavailable")
		}
		return session.ClipboardTarget{Clipboard: rt.Caps.Clipboard}, nil
	case opts.jsonOutput:
		return session.JSONTarget{Writer: a.stdout}, nil
	default:
		return session.StdoutTarget{Writer: a.stdout}, nil
	}
}

func (a *app) printRemote(opts cliOptions, resp singleinstance.Response, err error) error {
	if err != nil {
		if opts.jsonOutput {
			_ = json.NewEncoder(a.stdout).Encode(session.ErrorResponse(err))
		}
		return err
	}
	switch {
	case opts.jsonOutput:
		return json.NewEncoder(a.stdout).Encode(resp)
	case opts.toClipboard:
		return nil
	case resp.Kind == engine.KindContextOnly.String():
		_, err := fmt.Fprintln(a.stdout, resp.Context)
		return err
	default:
		_, err := fmt.Fprintln(a.stdout, resp.SelectedText)
		return err
	}
}

// retrievalDeadline is --timeout, or the time the configured chain needs.
func retrievalDeadline(opts cliOptions, cfg *config.Config) time.Duration {
	if opts.timeout > 0 {
		return opts.timeout
	}
	b, err := engine.BudgetFor(platform.EngineOptions(cfg))
	if err != nil {
		return session.DefaultDeadline
	}
	return b
}

func portRange(cfg *config.Config) singleinstance.PortRange {
	return singleinstance.PortRange{Start: cfg.PortStart, End: cfg.PortEnd}
}

// exitCode distinguishes "nothing found" and "not permitted" for scripts.
func exitCode(err error) int {
	var re *singleinstance.RemoteError
	switch {
	case errors.Is(err, engine.ErrPermissionDenied):
		return exitPermissionDenied
	case errors.Is(err, engine.ErrAllStrategiesFailed):
		return exitAllFailed
	case errors.As(err, &re) && re.Kind == engine.KindPermissionDenied.String():
		return exitPermissionDenied
	case errors.As(err, &re) && re.Kind == "all-strategies-failed":
		return exitAllFailed
	default:
		return exitFailure
	}
}
