package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"selection-context/src/engine"
	"selection-context/src/hotkey"
	"selection-context/src/runtimeinit"
	"selection-context/src/session"
	"selection-context/src/singleinstance"
	"selection-context/src/worker"
)

func newDaemonCmd(a *app, opts *cliOptions) *cobra.Command {
	var noHotkey bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Stay resident, answer delegated requests and listen for the hotkey",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runDaemon(cmd.Context(), *opts, !noHotkey)
		},
	}
	cmd.Flags().BoolVar(&noHotkey, "no-hotkey", false, "Do not register the global hotkey")
	return cmd
}

func (a *app) runDaemon(ctx context.Context, opts cliOptions, withHotkey bool) error {
	rt, err := a.bootstrap(runtimeinit.Options{
		LoadOptions: opts.loadOptions(),
		SetupLogging: func(fileLogging bool) {
			a.setupLogging(opts, fileLogging)
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := singleinstance.NewServer(portRange(rt.Config))
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("another instance may be running: %w", err)
	}
	defer srv.Close()
	defer a.keepClipboard(rt.Config)
	fmt.Fprintf(a.stderr, "selctx daemon listening on port %d\n", srv.Port())

	pool := worker.New(rt.Engine)
	defer pool.Close()

	if withHotkey {
		go func() {
			err := hotkey.Listen(ctx, rt.Config.Hotkey, func() {
				a.onHotkey(ctx, pool, rt, opts)
			})
			if err != nil && ctx.Err() == nil {
				log.Printf("hotkey listener stopped: %v", err)
			}
		}()
	}

	for {
		conn, err := srv.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("daemon shutting down")
				return nil
			}
			return err
		}
		a.serve(ctx, pool, rt, opts, conn)
	}
}

func (a *app) serve(ctx context.Context, pool *worker.Pool, rt *runtimeinit.Runtime, opts cliOptions, conn singleinstance.Conn) {
	target := session.DelegatedTarget{Conn: conn, ToClipboard: conn.Request().ToClipboard}
	if rt.Caps != nil && rt.Caps.Clipboard != nil {
		target.Clipboard = rt.Caps.Clipboard
	}
	jobCtx, cancel := context.WithTimeout(ctx, jobDeadline(opts, rt))
	ok := pool.Submit(jobCtx, func(res engine.Result, err error) {
		defer cancel()
		defer conn.Close()
		if err != nil {
			_ = target.OnFailure(err)
			return
		}
		if err := target.OnSuccess(res); err != nil {
			_ = target.OnFailure(err)
		}
	})
	if !ok {
		cancel()
		log.Printf("daemon: busy, rejecting request")
		_ = conn.RespondError("busy", "a retrieval is already in progress")
		_ = conn.Close()
	}
}

func (a *app) onHotkey(ctx context.Context, pool *worker.Pool, rt *runtimeinit.Runtime, opts cliOptions) {
	var target session.ResultTarget = session.LogTarget{Logf: log.Printf}
	if opts.toClipboard && rt.Caps != nil && rt.Caps.Clipboard != nil {
		target = session.ClipboardTarget{Clipboard: rt.Caps.Clipboard}
	}
	jobCtx, cancel := context.WithTimeout(ctx, jobDeadline(opts, rt))
	ok := pool.Submit(jobCtx, func(res engine.Result, err error) {
		defer cancel()
		if err != nil {
			_ = target.OnFailure(err)
			return
		}
		if err := target.OnSuccess(res); err != nil {
			_ = target.OnFailure(err)
		}
	})
	if !ok {
		cancel()
		log.Printf("daemon: hotkey ignored, a retrieval is already in progress")
	}
}

func jobDeadline(opts cliOptions, rt *runtimeinit.Runtime) time.Duration {
	if opts.timeout > 0 {
		return opts.timeout
	}
	return rt.Engine.Budget()
}
