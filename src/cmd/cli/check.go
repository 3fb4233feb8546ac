package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"selection-context/src/runtimeinit"
	"selection-context/src/singleinstance"
)

func newCheckCmd(a *app, opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report accessibility permission, strategies and daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCheck(cmd.Context(), *opts)
		},
	}
}

func (a *app) runCheck(ctx context.Context, opts cliOptions) error {
	rt, err := a.bootstrap(runtimeinit.Options{
		LoadOptions: opts.loadOptions(),
		SetupLogging: func(fileLogging bool) {
			a.setupLogging(opts, fileLogging)
		},
	})
	if err != nil {
		return err
	}
	w := a.stdout
	cfg := rt.Config

	if caps := rt.Caps; caps != nil {
		if caps.Accessibility != nil {
			fmt.Fprintf(w, "accessibility:  %s (trusted: %v)\n", caps.Accessibility.Name(), caps.Accessibility.Trusted())
		}
		if caps.Windows != nil {
			if win, err := caps.Windows.ActiveWindow(); err == nil {
				fmt.Fprintf(w, "active window:  %s (pid %d) %q\n", win.AppName, win.PID, win.Title)
			} else {
				fmt.Fprintf(w, "active window:  unavailable (%v)\n", err)
			}
		}
		fmt.Fprintf(w, "clipboard:      %v\n", caps.Clipboard != nil)
		fmt.Fprintf(w, "combos:         select-all=%s copy=%s deselect=%s\n", caps.Combos.SelectAll, caps.Combos.Copy, caps.Combos.Deselect)
	}
	fmt.Fprintf(w, "strategies:     %s\n", strings.Join(rt.Engine.Strategies(), ", "))
	fmt.Fprintf(w, "tree bounds:    depth %d, %d per level\n", cfg.TreeMaxDepth, cfg.TreeMaxChildren)
	if port, ok := singleinstance.DetectResidentPort(ctx, portRange(cfg)); ok {
		fmt.Fprintf(w, "daemon:         running on port %d\n", port)
	} else {
		fmt.Fprintf(w, "daemon:         not running (ports %d-%d)\n", cfg.PortStart, cfg.PortEnd)
	}
	if cfg.EnvPath != "" {
		fmt.Fprintf(w, "env file:       %s\n", cfg.EnvPath)
	}
	return nil
}
