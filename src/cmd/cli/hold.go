package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"selection-context/src/clipboard"
	"selection-context/src/config"
)

const (
	holdReady        = "READY"
	holdStartTimeout = 2 * time.Second
)

// newHoldCmd is the holder side of a clipboard handoff. It reads a snapshot
// from stdin, puts it on the clipboard, prints READY and keeps serving the
// content until another application replaces it.
func newHoldCmd(a *app) *cobra.Command {
	var limit time.Duration
	cmd := &cobra.Command{
		Use:    "hold",
		Short:  "Keep clipboard content from stdin alive until it is replaced",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := clipboard.DecodeSnapshot(a.stdin)
			if err != nil {
				return err
			}
			err = clipboard.Hold(cmd.Context(), s, limit, func() {
				fmt.Fprintln(a.stdout, holdReady)
			})
			if errors.Is(err, clipboard.ErrHoldExpired) || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&limit, "max", config.DefaultClipboardHold, "Stop holding after this long")
	return cmd
}

// spawnHolder starts a detached "selctx hold", streams s to it and returns
// once the holder owns the clipboard.
func spawnHolder(s clipboard.Snapshot, limit time.Duration) error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, "hold", "--max", limit.String())
	detach(cmd)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start holder: %w", err)
	}

	ready := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(stdout).ReadString('\n')
		if err == nil && strings.TrimSpace(line) != holdReady {
			err = fmt.Errorf("unexpected holder reply %q", line)
		}
		ready <- err
	}()

	if err := clipboard.EncodeSnapshot(stdin, s); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("send snapshot: %w", err)
	}
	_ = stdin.Close()

	select {
	case err := <-ready:
		if err != nil {
			_ = cmd.Process.Kill()
			return fmt.Errorf("holder: %w", err)
		}
	case <-time.After(holdStartTimeout):
		_ = cmd.Process.Kill()
		return errors.New("holder did not take the clipboard in time")
	}
	return cmd.Process.Release()
}
