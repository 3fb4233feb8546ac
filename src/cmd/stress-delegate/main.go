package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"selection-context/src/singleinstance"
)

type stressOptions struct {
	n         int
	clipboard bool
	deadline  time.Duration
	portStart int
	portEnd   int
}

type tally struct {
	ok, busy, failed, missing int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-delegate",
		Short:         "Fire concurrent delegated retrievals at a running selctx daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := runWithOptions(cmd.Context(), *opts)
			fmt.Fprintf(cmd.OutOrStdout(), "launched=%d ok=%d busy=%d err=%d no-daemon=%d\n", opts.n, t.ok, t.busy, t.failed, t.missing)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().BoolVar(&opts.clipboard, "clipboard", false, "ask the daemon to deliver to the clipboard")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")
	cmd.Flags().IntVar(&opts.portStart, "port-start", singleinstance.DefaultPortStart, "first port to scan")
	cmd.Flags().IntVar(&opts.portEnd, "port-end", singleinstance.DefaultPortEnd, "last port to scan")

	return cmd
}

func runWithOptions(ctx context.Context, opts stressOptions) tally {
	if ctx == nil {
		ctx = context.Background()
	}
	var (
		wg sync.WaitGroup
		t  tally
	)
	client := singleinstance.NewClient(singleinstance.PortRange{Start: opts.portStart, End: opts.portEnd})
	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := context.WithTimeout(ctx, opts.deadline)
			defer cancel()
			delegated, _, err := client.TryGet(cctx, singleinstance.Request{ToClipboard: opts.clipboard})
			var re *singleinstance.RemoteError
			switch {
			case !delegated:
				atomic.AddInt32(&t.missing, 1)
			case errors.As(err, &re) && re.Kind == "busy":
				atomic.AddInt32(&t.busy, 1)
			case err != nil:
				atomic.AddInt32(&t.failed, 1)
			default:
				atomic.AddInt32(&t.ok, 1)
			}
		}()
	}
	wg.Wait()
	fmt.Fprintf(os.Stderr, "elapsed=%s\n", time.Since(start))
	return t
}
