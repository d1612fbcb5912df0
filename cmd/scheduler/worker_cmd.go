package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func workerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "worker <intake|confirmation|reminder|all>",
		Short:     "Consume a pipeline queue",
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(append([]string{}, stageNames...), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			once, _ := cmd.Flags().GetBool("once")
			return runWorkers(args[0], once)
		},
	}
	cmd.Flags().Bool("once", false, "Process a single batch per stage and exit")
	return cmd
}

func runWorkers(name string, once bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	names := []string{name}
	if name == "all" {
		names = stageNames
	}

	workers, err := a.workers(names)
	if err != nil {
		return err
	}

	if once {
		for _, w := range workers {
			if _, err := w.RunOnce(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range workers {
		w := w
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}
