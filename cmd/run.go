package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/NamanBalaji/vidloader/internal/cli/components"
	"github.com/NamanBalaji/vidloader/internal/item"
	"github.com/NamanBalaji/vidloader/internal/logger"
)

const listWidth = 80

// runUntilDone drains the relay until every listed item settles or the user
// interrupts, then prints the final records.
func runUntilDone(ctx context.Context, ids ...string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	runCtx, cancelRun := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		return a.engine.Run(gctx)
	})

	var records []item.Record
	g.Go(func() error {
		defer cancelRun()

		var err error
		records, err = a.engine.Wait(gctx, ids...)
		if err != nil && ctx.Err() != nil {
			// Interrupted: leave running items for a later resume.
			suspendAll(ids)
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	printRecords(records)
	return nil
}

// suspendAll suspends running items. Items in any other state cannot be
// suspended and are left as they are.
func suspendAll(ids []string) {
	for _, id := range ids {
		if err := a.engine.Suspend(id); err != nil {
			logger.Warnf("Could not suspend %s on interrupt: %v", id, err)
		}
	}
}

func printRecords(records []item.Record) {
	for _, rec := range records {
		fmt.Println(components.Item(rec, listWidth))
	}
}
