package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leaper-go/leaper/internal/apps"
	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/feed"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Crawl once and stream the app/icon feed as newline-delimited JSON until stopped",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		handle, stop := newHandle(ctx)
		defer stop()

		snap, err := feed.Snapshot(ctx, store)
		if err != nil {
			return fmt.Errorf("initial snapshot: %w", err)
		}
		enc := json.NewEncoder(os.Stdout)
		for _, a := range snap {
			if err := enc.Encode(a); err != nil {
				return err
			}
		}

		lf := feed.Live(ctx, store)
		defer lf.Close()

		g, gctx := errgroup.WithContext(handle.Context())
		g.Go(func() error {
			fs := osfs.New("/")
			return apps.Search(gctx, handle, fs, store)
		})
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case u, ok := <-lf.Updates():
					if !ok {
						return nil
					}
					if err := enc.Encode(u.App); err != nil {
						return err
					}
				}
			}
		})

		if err := g.Wait(); err != nil && !errors.Is(err, control.ErrInterruptedByParent) {
			return err
		}
		return nil
	},
}
