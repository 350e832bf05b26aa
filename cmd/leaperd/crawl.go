package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/leaper-go/leaper/internal/apps"
	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/feed"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl application and icon search roots once; print a snapshot on SIGINT/SIGTERM",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		handle, stop := newHandle(ctx)
		defer stop()

		fmt.Printf("Crawling %d app root(s), %d icon root(s)...\n", len(apps.AppRoots()), len(apps.IconRoots()))

		fs := osfs.New("/")
		if err := apps.Search(ctx, handle, fs, store); err != nil && !errors.Is(err, control.ErrInterruptedByParent) {
			return fmt.Errorf("search: %w", err)
		}

		snap, err := feed.Snapshot(ctx, store)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		fmt.Printf("Indexed %d app(s).\n", len(snap))
		for _, a := range snap {
			icon := "none"
			if a.Icon != nil {
				icon = a.Icon.Path
			}
			fmt.Printf("  %-30s icon=%s\n", a.Name, icon)
		}
		return nil
	},
}
