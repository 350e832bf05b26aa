package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"

	"github.com/leaper-go/leaper/internal/control"
	"github.com/leaper-go/leaper/internal/schema"
	"github.com/leaper-go/leaper/internal/storage"
)

var dataDir string

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "per-user data directory (default: XDG data home)")
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(serveCmd)
}

var rootCmd = &cobra.Command{
	Use:   "leaperd",
	Short: "Indexing and discovery core for the leaper launcher",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	return xdg.DataHome
}

// openStore opens the single on-disk store (see DESIGN.md's database
// layout decision) and installs the entity/relation schema.
func openStore(ctx context.Context) (*storage.Store, error) {
	s, err := storage.Open(ctx, resolveDataDir(), "leaper", "apps")
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := schema.Install(ctx, s); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("install schema: %w", err)
	}
	return s, nil
}

// newHandle wires a control.Handle to SIGINT/SIGTERM: the UI sends a
// single stop signal and every task drains and returns. The returned
// stop func releases the signal subscription.
func newHandle(ctx context.Context) (*control.Handle, func()) {
	handle := control.New(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-sig:
			fmt.Fprintln(os.Stderr, "\nstopping...")
			handle.Stop()
		case <-done:
		}
	}()

	return handle, func() {
		close(done)
		signal.Stop(sig)
	}
}
