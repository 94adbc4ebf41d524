package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pders01/kiosk/internal/debuglog"
	"github.com/pders01/kiosk/internal/remote"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local collection over HTTP",
		Long: `Serve exposes the local collection so other kiosks can browse it with
source.mode = "remote". Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			level := debuglog.ParseLogLevel(cfg.Log.Level)
			if level == debuglog.LevelOff {
				level = debuglog.LevelInfo
			}
			debuglog.SetOutput(level, cmd.ErrOrStderr())
			defer debuglog.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, repo, err := openLocal(ctx, cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			defer repo.Close()

			if n, err := repo.DocCount(); err == nil {
				debuglog.Infof("serving %d items from %s", n, cfg.Database.Path)
			}
			if err := remote.Serve(ctx, addr, remote.NewRouter(repo, store)); err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
