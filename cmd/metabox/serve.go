package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-metabox/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the post list, edit screens and meta API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv, err := server.New(ctx, server.Options{
				Host:   a.runtime.Host,
				Store:  a.store,
				User:   a.user,
				Logger: a.logger,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx, a.cfg.Addr)
		},
	}
}
