package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	gometabox "github.com/goliatone/go-metabox"
	"github.com/goliatone/go-metabox/internal/config"
	"github.com/goliatone/go-metabox/pkg/orchestrator"
	"github.com/goliatone/go-metabox/pkg/security"
	"github.com/goliatone/go-metabox/pkg/storage"
	"github.com/goliatone/go-metabox/pkg/storage/memory"
	"github.com/goliatone/go-metabox/pkg/storage/sqlite"
)

// app is what PersistentPreRunE assembles for every subcommand.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	store   storage.Store
	user    security.User
	runtime *orchestrator.Runtime
}

// flags override the environment when set.
type flags struct {
	addr        string
	db          string
	definitions string
	logLevel    string
	role        string
}

func newRootCmd() *cobra.Command {
	var (
		f flags
		a = &app{}
	)

	root := &cobra.Command{
		Use:           "metabox",
		Short:         "Meta boxes for posts: admin screens, terminal editing and a meta API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, f)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.db, "db", "", "sqlite database path (METABOX_DB); empty keeps data in memory")
	pf.StringVar(&f.definitions, "definitions", "", "directory of box definitions (METABOX_DEFINITIONS)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (METABOX_LOG_LEVEL)")
	pf.StringVar(&f.role, "role", "", "role of the signed-in user (METABOX_USER_ROLE)")

	serve := newServeCmd(a)
	serve.Flags().StringVar(&f.addr, "addr", "", "listen address (METABOX_ADDR)")

	root.AddCommand(serve, newEditCmd(a), newSchemaCmd(a), newBoxesCmd(a), newPostsCmd(a))
	return root
}

// init loads configuration and builds the runtime. On error anything it
// opened is released, since cobra skips PersistentPostRun in that case.
func (a *app) init(cmd *cobra.Command, f flags) (err error) {
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	changed := cmd.Flags().Changed
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("db") {
		cfg.DB = f.db
	}
	if changed("definitions") {
		cfg.Definitions = f.definitions
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("role") {
		cfg.UserRole = f.role
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.logger, err = cfg.Logger(); err != nil {
		return err
	}
	if a.user, err = cfg.User(); err != nil {
		return err
	}
	nonces, err := cfg.Nonces()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if a.store, err = openStore(ctx, cfg.DB); err != nil {
		return err
	}

	definitions := gometabox.DefaultDefinitions()
	if cfg.Definitions != "" {
		if _, err := os.Stat(cfg.Definitions); err != nil {
			return fmt.Errorf("definitions: %w", err)
		}
		definitions = os.DirFS(cfg.Definitions)
	}

	a.runtime, err = gometabox.Build(ctx,
		orchestrator.WithStore(a.store),
		orchestrator.WithNonces(nonces),
		orchestrator.WithDefinitionsFS(definitions),
		orchestrator.WithLogger(a.logger))
	if err != nil {
		return err
	}
	a.logger.Debug("ready",
		zap.String("db", cfg.DB),
		zap.Int("boxes", a.runtime.Registry.Len()),
		zap.String("user", a.user.Login))
	return nil
}

// userContext runs ctx as the configured user.
func (a *app) userContext(ctx context.Context) context.Context {
	return security.WithUser(ctx, a.user)
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil && a.logger != nil {
			a.logger.Warn("close store", zap.Error(err))
		}
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// openStore opens sqlite at path, or a memory store seeded with sample
// posts when path is empty.
func openStore(ctx context.Context, path string) (storage.Store, error) {
	if path != "" {
		return sqlite.Open(ctx, path)
	}
	store := memory.New()
	samples := []storage.Post{
		{Type: "post", Title: "Hello world"},
		{Type: "page", Title: "About"},
	}
	for _, post := range samples {
		if _, err := store.CreatePost(ctx, post); err != nil && !errors.Is(err, storage.ErrAlreadyExists) {
			return nil, err
		}
	}
	return store, nil
}
