package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/olympiad-admin-api/internal/app"
	"github.com/noah-isme/olympiad-admin-api/pkg/config"
	"github.com/noah-isme/olympiad-admin-api/pkg/logger"
)

const (
	exitUsage      = 2
	exitValidation = 3
	exitStore      = 4
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

type rootOptions struct {
	storeDriver string
	logLevel    string
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	cmd := &cobra.Command{
		Use:           "provisionctl",
		Short:         "Provision olympiad accounts from CSV rosters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.storeDriver, "store", "", "Override STORE_DRIVER (postgres|mongo)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override LOG_LEVEL")

	cmd.AddCommand(
		newProvisionCmd(&opts),
		newLoginsCmd(&opts),
		newExportCmd(&opts),
		newTokenCmd(&opts),
	)
	return cmd
}

func loadConfig(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, withCode(exitUsage, fmt.Errorf("load config: %w", err))
	}
	switch opts.storeDriver {
	case "":
	case config.StoreDriverPostgres, config.StoreDriverMongo:
		cfg.StoreDriver = opts.storeDriver
	default:
		return nil, nil, withCode(exitUsage, fmt.Errorf("unsupported --store: %s", opts.storeDriver))
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	cfg.Log.Format = "console"
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, withCode(exitUsage, fmt.Errorf("init logger: %w", err))
	}
	return cfg, logr, nil
}

// withApp runs fn against a fully wired application and closes it afterwards.
func withApp(ctx context.Context, opts *rootOptions, fn func(*app.App) error) error {
	cfg, logr, err := loadConfig(opts)
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	a, err := app.New(ctx, cfg, logr)
	if err != nil {
		return withCode(exitStore, err)
	}
	defer a.Close(context.Background()) //nolint:errcheck

	return fn(a)
}
