package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/dshills/docfold/internal/app"
	"github.com/dshills/docfold/internal/config"
	"github.com/dshills/docfold/internal/view"
)

func viewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "view [FILE...]",
		Short: "Browse files in the terminal with JSDoc blocks folded",
		Long: `Open files in an interactive terminal viewer.

Keys:
  j/k, arrows       Move the cursor
  PgUp/PgDn         Scroll a page
  g/G               Jump to the first or last line
  Tab               Next document
  za zo zc          Toggle, open or close the fold at the cursor
  zR zM             Open or close every fold
  F                 Fold JSDoc Comments
  U                 Unfold Classes
  x                 Close the document
  q                 Quit

Logs go to the file named by logging.file and are discarded otherwise.
With --config the file is watched and reloaded on change.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), flags, args)
		},
	}
}

func runView(ctx context.Context, flags *globalFlags, files []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := flags.load()
	if err != nil {
		return err
	}

	logOut, closeLog, err := openLogFile(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	logger := newLogger(cfg, logOut)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("create screen: %w", err)
	}
	v, err := view.New(screen, logger)
	if err != nil {
		return err
	}
	defer v.Close()

	a, err := app.New(app.Options{
		Config:      cfg,
		Load:        flags.loadOptions(),
		Overrides:   flags.overrides,
		WatchConfig: flags.configPath != "",
		Logger:      logger,
		Executor:    v.Executor(),
	})
	if err != nil {
		return err
	}
	defer a.Shutdown()

	if err := v.Attach(a); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, path := range files {
		if _, err := a.Open(ctx, path); err != nil {
			logger.Warn("open %s: %v", path, err)
		}
	}

	if err := v.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openLogFile returns the viewer's log destination. The terminal belongs
// to the screen, so without a log file logs are discarded.
func openLogFile(cfg *config.Config) (io.Writer, func(), error) {
	if cfg.Logging.File == "" {
		return io.Discard, func() {}, nil
	}
	f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
