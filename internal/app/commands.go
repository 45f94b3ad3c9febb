package app

import (
	"context"

	"github.com/dshills/docfold/internal/command"
)

const builtinSource = "builtin"

// registerCommands registers the built-in commands. Each acts on the
// active document; with none focused they do nothing.
func (app *Application) registerCommands() error {
	builtins := []command.Command{
		{
			Name:  command.FoldJSDoc,
			Title: "Fold JSDoc Comments",
			Run: func(ctx context.Context) error {
				_, err := app.engine.FoldCommand(ctx, app.activeDocument())
				return err
			},
		},
		{
			Name:  command.UnfoldAll,
			Title: "Unfold All",
			Run: func(ctx context.Context) error {
				return app.engine.UnfoldAll(ctx, app.activeDocument())
			},
		},
		{
			Name:  command.UnfoldClasses,
			Title: "Unfold Classes",
			Run: func(ctx context.Context) error {
				_, err := app.engine.UnfoldClasses(ctx, app.activeDocument())
				return err
			},
		},
	}

	for _, cmd := range builtins {
		cmd.Source = builtinSource
		if err := app.commands.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}
