package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/dbgrant/cmd/app/commands"
	"github.com/allisson/dbgrant/internal/app"
	"github.com/allisson/dbgrant/internal/config"
)

func getRuleCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "set-rule",
			Usage: "Write an allow or deny rule directly, bypassing ruler scoping",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Requester email the rule covers",
				},
				&cli.StringFlag{
					Name:     "host",
					Required: true,
					Usage:    "Database host the rule covers",
				},
				&cli.StringFlag{
					Name:     "db",
					Required: true,
					Usage:    "Database name the rule covers",
				},
				&cli.StringFlag{
					Name:    "role",
					Aliases: []string{"r"},
					Value:   "read",
					Usage:   "Access role: 'read' or 'readWrite'",
				},
				&cli.StringFlag{
					Name:    "which",
					Aliases: []string{"w"},
					Value:   "allow",
					Usage:   "Rule kind: 'allow' or 'deny'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ruleUseCase, err := container.RuleUseCase()
				if err != nil {
					return err
				}

				return commands.RunSetRule(
					ctx,
					ruleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("host"),
					cmd.String("db"),
					cmd.String("role"),
					cmd.String("which"),
				)
			},
		},
		{
			Name:  "create-ruler",
			Usage: "Register an admin email that may set rules over the API",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "email",
					Aliases:  []string{"e"},
					Required: true,
					Usage:    "Admin email",
				},
				&cli.StringFlag{
					Name:  "hosts",
					Value: "all",
					Usage: "Comma-separated hosts the ruler may cover, or 'all'",
				},
				&cli.StringFlag{
					Name:  "dbs",
					Value: "all",
					Usage: "Comma-separated database-name prefixes, or 'all'",
				},
				&cli.StringFlag{
					Name:  "emails",
					Value: "all",
					Usage: "Comma-separated email suffixes, or 'all'",
				},
				&cli.StringFlag{
					Name:  "which",
					Value: "all",
					Usage: "Rule kinds the ruler may set: 'allow', 'deny', or 'all'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				ruleUseCase, err := container.RuleUseCase()
				if err != nil {
					return err
				}

				return commands.RunCreateRuler(
					ctx,
					ruleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("email"),
					cmd.String("hosts"),
					cmd.String("dbs"),
					cmd.String("emails"),
					cmd.String("which"),
				)
			},
		},
	}
}
