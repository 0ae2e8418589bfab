// Package main provides the end-user CLI for requesting and using
// database credentials from a broker.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/allisson/dbgrant/internal/client"
)

func newClient() (*client.Client, error) {
	path, err := client.DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return client.NewClient(path, logger), nil
}

func main() {
	cmd := &cli.Command{
		Name:    "dbgrant",
		Usage:   "Request and use database credentials from a broker",
		Version: "1.0.0",
		Commands: []*cli.Command{
			{
				Name:      "init",
				Usage:     "Request a one-time link to retrieve a fetch token",
				ArgsUsage: "EMAIL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "endpoint",
						Required: true,
						Usage:    "Broker endpoint URL",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					email := cmd.Args().First()
					if email == "" {
						return fmt.Errorf("email argument is required")
					}

					c, err := newClient()
					if err != nil {
						return err
					}
					message, err := c.RequestLink(ctx, cmd.String("endpoint"), email)
					if err != nil {
						return err
					}
					fmt.Println(message)
					fmt.Println("Copy the fetch token from the link and run `dbgrant settoken`.")
					return nil
				},
			},
			{
				Name:      "settoken",
				Usage:     "Store a fetch token for a broker endpoint",
				ArgsUsage: "TOKEN",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "endpoint",
						Required: true,
						Usage:    "Broker endpoint URL",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					token := cmd.Args().First()
					if token == "" {
						return fmt.Errorf("token argument is required")
					}

					c, err := newClient()
					if err != nil {
						return err
					}
					if err := c.SetRemote(cmd.String("endpoint"), token); err != nil {
						return err
					}
					fmt.Println("Token stored. Tokens expire; run `dbgrant init` to request a fresh one.")
					fmt.Println("Run `dbgrant db` to get credentials for a database.")
					return nil
				},
			},
			{
				Name:      "alias",
				Usage:     "Store a nickname for a host or database name",
				ArgsUsage: "ALIAS ACTUAL",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "which",
						Value: "host",
						Usage: "Alias kind: 'host' or 'db'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					alias := cmd.Args().Get(0)
					actual := cmd.Args().Get(1)
					if alias == "" || actual == "" {
						return fmt.Errorf("alias and actual arguments are required")
					}

					c, err := newClient()
					if err != nil {
						return err
					}
					if err := c.SetAlias(alias, actual, cmd.String("which")); err != nil {
						return err
					}
					fmt.Printf("Alias stored: %s -> %s\n", alias, actual)
					return nil
				},
			},
			{
				Name:      "allow",
				Usage:     "Set an allow rule for an email (requires rule-setting authority)",
				ArgsUsage: "EMAIL",
				Flags: []cli.Flag{
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
						Name:  "role",
						Value: "read",
						Usage: "Access role: 'read' or 'readWrite' (ro/rw shorthands accepted)",
					},
					&cli.StringFlag{
						Name:  "which",
						Value: "allow",
						Usage: "Rule kind: 'allow' or 'deny'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					email := cmd.Args().First()
					if email == "" {
						return fmt.Errorf("email argument is required")
					}

					c, err := newClient()
					if err != nil {
						return err
					}
					if err := c.SetRule(ctx, email, cmd.String("host"), cmd.String("db"), cmd.String("role"), cmd.String("which")); err != nil {
						return err
					}
					fmt.Printf("Rule set: %s %s for %s on %s/%s\n",
						cmd.String("which"), cmd.String("role"), email, cmd.String("host"), cmd.String("db"))
					return nil
				},
			},
			{
				Name:      "db",
				Usage:     "Get credentials for a database and print a connection string",
				ArgsUsage: "SPEC (<role>:<host>/<db>, role accepts ro/rw)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "driver",
						Value: "postgres",
						Usage: "Connection string dialect: 'postgres' or 'mysql'",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					spec := cmd.Args().First()
					if spec == "" {
						return fmt.Errorf("spec argument is required")
					}
					role, host, db, err := client.ParseSpec(spec)
					if err != nil {
						return err
					}

					c, err := newClient()
					if err != nil {
						return err
					}
					auth, err := c.GetAuth(ctx, host, db, role)
					if err != nil {
						return err
					}
					dsn, err := client.BuildDSN(cmd.String("driver"), auth)
					if err != nil {
						return err
					}
					fmt.Println(dsn)
					return nil
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
