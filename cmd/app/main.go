package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/cockroachdb/errors"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/mosaic/internal"
	"github.com/starford/mosaic/internal/apperr"
	pkgconfig "github.com/starford/mosaic/pkg/config"
)

var version = "dev"

func options(cmd *cli.Command) ([]internal.Option, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func publish(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}

	res, err := internal.Publish(ctx, opts...)
	switch {
	case errors.Is(err, apperr.ErrPublishFatal):
		return cli.Exit(fmt.Sprintf("publish: %v", err), 1)
	case errors.Is(err, apperr.ErrDownloadFailed):
		return cli.Exit(fmt.Sprintf("publish: %v", err), 2)
	case err != nil:
		return fmt.Errorf("publish: %w", err)
	}
	return printJSON(res)
}

func history(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}

	runs, err := internal.History(ctx, int(cmd.Int("limit")), opts...)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	return printJSON(runs)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, opts...)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	cmd := &cli.Command{
		Name:    "mosaic",
		Usage:   "Daily picture-post dataset publisher with calendar navigation",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, dataset watcher and publish scheduler",
				Action: serve,
			},
			{
				Name:   "publish",
				Usage:  "Download the upstream dataset once and swap it into place",
				Action: publish,
			},
			{
				Name:  "history",
				Usage: "Print recent publish runs from the journal",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs",
						Value: 20,
					},
				},
				Action: history,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the query tools over MCP stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
