package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/seopress/internal"
	pkgconfig "github.com/starford/seopress/pkg/config"
)

// loadConfig reads the config file (if present) and applies flag and
// environment overrides on top of it.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("openai-api-key") {
		cfg.AI.APIKey = cmd.String("openai-api-key")
	}
	if cmd.IsSet("daily-keyword") {
		cfg.Scheduler.Keyword = cmd.String("daily-keyword")
	}
	if cmd.IsSet("daily-time") {
		cfg.Scheduler.Time = cmd.String("daily-time")
	}
	if cmd.IsSet("timezone") {
		cfg.Scheduler.Timezone = cmd.String("timezone")
	}
	if cmd.IsSet("debug") {
		cfg.App.Debug = cmd.Bool("debug")
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("affiliate-base-url") {
		cfg.Affiliate.BaseURL = cmd.String("affiliate-base-url")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func generate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Generate(ctx, cmd.String("keyword"), cmd.Bool("save"),
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}

	out := map[string]any{
		"keyword":          res.Keyword,
		"title":            res.Content.Title,
		"meta_description": res.Content.MetaDescription,
		"source":           res.Source,
		"reason":           res.Reason,
		"word_count":       res.Content.WordCount,
		"html":             res.HTML,
	}
	if res.Artifact != nil {
		out["artifact"] = res.Artifact.Summary()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg))
}

func main() {
	cmd := &cli.Command{
		Name:   "seopress",
		Usage:  "Affiliate blog post generator with a daily schedule",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "openai-api-key",
				Usage:   "AI backend credential; empty means fallback content only",
				Sources: cli.EnvVars("OPENAI_API_KEY"),
			},
			&cli.StringFlag{
				Name:    "daily-keyword",
				Usage:   "Keyword for the daily post",
				Sources: cli.EnvVars("DAILY_KEYWORD"),
			},
			&cli.StringFlag{
				Name:    "daily-time",
				Usage:   "Daily fire time, HH:MM",
				Sources: cli.EnvVars("DAILY_TIME"),
			},
			&cli.StringFlag{
				Name:    "timezone",
				Usage:   "IANA timezone for the daily schedule and ids",
				Sources: cli.EnvVars("DAILY_TIMEZONE"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
			&cli.IntFlag{
				Name:    "port",
				Usage:   "HTTP listen port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "affiliate-base-url",
				Usage:   "Affiliate URL template containing {index}",
				Sources: cli.EnvVars("AFFILIATE_BASE_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API and the daily scheduler (default)",
				Action: serve,
			},
			{
				Name:   "generate",
				Usage:  "Generate one post and print it as JSON",
				Action: generate,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "keyword",
						Aliases:  []string{"k"},
						Usage:    "Target keyword",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Persist the post as a manual artifact",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server over stdio",
				Action: serveMCP,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
