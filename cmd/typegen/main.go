package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/cubahno/typegen/pkg/config"
	"github.com/cubahno/typegen/pkg/graph"
	"github.com/cubahno/typegen/pkg/typedef"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: typegen <spec-file>")
		os.Exit(2)
	}
	specPath := os.Args[1]

	cfg := loadConfig()

	buildGraph := graph.NewGraphFromFileFactory(graph.Provider(cfg.Provider))
	g, err := buildGraph(specPath)
	if err != nil {
		slog.Error("loading spec", "path", specPath, "error", err)
		os.Exit(1)
	}
	slog.Info("schema graph built", "schemas", g.Len(), "provider", cfg.Provider)

	result := typedef.NewEmitter(g).EmitParallel(cfg.Concurrency)
	for name, ferr := range result.Failed {
		slog.Warn("schema not emitted", "schema", name, "error", ferr)
	}
	for _, warning := range result.Warnings() {
		slog.Warn("degraded", "warning", warning.String())
	}

	if err := write(result, cfg); err != nil {
		slog.Error("writing output", "error", err)
		os.Exit(1)
	}
	slog.Info("done", "decls", len(result.Decls), "failed", len(result.Failed))
}

func loadConfig() *config.Config {
	configPath := os.Getenv("TYPEGEN_CONFIG")
	if configPath == "" {
		return config.NewDefaultConfig()
	}

	cfg, err := config.NewConfigFromFile(configPath)
	if err != nil {
		slog.Error("loading config", "path", configPath, "error", err)
		os.Exit(1)
	}
	return cfg
}

func write(result *typedef.Result, cfg *config.Config) error {
	out := os.Stdout
	if cfg.Output != "" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	if cfg.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
