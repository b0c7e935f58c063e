package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/service"
)

type tagRecord struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}

// defaultTags is used when no file is given.
var defaultTags = []tagRecord{
	{Name: "Завтрак", Slug: "breakfast", Color: "#E26C2D"},
	{Name: "Обед", Slug: "lunch", Color: "#49B64E"},
	{Name: "Ужин", Slug: "dinner", Color: "#8775D2"},
}

func main() {
	file := flag.String("file", "", "JSON file with [{name, slug, color}] records")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.Open(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	tags := defaultTags
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to open tags file")
		}
		tags, err = readTags(f)
		f.Close()
		if err != nil {
			logging.Fatal().Err(err).Msg("failed to read tags")
		}
	}

	created, err := seedTags(context.Background(), service.NewCatalogService(db), tags)
	if err != nil {
		logging.Fatal().Err(err).Msg("seeding tags failed")
	}
	logging.Info().Int("created", created).Int("total", len(tags)).Msg("tags seeded")
}

func readTags(r io.Reader) ([]tagRecord, error) {
	var tags []tagRecord
	if err := json.NewDecoder(r).Decode(&tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	return tags, nil
}

func seedTags(ctx context.Context, catalog *service.CatalogService, tags []tagRecord) (int, error) {
	created := 0
	for _, tag := range tags {
		isNew, err := catalog.ImportTag(ctx, tag.Name, tag.Slug, tag.Color)
		if err != nil {
			return created, fmt.Errorf("tag %q: %w", tag.Slug, err)
		}
		if isNew {
			logging.Info().Str("slug", tag.Slug).Msg("created tag")
			created++
		}
	}
	return created, nil
}
