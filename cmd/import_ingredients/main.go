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

type ingredientRecord struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

func main() {
	file := flag.String("file", "data/ingredients.json", "JSON file with [{name, measurement_unit}] records")
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

	f, err := os.Open(*file)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open ingredients file")
	}
	defer f.Close()

	created, total, err := importIngredients(context.Background(), service.NewCatalogService(db), f)
	if err != nil {
		logging.Fatal().Err(err).Msg("ingredients import failed")
	}
	logging.Info().Int("created", created).Int("total", total).Msg("ingredients imported")
}

// importIngredients get-or-creates every record. It stops at the first bad one.
func importIngredients(ctx context.Context, catalog *service.CatalogService, r io.Reader) (created, total int, err error) {
	var records []ingredientRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return 0, 0, fmt.Errorf("failed to decode ingredients: %w", err)
	}

	for i, rec := range records {
		isNew, err := catalog.ImportIngredient(ctx, rec.Name, rec.MeasurementUnit)
		if err != nil {
			return created, i, fmt.Errorf("record %d: %w", i, err)
		}
		if isNew {
			created++
		}
	}
	return created, len(records), nil
}
