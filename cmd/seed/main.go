package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"bonus-promotion-service/internal/config"
	"bonus-promotion-service/internal/storage"
)

type seedFile struct {
	Promotions []struct {
		ID     string `yaml:"id"`
		Name   string `yaml:"name"`
		Kind   string `yaml:"kind"`
		Status string `yaml:"status"`
	} `yaml:"promotions"`
}

// seed loads promotion definitions from a YAML file into the catalog and
// notifies running instances to refresh.
func main() {
	file := flag.String("file", "configs/promotions.yaml", "promotion definitions file")
	flag.Parse()

	cfg := config.Load()
	config.SetupLogging(cfg.Server.LogLevel)

	rows, err := loadSeed(*file)
	if err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("load seed file")
	}

	ctx := context.Background()
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init storage")
	}
	defer store.Close()

	channel := cfg.Listener.Channel
	if channel == "" {
		channel = store.ListenChannel()
	}
	if err := store.UpsertPromotions(ctx, channel, rows); err != nil {
		log.Fatal().Err(err).Msg("upsert promotions")
	}
	log.Info().Int("promotions", len(rows)).Msg("catalog seeded")
}

func loadSeed(path string) ([]storage.PromotionRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sf seedFile
	if err := yaml.NewDecoder(f).Decode(&sf); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	rows := make([]storage.PromotionRow, 0, len(sf.Promotions))
	for i, p := range sf.Promotions {
		if p.ID == "" {
			return nil, fmt.Errorf("promotion %d: missing id", i)
		}
		kind := strings.ToUpper(p.Kind)
		if kind != storage.KindList && kind != storage.KindRule {
			return nil, fmt.Errorf("promotion %s: kind must be LIST or RULE", p.ID)
		}
		status := strings.ToUpper(p.Status)
		if status == "" {
			status = "ACTIVE"
		}
		rows = append(rows, storage.PromotionRow{ID: p.ID, Name: p.Name, Kind: kind, Status: status})
	}
	return rows, nil
}
