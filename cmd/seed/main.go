package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"telegram-channel-bot/internal/config"
	"telegram-channel-bot/internal/domain/model"
	pg "telegram-channel-bot/internal/infra/db/postgres"
)

var defaultCategories = []*model.Category{
	{Name: "Eco", Subcategories: []string{"Sustainability", "Recycling", "Climate"}},
	{Name: "Health", Subcategories: []string{"Nutrition", "Fitness"}},
	{Name: "Education", Subcategories: []string{"Languages", "Science"}},
	{Name: "Technology", Subcategories: []string{"AI", "Gadgets"}},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// ---- Config ----
	cfg, err := config.Load(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect Postgres
	dbCfg := cfg.Database
	dbCfg.MaxConns = 2
	pool, err := pg.NewPgxPool(ctx, dbCfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	repo := pg.NewCategoryRepo(pool)

	// If categories already exist, do nothing
	existing, err := repo.ListAll(ctx, nil)
	if err != nil {
		log.Fatalf("list categories: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d categories already present. No changes.\n", len(existing))
		for _, c := range existing {
			fmt.Printf("  - %d %s [%s]\n", c.ID, c.Name, strings.Join(c.Subcategories, ", "))
		}
		return
	}

	for _, c := range defaultCategories {
		if err := repo.Save(ctx, nil, c); err != nil {
			log.Fatalf("save category %q: %v", c.Name, err)
		}
		fmt.Printf("seeded: %d %s [%s]\n", c.ID, c.Name, strings.Join(c.Subcategories, ", "))
	}
	fmt.Println("Seeding complete.")
}
