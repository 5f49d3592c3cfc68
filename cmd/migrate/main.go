package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"telegram-channel-bot/internal/config"
	pg "telegram-channel-bot/internal/infra/db/postgres"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	steps := flag.Int("steps", 1, "migrations to roll back with down")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate [-config path] [-steps n] up|down\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	switch flag.Arg(0) {
	case "up":
		err = pg.MigrateUp(cfg.Database.URL)
	case "down":
		err = pg.MigrateDown(cfg.Database.URL, *steps)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("migrate %s: %v", flag.Arg(0), err)
	}
	fmt.Printf("migrate %s: ok\n", flag.Arg(0))
}
