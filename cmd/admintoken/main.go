// Command admintoken prints a bearer token for the admin HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"telegram-channel-bot/internal/config"
	httpapi "telegram-channel-bot/internal/infra/http"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	cfg, err := config.Load(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	am := httpapi.NewAuthManager(cfg.HTTP.AdminJWTSecret, *ttl)
	if !am.Enabled() {
		log.Fatal("http.admin_jwt_secret (ADMIN_JWT_SECRET) is not set")
	}
	tok, err := am.Mint(*subject)
	if err != nil {
		log.Fatalf("mint: %v", err)
	}
	fmt.Println(tok)
}
