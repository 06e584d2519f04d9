// tokengen mints a development bearer token for the dashboard API.
//
//	go run ./cmd/tokengen -user finance-ops -expiry 24h
package main

import (
	"flag"
	"fmt"
	stdlog "log"
	"time"

	"github.com/username/moneydesk/backend/src/config"
	"github.com/username/moneydesk/backend/src/security"
)

func main() {
	userID := flag.String("user", "dev", "user id to embed in the token's sub claim")
	expiry := flag.Duration("expiry", 24*time.Hour, "token lifetime")
	flag.Parse()

	config.LoadConfig()

	authService := security.NewAuthService(config.Cfg.JWTSecret, *expiry)
	token, err := authService.GenerateToken(*userID)
	if err != nil {
		stdlog.Fatalf("failed to generate token: %v", err)
	}
	fmt.Println(token)
}
