package main

// Issue admission tokens against the configured store:
//   go run ./cmd/tokenctl -token 11240001 [-expires 2026-12-31T00:00:00Z]

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"interview-backend/internal/bootstrap"
	"interview-backend/internal/shared/config"
	"interview-backend/internal/tokens"
)

func main() {
	var (
		value   = flag.String("token", "", "token value (1124 followed by four digits)")
		expires = flag.String("expires", "", "optional RFC3339 expiry")
	)
	flag.Parse()

	code, err := tokens.ParseCode(*value)
	if err != nil {
		log.Printf("invalid token: %v", err)
		os.Exit(1)
	}

	var expiresAt *time.Time
	if *expires != "" {
		t, err := time.Parse(time.RFC3339, *expires)
		if err != nil {
			log.Printf("invalid -expires: %v", err)
			os.Exit(1)
		}
		expiresAt = &t
	}

	app, err := bootstrap.Build(config.Load())
	if err != nil {
		log.Printf("bootstrap: %v", err)
		os.Exit(1)
	}
	if app.DB != nil {
		defer app.DB.Close()
	}

	rec, err := app.Tokens.Issue(context.Background(), code, expiresAt)
	if err != nil {
		log.Printf("issue token: %v", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(rec, "", "  ")
	fmt.Println(string(out))
}
