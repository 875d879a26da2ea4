// Command owner-token prints a signed owner token for the dashboard API.
//
// Usage: owner-token [-subject owner] [-ttl 24h]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/salon-dashboard/internal/http/middleware"
)

func main() {
	_ = godotenv.Load()
	if err := run(os.Args[1:], os.Getenv("OWNER_JWT_SECRET"), os.Stdout, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, secret string, out io.Writer, now time.Time) error {
	fs := flag.NewFlagSet("owner-token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("subject", "owner", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if secret == "" {
		return fmt.Errorf("OWNER_JWT_SECRET environment variable not set")
	}
	if *ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	token, err := middleware.SignOwnerToken(secret, *subject, *ttl, now)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
