// Command seed creates an admin account in the configured user store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ayush/credential-service/internal/auth"
	"github.com/ayush/credential-service/internal/config"
	"github.com/ayush/credential-service/internal/logging"
	"github.com/ayush/credential-service/internal/store"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if err := run(*username, *email, *password); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(username, email, password string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)
	ctx := context.Background()

	users, closeStore, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(ctx)

	codec, err := auth.NewPasswordCodec(cfg.PasswordScheme)
	if err != nil {
		return err
	}

	u, created, err := auth.NewService(users, codec, logger).SeedAdmin(ctx, username, email, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("created admin %s (%s)\n", u.Username, u.ID)
	} else {
		fmt.Printf("user %s already exists (%s, role %s)\n", u.Username, u.ID, u.Role)
	}
	return nil
}
