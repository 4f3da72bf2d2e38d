package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pratik-mahalle/soar/internal/config"
	"github.com/pratik-mahalle/soar/internal/repository/postgres"
	"github.com/pratik-mahalle/soar/migrations"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "list pending migrations without applying them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := postgres.New(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Connected to %s database\n", cfg.Database.Driver)

	ctx := context.Background()
	if *dryRun {
		pending, err := postgres.PendingMigrations(ctx, db, migrations.GetFS())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to check migration status: %v\n", err)
			os.Exit(1)
		}
		if len(pending) == 0 {
			fmt.Println("No pending migrations")
			return
		}
		for _, name := range pending {
			fmt.Printf("Pending: %s\n", name)
		}
		return
	}

	applied, err := postgres.RunMigrations(ctx, db, migrations.GetFS())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}

	if len(applied) == 0 {
		fmt.Println("Database is up to date")
		return
	}
	for _, name := range applied {
		fmt.Printf("Applied %s\n", name)
	}
	fmt.Println("\nAll migrations completed successfully!")
}
