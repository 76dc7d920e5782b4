// Package main provides a CLI for schema migrations.
// Usage: migrate up
//        migrate down
//        migrate status
//        migrate sequences
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/joho/godotenv"

	"smartsewing/internal/infrastructure/storage/postgres"
	"smartsewing/pkg/config"
)

const migrationsDir = "db/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		fail("load config: %v", err)
	}
	if cfg.StorageDriver != config.DriverPostgres {
		fail("migrations need STORAGE_DRIVER=postgres, got %q", cfg.StorageDriver)
	}

	switch os.Args[1] {
	case "up", "down", "status", "redo", "version":
		goose(cfg.DatabaseURL, os.Args[1])
	case "sequences":
		listSequences(cfg.DatabaseURL)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`smartsewing migration CLI

Usage:
  migrate <command>

Commands:
  up         Apply all pending migrations
  down       Roll back the last migration
  redo       Roll back and re-apply the last migration
  status     Show applied and pending migrations
  version    Print the current schema version
  sequences  Print document number sequences
  help       Show this help

Environment:
  DATABASE_URL  PostgreSQL connection string (required)
  CONFIG_FILE   Optional env file read before the environment`)
}

// goose runs the goose CLI against db/migrations.
func goose(dsn, command string) {
	cmd := exec.Command("goose", "-dir", migrationsDir, "postgres", dsn, command)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fail("goose %s: %v", command, err)
	}
}

func listSequences(dsn string) {
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		fail("connect: %v", err)
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, "SELECT key, current_val FROM sys_sequences ORDER BY key")
	if err != nil {
		fail("query sequences: %v", err)
	}
	defer rows.Close()

	fmt.Printf("%-24s %s\n", "KEY", "CURRENT")
	for rows.Next() {
		var (
			key string
			val int64
		)
		if err := rows.Scan(&key, &val); err != nil {
			fail("scan sequence: %v", err)
		}
		fmt.Printf("%-24s %d\n", key, val)
	}
	if err := rows.Err(); err != nil {
		fail("read sequences: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
