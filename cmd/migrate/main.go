package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/retrostore/retrostore-backend/pkg/config"
	"github.com/retrostore/retrostore-backend/pkg/db"
	"github.com/retrostore/retrostore-backend/pkg/logger"
	"github.com/retrostore/retrostore-backend/pkg/migrate"
)

const usage = `usage: migrate [flags] <command> [arg]

commands:
  up                 apply every pending migration
  down               roll back the latest migration
  status             print applied and pending migrations
  version            print the current database version
  pending            list migrations not yet applied
  to <version>       migrate up or down to YYYYMMDDHHMMSS
  create <name>      write an empty migration into -dir
  validate           check migration filenames and goose markers
`

func main() {
	dir := flag.String("dir", "", "migrations directory on disk (default: migrations embedded in the binary)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cmd, arg := flag.Arg(0), flag.Arg(1)
	if cmd == "" {
		flag.Usage()
		os.Exit(2)
	}

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	// create and validate work on files only.
	switch cmd {
	case "create":
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		path, err := migrate.CreateSQLMigration(target, arg)
		exitOn(err, "create migration")
		fmt.Println("created migration:", path)
		return
	case "validate":
		var err error
		if *dir == "" {
			err = migrate.ValidateEmbedded()
		} else {
			err = migrate.ValidateDir(*dir)
		}
		exitOn(err, "validate migrations")
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	exitOn(err, "load config")

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
		"cmd": cmd,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	exitOn(err, "connect database")
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	exitOn(err, "open sql database")

	run := func(command string, args ...string) error {
		if *dir == "" {
			return migrate.RunEmbedded(ctx, sqlDB, command, args...)
		}
		return migrate.Run(ctx, sqlDB, *dir, command, args...)
	}

	switch cmd {
	case "up", "down", "status", "version":
		err = run(cmd)
	case "pending":
		var current int64
		var pending []migrate.Migration
		current, pending, err = migrate.Pending(ctx, sqlDB)
		if err == nil {
			fmt.Printf("database at version %d, %d pending\n", current, len(pending))
			for _, m := range pending {
				fmt.Printf("  %d %s\n", m.Version, m.Name)
			}
		}
	case "to":
		if arg == "" {
			exitOn(fmt.Errorf("missing target version"), "migrate to")
		}
		target := *dir
		if target == "" {
			target = migrate.DefaultDir
		}
		err = migrate.MigrateToVersion(ctx, sqlDB, target, arg)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration command complete")
}

func exitOn(err error, what string) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}
