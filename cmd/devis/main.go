// Command devis edits the shared quote/invoice document from the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/cockroachdb/errors"
	"github.com/diewo77/go-devis/internal/cli"
	"github.com/diewo77/go-devis/internal/config"
	"github.com/diewo77/go-devis/internal/db"
	"github.com/diewo77/go-devis/internal/logger"
	"github.com/diewo77/go-devis/internal/pdf"
	"github.com/diewo77/go-devis/internal/services"
	"github.com/diewo77/go-devis/internal/storage"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Logs go to stderr and only in dev mode, stdout belongs to the commands.
	log := logger.NewNop()
	if cfg.App.Dev {
		l, err := logger.NewLogger(true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
			os.Exit(1)
		}
		log = l
	}

	env := &cli.Env{
		Open: func(ctx context.Context) (*services.Store, error) {
			conn, err := db.ConnectAndMigrate(cfg.Storage, log)
			if err != nil {
				return nil, errors.WithHint(err, "check STORAGE_DRIVER, SQLITE_PATH and DATABASE_DSN")
			}
			store := services.NewStore(storage.NewGormKV(conn), cfg.Storage.StateKey, log,
				services.WithPersistOnHydrate(cfg.App.PersistOnHydrate))
			store.Init(ctx, store.Defaults())
			return store, nil
		},
		PDF: pdf.NewGenerator(),
		In:  os.Stdin,
		Out: os.Stdout,
		Err: os.Stderr,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cli.Register(commander, env)

	flag.Parse()
	status := commander.Execute(context.Background())
	log.Sync()
	os.Exit(int(status))
}
