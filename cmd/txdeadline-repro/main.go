package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/code-and-chill/txdeadline/pkg/config"
	"github.com/code-and-chill/txdeadline/pkg/logger"
	"github.com/code-and-chill/txdeadline/pkg/mysql"
	"github.com/code-and-chill/txdeadline/pkg/repro"

	"github.com/pkg/errors"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}

	db, err := mysql.New(cfg.MySQL, log)
	if err != nil {
		return err
	}
	defer db.Shutdown()

	provider, err := mysql.NewTransactionProvider(db)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var version string
	if err := db.Get(ctx, &version, "SELECT VERSION()"); err != nil {
		return err
	}
	log.WithField("version", version).Info("connected to mysql")

	scenarios := repro.Scenarios(cfg.Repro.Timeout, cfg.Repro.Delay)
	failed := 0
	for _, path := range []repro.Path{repro.PathMapper, repro.PathTemplate} {
		service, err := repro.NewService(provider, db, path, log, repro.Sleep)
		if err != nil {
			return err
		}
		for _, report := range service.Run(ctx, scenarios...) {
			if !report.Passed() {
				failed++
			}
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d scenarios ended with an unexpected outcome", failed, 2*len(scenarios))
	}
	log.Info("all scenarios ended as expected")
	return nil
}
