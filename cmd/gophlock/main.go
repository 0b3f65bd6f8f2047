package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophlock/internal/app"
	"github.com/dmitrijs2005/gophlock/internal/buildinfo"
	"github.com/dmitrijs2005/gophlock/internal/config"
)

// Exit status: 0 when the lock opened, 1 when it was dismissed, 2 on errors.
func main() {
	os.Exit(run())
}

func run() int {
	buildinfo.PrintBuildData(os.Stderr)

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Printf("config: %v", err)
		return 2
	}

	a, err := app.NewLockApp(cfg)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	unlocked, err := a.Run(ctx)
	if err != nil {
		log.Printf("%v", err)
		return 2
	}
	if !unlocked {
		return 1
	}
	return 0
}
