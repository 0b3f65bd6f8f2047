package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/gophlock/internal/app"
	"github.com/dmitrijs2005/gophlock/internal/buildinfo"
	"github.com/dmitrijs2005/gophlock/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg := config.LoadBridgeConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	a, err := app.NewBridgeApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := a.Run(context.Background()); err != nil {
		log.Fatalf("%v", err)
	}

}
