package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/gophlock/internal/biometric/bridge"
	"github.com/dmitrijs2005/gophlock/internal/config"
	"github.com/dmitrijs2005/gophlock/internal/logging"
	"github.com/dmitrijs2005/gophlock/internal/telemetry"
)

const bridgeServiceName = "biobridge"

type BridgeApp struct {
	config   *config.BridgeConfig
	logger   logging.Logger
	platform bridge.Platform
}

func NewBridgeApp(c *config.BridgeConfig) (*BridgeApp, error) {
	logger := logging.New(os.Stderr, c.LogFormat, c.LogLevel).With("app", bridgeServiceName)

	p, err := bridge.NewPlatform(c.Platform, os.Stdin, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("platform init error: %w", err)
	}

	return &BridgeApp{config: c, logger: logger, platform: p}, nil
}

func (app *BridgeApp) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves the bridge until a termination signal arrives or ctx is done.
func (app *BridgeApp) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting bridge...", "platform", app.config.Platform)

	app.initSignalHandler(cancelFunc)

	shutdown, err := telemetry.Setup(ctx, bridgeServiceName, app.config.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("telemetry init error: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			app.logger.Warn(ctx, "telemetry shutdown failed", "error", err)
		}
	}()

	s, err := bridge.NewServer(app.config.Address, app.platform, app.logger, app.config.Secret)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}
