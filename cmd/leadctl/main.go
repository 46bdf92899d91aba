// Command leadctl is the operator CLI for the lead store and alert channels.
package main

import (
	"os"

	"github.com/stelliformdigital/stelliform-web/internal/app/bootstrap"
	appconfig "github.com/stelliformdigital/stelliform-web/internal/config"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel)

	root := newRootCmd(&app{
		cfg:           cfg,
		logger:        logger,
		openStore:     bootstrap.BuildLeadStore,
		buildNotifier: bootstrap.BuildNotifier,
	})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
