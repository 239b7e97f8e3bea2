package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/funnel/internal/app"
	"github.com/dmitrijs2005/funnel/internal/cli"
	"github.com/dmitrijs2005/funnel/internal/config"
	"github.com/dmitrijs2005/funnel/internal/flagx"
	"github.com/dmitrijs2005/funnel/internal/logging"
)

func main() {
	ctx := context.Background()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	a, err := app.NewApp(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	c := cli.New(a)
	err = c.ExecuteWithArgs(ctx, flagx.StripArgs(os.Args[1:], config.ArgFlags()))
	if cerr := a.Close(); cerr != nil {
		logger.Warn(ctx, "close failed", "error", cerr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
