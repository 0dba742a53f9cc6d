package main

import (
	"context"
	"fmt"
	"os"

	"github.com/devsage/hackclient/internal/buildinfo"
	"github.com/devsage/hackclient/internal/client/cli"
	"github.com/devsage/hackclient/internal/client/config"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx := context.Background()
	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app.Run(ctx)
}
