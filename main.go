package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"audionav/cmd"
	"audionav/config"
	"audionav/logging"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	var (
		server  bool
		port    int
		volumes bool
		list    string
		scan    bool
	)

	flag.BoolVar(&server, "server", false, "Start in web server mode")
	flag.IntVar(&port, "port", 0, "Port for web server mode (overrides SERVER_PORT)")
	flag.BoolVar(&volumes, "volumes", false, "Print the discovered storage volumes")
	flag.StringVar(&list, "list", "", "Print the audio listing of a directory")
	flag.BoolVar(&scan, "scan", false, "Count the audio files on every volume")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(2)
	}

	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "logging error: %v\n", err)
		os.Exit(2)
	}
	defer logging.Sync()

	// Server mode takes precedence
	if server {
		if err := cmd.StartWebServer(cfg, port); err != nil {
			logging.L().Fatal("server failed", zap.Error(err))
		}
		return
	}

	if !volumes && list == "" && !scan {
		flag.Usage()
		return
	}

	ctx := context.Background()
	svc, err := cmd.NewServices(ctx, cfg, afero.NewOsFs())
	if err != nil {
		logging.L().Fatal("startup failed", zap.Error(err))
	}
	defer svc.Close()

	switch {
	case volumes:
		err = cmd.PrintVolumes(ctx, svc, os.Stdout)
	case list != "":
		err = cmd.PrintDirectory(ctx, svc, list, os.Stdout)
	case scan:
		err = cmd.ScanLibrary(ctx, svc, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		svc.Close()
		logging.Sync()
		os.Exit(1)
	}
}
