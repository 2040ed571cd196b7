// Package main provides the scrapbook interactive capture session. It
// launches a headed browser the operator drives by hand, tracks which tab
// they are looking at, and turns clipboard captures and page images into
// numbered artifacts on disk through a command prompt.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/entrhq/scrapbook/pkg/capture"
	"github.com/entrhq/scrapbook/pkg/capture/browser"
	"github.com/entrhq/scrapbook/pkg/clipboard"
	appconfig "github.com/entrhq/scrapbook/pkg/config"
	"github.com/entrhq/scrapbook/pkg/logging"
	"github.com/entrhq/scrapbook/pkg/storage"
)

const version = "0.1.0"

type flags struct {
	configPath  string
	outputDir   string
	startURL    string
	headless    bool
	showVersion bool
}

func main() {
	f := parseFlags()

	if f.showVersion {
		fmt.Printf("scrapbook v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nshutting down")
		cancel()
	}()

	if err := run(ctx, f); err != nil {
		log.Fatalf("scrapbook: %v", err)
	}
}

func parseFlags() *flags {
	f := &flags{}
	flag.StringVar(&f.configPath, "config", "", "path to config file (default ~/.scrapbook/config.yaml)")
	flag.StringVar(&f.outputDir, "output", "", "artifact output directory (overrides config)")
	flag.StringVar(&f.startURL, "url", "", "URL to open in the first tab (overrides config)")
	flag.BoolVar(&f.headless, "headless", false, "run the browser headless")
	flag.BoolVar(&f.showVersion, "version", false, "print version and exit")
	flag.Parse()
	return f
}

func run(ctx context.Context, f *flags) error {
	configPath := f.configPath
	if configPath == "" {
		var err error
		if configPath, err = appconfig.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := appconfig.Load(configPath)
	if err != nil {
		return err
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.startURL != "" {
		cfg.StartURL = f.startURL
	}
	if f.headless {
		cfg.Headless = true
	}

	logger, logErr := logging.NewLogger("main")
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: file logging unavailable: %v\n", logErr)
	}
	defer logger.Close()
	logger.Infof("scrapbook v%s starting, output %s", version, cfg.OutputDir)

	conn, err := browser.Connect(browser.ConnectOptions{
		Headless: cfg.Headless,
		StartURL: cfg.StartURL,
	})
	if err != nil {
		return fmt.Errorf("browser connection failed: %w", err)
	}

	prompter := capture.NewTermPrompter(os.Stdin, os.Stdout)
	session, err := capture.NewSession(
		storage.NewOSStore(),
		conn.Tracker(),
		clipboard.NewSystem(),
		prompter,
		cfg,
		capture.WithLogger(logger),
	)
	if err != nil {
		conn.Close()
		return err
	}

	loop := capture.NewLoop(session, prompter, os.Stdout, conn)
	return loop.Run(ctx)
}
