package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MTxiong-wang/fundinsight-ai/internal/di"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	sector := flag.String("sector", "", "sector keyword to discover and rank")
	codes := flag.String("codes", "", "comma-separated fund codes, skips discovery")
	top := flag.Int("top", 0, "override report table size")
	serve := flag.Bool("serve", false, "run the HTTP API instead of a one-shot ranking")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *top > 0 {
		cfg.Report.TopN = *top
	}

	log.Printf("env=%s provider=%s advisor=%s", cfg.Environment, cfg.Provider.BaseURL, cfg.Advisor.Provider)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	if *serve {
		// Run application (blocks until signal)
		if err := app.Run(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
		return
	}

	// One-shot ranking to a markdown report
	var codeList []string
	if *codes != "" {
		for _, c := range strings.Split(*codes, ",") {
			if c = strings.TrimSpace(c); c != "" {
				codeList = append(codeList, c)
			}
		}
	}
	if *sector == "" && len(codeList) == 0 {
		app.Close()
		log.Fatal("either -sector or -codes is required (or use -serve)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path, err := app.RunOnce(ctx, *sector, codeList)
	if err != nil {
		app.Close()
		log.Fatalf("ranking failed: %v", err)
	}
	app.Close()
	fmt.Println(path)
}
