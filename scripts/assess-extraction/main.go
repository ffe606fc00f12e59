// assess-extraction runs the menu extraction pipeline against a live menu
// page or menu image and prints the structured items, so prompt or model
// changes can be judged against real-world menus before deploying.
//
// Nothing is written to the database; this is a read-only dry run of
// scrape + extract.
//
// Usage:
//
//	go run ./scripts/assess-extraction -url https://some-restaurant.example/menu
//	go run ./scripts/assess-extraction -image https://host.example/menu.jpg
//
// Model configuration comes from the standard AI_* environment variables.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dishlens/dishlens-engine/pkg/config"
	"github.com/dishlens/dishlens-engine/pkg/extract"
	"github.com/dishlens/dishlens-engine/pkg/llm"
	"github.com/dishlens/dishlens-engine/pkg/scrape"
)

func main() {
	pageURL := flag.String("url", "", "Menu page URL to scrape and extract")
	imageURL := flag.String("image", "", "Menu image URL to extract")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall timeout")
	flag.Parse()

	if (*pageURL == "") == (*imageURL == "") {
		fmt.Fprintln(os.Stderr, "exactly one of -url and -image is required")
		flag.Usage()
		os.Exit(2)
	}

	logConfig := zap.NewDevelopmentConfig()
	logConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := logConfig.Build()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load("assess")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	client, err := llm.NewClient(&llm.Config{
		Provider:    cfg.AI.Provider,
		BaseURL:     cfg.AI.BaseURL,
		Model:       cfg.AI.Model,
		VisionModel: cfg.AI.VisionModel,
		APIKey:      cfg.AI.APIKey,
	}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create LLM client: %v\n", err)
		os.Exit(1)
	}

	extractor := extract.New(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	start := time.Now()
	var items interface{}

	if *pageURL != "" {
		scraper := scrape.New(scrape.DefaultConfig(), logger)

		menuText, err := scraper.MenuText(ctx, *pageURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scrape failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Scraped %d characters from %s\n\n", len(menuText), *pageURL)

		items, err = extractor.FromText(ctx, menuText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		items, err = extractor.FromImage(ctx, extract.ImageInput{URL: *imageURL})
		if err != nil {
			fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
			os.Exit(1)
		}
	}

	out, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render items: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(out))
	fmt.Printf("\nModel: %s  Elapsed: %s\n", client.Model(), time.Since(start).Round(time.Millisecond))
}
