package main

import (
	"context"
	"flag"
	"log"
	"os"

	"TWPull/internal/di"
	"TWPull/internal/domain/models"
	"TWPull/pkg/config"
)

func main() {
	configPath := flag.String("config", "", "config file path (optional)")
	indexName := flag.String("index_name", "TWII", "index to collect: TWII, TW50 or TWMIDCAP")
	qlibDir := flag.String("qlib_dir", "", "qlib data directory")
	csvPath := flag.String("csv_path", "", "CSV data directory for check_data_health")
	method := flag.String("method", "parse_instruments",
		"parse_instruments, save_new_companies, check_data_health or serve")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadWithEnv(*configPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	// Flag overrides win over file and environment.
	if *qlibDir != "" {
		cfg.Collector.QlibDir = *qlibDir
	}
	if cfg.Collector.CacheDir == "" && cfg.Collector.QlibDir != "" {
		cfg.Collector.CacheDir = cfg.Collector.QlibDir + "/cache"
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}
	switch *method {
	case "parse_instruments", "save_new_companies", "serve":
		if err := cfg.ValidateCollector(); err != nil {
			log.Fatalf("config invalid: %v", err)
		}
	}

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	ctx := context.Background()

	switch *method {
	case "parse_instruments":
		index, err := models.ParseIndex(*indexName)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := app.CollectOnce(ctx, index); err != nil {
			log.Printf("collect error: %v", err)
			os.Exit(1)
		}
	case "save_new_companies":
		index, err := models.ParseIndex(*indexName)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if err := app.SaveCompanies(ctx, index); err != nil {
			log.Printf("save companies error: %v", err)
			os.Exit(1)
		}
	case "check_data_health":
		dir := *csvPath
		if dir == "" {
			log.Fatal("check_data_health requires --csv_path")
		}
		if err := app.CheckHealth(dir); err != nil {
			log.Printf("health check: %v", err)
			os.Exit(1)
		}
	case "serve":
		if err := app.Serve(); err != nil {
			log.Printf("app error: %v", err)
			os.Exit(1)
		}
	default:
		log.Fatalf("unknown method %q", *method)
	}
}
