package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"ChallengeArena/internal/di"
	"ChallengeArena/pkg/config"
	applogger "ChallengeArena/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	// Missing .env is fine; real environment wins either way.
	_ = godotenv.Load(*envFile)

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	lgr, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	lgr.Info("config loaded",
		applogger.String("env", cfg.Environment),
		applogger.String("archive", cfg.Archive.Backend),
		applogger.String("feed", cfg.Market.Source))

	app, cleanup, err := di.InitializeApp(cfg, lgr)
	if err != nil {
		lgr.Error("app initialization failed", applogger.Error(err))
		os.Exit(1)
	}

	// Run blocks until SIGINT/SIGTERM.
	if err := app.Run(); err != nil {
		lgr.Error("app error", applogger.Error(err))
		cleanup()
		os.Exit(1)
	}
	cleanup()
}
