package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"auenbot/internal/bot"
	"auenbot/internal/config"
	"auenbot/internal/domain"
	"auenbot/internal/embedding/hugot"
	"auenbot/internal/embedding/openai"
	"auenbot/internal/embedding/tfidf"
	"auenbot/internal/intent"
	"auenbot/internal/intent/cache"
	"auenbot/internal/knowledge"
	"auenbot/internal/logging"
	"auenbot/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, dataDir string
	var rebuildIntents bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/auenbot/config.yaml if not provided)")
	flag.StringVar(&dataDir, "data", "", "Directory holding the knowledge-base JSON files (overrides config paths)")
	flag.BoolVar(&rebuildIntents, "rebuild-intents", false, "Force a rebuild of the intent embedding index")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if dataDir != "" {
		cfg.Data.EntriesPath = filepath.Join(dataDir, filepath.Base(cfg.Data.EntriesPath))
		cfg.Data.AnimalKeysPath = filepath.Join(dataDir, filepath.Base(cfg.Data.AnimalKeysPath))
		cfg.Data.PlantKeysPath = filepath.Join(dataDir, filepath.Base(cfg.Data.PlantKeysPath))
		cfg.Data.TaskListPath = filepath.Join(dataDir, filepath.Base(cfg.Data.TaskListPath))
	}

	logger := logging.New(os.Stderr, slog.LevelInfo)
	ctx := context.Background()

	emb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	kb, err := knowledge.Load(cfg.Data.EntriesPath, cfg.Data.AnimalKeysPath, cfg.Data.PlantKeysPath, logger)
	if err != nil {
		log.Fatalf("knowledge base load failed: %v", err)
	}

	raw, err := os.ReadFile(cfg.Data.TaskListPath)
	if err != nil {
		log.Fatalf("task list load failed: %v", err)
	}
	rows, err := intent.ParseTaskList(raw)
	if err != nil {
		log.Fatalf("task list parse failed: %v", err)
	}

	store, err := cache.Open(cfg.Intents.CachePath)
	if err != nil {
		log.Fatalf("intent cache open failed: %v", err)
	}
	defer store.Close()

	matcher, err := intent.LoadOrBuild(ctx, store, emb, rows, rebuildIntents, logger)
	if err != nil {
		log.Fatalf("intent index build failed: %v", err)
	}

	b := bot.New(kb, matcher, bot.Options{
		IntentMinScore:   cfg.Bot.IntentMinScore,
		MaxShortTokens:   cfg.Bot.MaxShortTokens,
		NameCutoff:       cfg.Bot.NameCutoff,
		KeyCutoff:        cfg.Bot.KeyCutoff,
		LastResortCutoff: cfg.Bot.LastResortCutoff,
	}, logger)

	m := tui.New(b)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}

func buildEmbedder(cfg *config.AppConfig) (domain.Embedder, error) {
	switch cfg.Embedder.Type {
	case "hugot", "":
		var model, modelDir string
		if cfg.Embedder.Hugot != nil {
			model = cfg.Embedder.Hugot.Model
			modelDir = cfg.Embedder.Hugot.ModelDir
		}
		return hugot.NewEmbedder(model, modelDir)
	case "openai":
		oc := cfg.Embedder.OpenAI
		if oc == nil {
			oc = &config.OpenAIEmbedderConfig{APIKeyEnv: "OPENAI_API_KEY"}
		}
		return openai.NewClient(openai.Config{
			BaseURL:   oc.BaseURL,
			APIKeyEnv: oc.APIKeyEnv,
			Model:     oc.Model,
			Timeout:   time.Duration(oc.TimeoutSecs) * time.Second,
		})
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Embedder.Type)
	}
}
