// Command auenbot-intents rebuilds the intent embedding index cache from the
// task list, regardless of whether a cached artifact exists. Run it after
// editing the intent examples; the chat application never invalidates the
// cache on its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"auenbot/internal/config"
	"auenbot/internal/domain"
	"auenbot/internal/embedding/hugot"
	"auenbot/internal/embedding/openai"
	"auenbot/internal/embedding/tfidf"
	"auenbot/internal/intent"
	"auenbot/internal/intent/cache"
	"auenbot/internal/logging"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional)")
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

	logger := logging.New(os.Stderr, slog.LevelInfo)

	emb, err := buildEmbedder(cfg)
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
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

	matcher, err := intent.LoadOrBuild(context.Background(), store, emb, rows, true, logger)
	if err != nil {
		log.Fatalf("intent index rebuild failed: %v", err)
	}
	fmt.Printf("Rebuilt intent index: %d examples, model %s, cache %s\n",
		matcher.Len(), matcher.Model(), cfg.Intents.CachePath)
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
