package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DataConfig points at the flat knowledge-base and intent-example files.
type DataConfig struct {
	EntriesPath    string `yaml:"entries_path"`
	AnimalKeysPath string `yaml:"animal_keys_path"`
	PlantKeysPath  string `yaml:"plant_keys_path"`
	TaskListPath   string `yaml:"task_list_path"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// HugotEmbedderConfig configures the local sentence-transformer embedder.
type HugotEmbedderConfig struct {
	Model    string `yaml:"model"`
	ModelDir string `yaml:"model_dir"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Hugot  *HugotEmbedderConfig  `yaml:"hugot,omitempty"`
}

// IntentsConfig configures the intent embedding index and its cache artifact.
type IntentsConfig struct {
	CachePath string `yaml:"cache_path"`
}

// BotConfig carries the tuned pipeline thresholds.
type BotConfig struct {
	IntentMinScore   float64 `yaml:"intent_min_score"`
	MaxShortTokens   int     `yaml:"max_short_tokens"`
	NameCutoff       int     `yaml:"name_cutoff"`
	KeyCutoff        int     `yaml:"key_cutoff"`
	LastResortCutoff int     `yaml:"last_resort_cutoff"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Data     DataConfig     `yaml:"data"`
	Embedder EmbedderConfig `yaml:"embedder"`
	Intents  IntentsConfig  `yaml:"intents"`
	Bot      BotConfig      `yaml:"bot"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/auenbot/config.yaml.
// If neither exists, it writes defaults to ~/.config/auenbot/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "auenbot", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Data: DataConfig{
			EntriesPath:    filepath.Join("rawData", "tiere_pflanzen_auen.json"),
			AnimalKeysPath: filepath.Join("rawData", "tiereKeys.json"),
			PlantKeysPath:  filepath.Join("rawData", "pflanzenKeys.json"),
			TaskListPath:   filepath.Join("rawData", "taskList.json"),
		},
		Embedder: EmbedderConfig{Type: "hugot"},
		Intents:  IntentsConfig{CachePath: "intent_index.db"},
		Bot: BotConfig{
			IntentMinScore:   0.72,
			MaxShortTokens:   4,
			NameCutoff:       75,
			KeyCutoff:        70,
			LastResortCutoff: 80,
		},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	d := defaultConfig()
	if cfg.Data.EntriesPath == "" {
		cfg.Data.EntriesPath = d.Data.EntriesPath
	}
	if cfg.Data.AnimalKeysPath == "" {
		cfg.Data.AnimalKeysPath = d.Data.AnimalKeysPath
	}
	if cfg.Data.PlantKeysPath == "" {
		cfg.Data.PlantKeysPath = d.Data.PlantKeysPath
	}
	if cfg.Data.TaskListPath == "" {
		cfg.Data.TaskListPath = d.Data.TaskListPath
	}
	if cfg.Intents.CachePath == "" {
		cfg.Intents.CachePath = d.Intents.CachePath
	}
	if cfg.Bot.IntentMinScore == 0 {
		cfg.Bot.IntentMinScore = d.Bot.IntentMinScore
	}
	if cfg.Bot.MaxShortTokens == 0 {
		cfg.Bot.MaxShortTokens = d.Bot.MaxShortTokens
	}
	if cfg.Bot.NameCutoff == 0 {
		cfg.Bot.NameCutoff = d.Bot.NameCutoff
	}
	if cfg.Bot.KeyCutoff == 0 {
		cfg.Bot.KeyCutoff = d.Bot.KeyCutoff
	}
	if cfg.Bot.LastResortCutoff == 0 {
		cfg.Bot.LastResortCutoff = d.Bot.LastResortCutoff
	}
	if cfg.Embedder.Type == "openai" && cfg.Embedder.OpenAI != nil {
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
	}
}
