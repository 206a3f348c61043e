package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xpanvictor/convoinfer/internal/types"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	StoreMemory = "memory"
	StoreMySQL  = "mysql"
)

type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	PoolSize int    `mapstructure:"pool_size"`
}

func (d DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Name)
}

type RedisConfig struct {
	Addr string `mapstructure:"addr"`
	Pass string `mapstructure:"pass"`
}

type StoreConfig struct {
	Driver      string `mapstructure:"driver"`
	LiveTTLMins int64  `mapstructure:"live_ttl_mins"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	WatchTimeout    time.Duration `mapstructure:"watch_timeout"` // idle websocket watchers are closed after this
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ModelConfig struct {
	Provider    string `mapstructure:"provider"`
	Name        string `mapstructure:"name"`
	ID          string `mapstructure:"id"`
	ResolveInfo bool   `mapstructure:"resolve_info"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type OllamaConfig struct {
	Hosts []string `mapstructure:"hosts"`
}

// GenerationSettings mirrors the adapter's recognised generation options.
type GenerationSettings struct {
	MaxOutputTokens  int     `mapstructure:"max_output_tokens"`
	Temperature      float64 `mapstructure:"temperature"`
	TopP             float64 `mapstructure:"top_p"`
	Seed             *int    `mapstructure:"seed"`
	Stream           bool    `mapstructure:"stream"`
	ThinkingBudget   int     `mapstructure:"thinking_budget"`
	DebounceInterval float64 `mapstructure:"debounce_interval"` // seconds
	SystemPrompt     string  `mapstructure:"system_prompt"`
}

type BatchConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

type GuardConfig struct {
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"` // 0 disables limiting
	Burst              int           `mapstructure:"burst"`
	BreakerMaxFailures uint32        `mapstructure:"breaker_max_failures"` // 0 disables the breaker
	BreakerTimeout     time.Duration `mapstructure:"breaker_timeout"`
}

type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

type Settings struct {
	Env        string             `mapstructure:"env"`
	Debug      bool               `mapstructure:"debug"`
	Server     ServerConfig       `mapstructure:"server"`
	Model      ModelConfig        `mapstructure:"model"`
	Generation GenerationSettings `mapstructure:"generation"`
	Gemini     GeminiConfig       `mapstructure:"gemini"`
	OpenAI     OpenAIConfig       `mapstructure:"openai"`
	Ollama     OllamaConfig       `mapstructure:"ollama"`
	Store      StoreConfig        `mapstructure:"store"`
	DB         DBConfig           `mapstructure:"database"`
	Redis      RedisConfig        `mapstructure:"redis"`
	Batch      BatchConfig        `mapstructure:"batch"`
	Guard      GuardConfig        `mapstructure:"guard"`
	Tracing    TracingConfig      `mapstructure:"tracing"`
}

// GenerationConfig derives the immutable per-adapter generation settings.
func (s *Settings) GenerationConfig() types.GenerationConfig {
	g := s.Generation
	gc := types.GenerationConfig{
		Temperature:      float32(g.Temperature),
		TopP:             float32(g.TopP),
		MaxOutputTokens:  int32(g.MaxOutputTokens),
		SystemPrompt:     g.SystemPrompt,
		ThinkingBudget:   int32(g.ThinkingBudget),
		Stream:           g.Stream,
		DebounceInterval: time.Duration(g.DebounceInterval * float64(time.Second)),
	}
	if g.Seed != nil {
		seed := int32(*g.Seed)
		gc.Seed = &seed
	}
	return gc
}

func (s *Settings) ModelInfo() types.ModelInfo {
	id := s.Model.ID
	if id == "" {
		id = s.Model.Name
	}
	return types.ModelInfo{Name: s.Model.Name, ID: id}
}

func Load() (*Settings, error) {
	return load(viper.New(), "config_"+genEnv(), ".")
}

func load(v *viper.Viper, name string, paths ...string) (*Settings, error) {
	setDefaults(v)
	v.SetConfigName(name)
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// credentials and the seed have no default, so they must be bound explicitly
	_ = v.BindEnv("gemini.api_key", "GOOGLE_API_KEY")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("generation.seed", "GENERATION_SEED")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")
	v.SetDefault("debug", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.watch_timeout", 30*time.Minute)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("model.provider", ProviderGemini)
	v.SetDefault("model.name", "gemini-2.5-flash")
	v.SetDefault("model.id", "")
	v.SetDefault("model.resolve_info", false)
	v.SetDefault("generation.max_output_tokens", 1024)
	v.SetDefault("generation.temperature", 0.2)
	v.SetDefault("generation.top_p", 0.7)
	v.SetDefault("generation.stream", false)
	v.SetDefault("generation.thinking_budget", 128)
	v.SetDefault("generation.debounce_interval", 2)
	v.SetDefault("generation.system_prompt", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("ollama.hosts", []string{"http://localhost:11434"})
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.live_ttl_mins", 60)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "convoinfer")
	v.SetDefault("database.pool_size", 10)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pass", "")
	v.SetDefault("batch.concurrency", 4)
	v.SetDefault("guard.requests_per_second", 0)
	v.SetDefault("guard.burst", 1)
	v.SetDefault("guard.breaker_max_failures", 0)
	v.SetDefault("guard.breaker_timeout", 30*time.Second)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.exporter", "stdout")
}

func (s *Settings) validate() error {
	switch s.Model.Provider {
	case ProviderGemini:
		if s.Gemini.APIKey == "" {
			return fmt.Errorf("%w: missing Google API key (GOOGLE_API_KEY)", types.ErrConfiguration)
		}
	case ProviderOpenAI:
		if s.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: missing OpenAI API key (OPENAI_API_KEY)", types.ErrConfiguration)
		}
	case ProviderOllama:
		if len(s.Ollama.Hosts) == 0 {
			return fmt.Errorf("%w: no ollama hosts configured", types.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown model provider %q", types.ErrConfiguration, s.Model.Provider)
	}
	if s.Model.Name == "" {
		return fmt.Errorf("%w: model name is required", types.ErrConfiguration)
	}
	if s.Generation.DebounceInterval < 0 {
		return fmt.Errorf("%w: debounce_interval must not be negative", types.ErrConfiguration)
	}
	switch s.Store.Driver {
	case StoreMemory, StoreMySQL:
	default:
		return fmt.Errorf("%w: unknown store driver %q", types.ErrConfiguration, s.Store.Driver)
	}
	if s.Batch.Concurrency < 1 {
		s.Batch.Concurrency = 1
	}
	return nil
}

func genEnv() string {
	v := viper.New()
	v.AutomaticEnv()
	env := v.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}
