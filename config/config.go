package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"document-submitter/middleware/ratelimit/domain"
	"document-submitter/middleware/ratelimit/infra"
	"document-submitter/submission"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// EnvPrefix prefixa as variáveis de ambiente: gate.capacity vira SUBMITTER_GATE_CAPACITY.
const EnvPrefix = "SUBMITTER"

// Config é lido pelo viper de um arquivo YAML opcional e de variáveis de ambiente.
type Config struct {
	Gate     GateConfig     `mapstructure:"gate"`
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Submit   SubmitConfig   `mapstructure:"submit"`
	Log      LogConfig      `mapstructure:"log"`
	Stats    StatsConfig    `mapstructure:"stats"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type GateConfig struct {
	Capacity       int           `mapstructure:"capacity"`
	Window         time.Duration `mapstructure:"window"`
	Policy         string        `mapstructure:"policy"`          // "reset" ou "token-bucket"
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"` // 0 = espera até cancelar
}

type EndpointConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SubmitConfig struct {
	Workers int `mapstructure:"workers"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type StatsConfig struct {
	Backend   string      `mapstructure:"backend"` // "none", "memory" ou "redis"
	TrackKeys bool        `mapstructure:"track_keys"`
	Redis     RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	Bucket   string        `mapstructure:"bucket"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // vazio desliga o /metrics
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gate.capacity", 10)
	v.SetDefault("gate.window", time.Second)
	v.SetDefault("gate.policy", infra.PolicyReset)
	v.SetDefault("gate.acquire_timeout", time.Duration(0))

	v.SetDefault("endpoint.url", submission.DefaultEndpoint)
	v.SetDefault("endpoint.timeout", 30*time.Second)

	v.SetDefault("submit.workers", 4)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("stats.backend", "none")
	v.SetDefault("stats.track_keys", false)
	v.SetDefault("stats.redis.addr", "")
	v.SetDefault("stats.redis.password", "")
	v.SetDefault("stats.redis.db", 0)
	v.SetDefault("stats.redis.prefix", "submitter:gate")
	v.SetDefault("stats.redis.ttl", 24*time.Hour)
	v.SetDefault("stats.redis.bucket", "minute")

	v.SetDefault("metrics.addr", "")
}

// Load lê a configuração. Com configPath vazio procura submitter.yaml no
// diretório atual e em /etc/document-submitter; arquivo ausente não é erro.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/document-submitter")
		v.SetConfigName("submitter")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejeita configurações com as quais o submitter não deve subir.
func (c *Config) Validate() error {
	if c.Gate.Capacity <= 0 {
		return fmt.Errorf("%w: gate.capacity must be > 0", domain.ErrInvalidConfiguration)
	}
	if c.Gate.Window <= 0 {
		return fmt.Errorf("%w: gate.window must be > 0", domain.ErrInvalidConfiguration)
	}
	switch strings.ToLower(c.Gate.Policy) {
	case infra.PolicyReset, infra.PolicyTokenBucket:
	default:
		return fmt.Errorf("%w: unknown gate.policy %q", domain.ErrInvalidConfiguration, c.Gate.Policy)
	}
	if c.Gate.AcquireTimeout < 0 {
		return fmt.Errorf("%w: gate.acquire_timeout must be >= 0", domain.ErrInvalidConfiguration)
	}
	if strings.TrimSpace(c.Endpoint.URL) == "" {
		return fmt.Errorf("%w: endpoint.url is required", domain.ErrInvalidConfiguration)
	}
	if c.Submit.Workers <= 0 {
		return fmt.Errorf("%w: submit.workers must be > 0", domain.ErrInvalidConfiguration)
	}
	switch strings.ToLower(c.Stats.Backend) {
	case "", "none", "memory":
	case "redis":
		if strings.TrimSpace(c.Stats.Redis.Addr) == "" {
			return fmt.Errorf("%w: stats.redis.addr is required when stats.backend=redis", domain.ErrInvalidConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown stats.backend %q", domain.ErrInvalidConfiguration, c.Stats.Backend)
	}
	return nil
}

// NewLogger monta o logger do processo. Nível inválido cai para info.
func NewLogger(c LogConfig, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.Level)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if c.Pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
