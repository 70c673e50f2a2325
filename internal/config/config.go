package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type AgentConfig struct {
	Name          string        `mapstructure:"name"`
	URL           string        `mapstructure:"url"`
	Target        string        `mapstructure:"target"`
	ICEServers    []string      `mapstructure:"ice_servers"`
	HangupTimeout time.Duration `mapstructure:"hangup_timeout"`
}

type CallConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// StartInterval is the minimum gap between two starts of one client.
	StartInterval time.Duration `mapstructure:"start_interval"`
}

type UIConfig struct {
	NiceListDuration time.Duration `mapstructure:"nice_list_duration"`
}

type StorageConfig struct {
	Path string `mapstructure:"path"`
}

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	StaticPath    string        `mapstructure:"static_path"`
	ReadLimit     int64         `mapstructure:"read_limit"`
	PingPeriod    time.Duration `mapstructure:"ping_period"`
	Secret        string        `mapstructure:"secret"`
	LogLevel      string        `mapstructure:"log_level"`
	ChristmasYear int           `mapstructure:"christmas_year"`
	Version       string        `mapstructure:"version"`

	Agent   AgentConfig   `mapstructure:"agent"`
	Call    CallConfig    `mapstructure:"call"`
	UI      UIConfig      `mapstructure:"ui"`
	Storage StorageConfig `mapstructure:"storage"`

	v *viper.Viper
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("host", "")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "santa-secret")
	v.SetDefault("log_level", "info")
	v.SetDefault("christmas_year", time.Now().Year())
	v.SetDefault("version", "dev")

	v.SetDefault("agent.name", "Santa")
	v.SetDefault("agent.url", "ws://localhost:7880/agent")
	v.SetDefault("agent.target", "santa")
	v.SetDefault("agent.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("agent.hangup_timeout", "5s")

	v.SetDefault("call.connect_timeout", "30s")
	v.SetDefault("call.start_interval", "2s")

	v.SetDefault("ui.nice_list_duration", "5s")

	v.SetDefault("storage.path", "./data/santa.db")
}

// Load reads config/config.<CONFIG_ENV>.yaml over the defaults. SANTA_
// environment variables override both, e.g. SANTA_AGENT_URL or
// SANTA_CHRISTMAS_YEAR.
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("SANTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	cfg.v = v
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Str("agent", cfg.Agent.URL).
		Msg("config ready")
	return &cfg, nil
}

// ParseLevel maps log_level onto zerolog, falling back to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// Watch reloads log_level whenever the config file changes. Other keys
// need a restart.
func (c *Config) Watch(onChange func(zerolog.Level)) {
	if c.v == nil {
		return
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		lvl := ParseLevel(c.v.GetString("log_level"))
		log.Info().Str("module", "config").Str("file", e.Name).Str("level", lvl.String()).Msg("config changed")
		if onChange != nil {
			onChange(lvl)
		}
	})
	c.v.WatchConfig()
}
