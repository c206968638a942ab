package config

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"livebets/livematch/utils"
)

var (
	once         sync.Once
	cachedConfig AppConfig
)

type AppConfig struct {
	FeedConfig       `mapstructure:"feed"`
	PredictionConfig `mapstructure:"prediction"`
	MergeConfig      `mapstructure:"merge"`
	MatcherConfig    `mapstructure:"matcher"`
	NormalizerConfig `mapstructure:"normalizer"`
	Port             string `mapstructure:"port"`
	LogLevel         string `mapstructure:"log_level"`
}

type FeedConfig struct {
	Url               string          `mapstructure:"url"`
	Token             string          `mapstructure:"token"`
	HandshakeTimeout  time.Duration   `mapstructure:"handshake_timeout"`
	Events            []string        `mapstructure:"events"`
	Backoff           []time.Duration `mapstructure:"backoff"`
	SessionRetryDelay time.Duration   `mapstructure:"session_retry_delay"`
}

type PredictionConfig struct {
	Url          string        `mapstructure:"url"`
	Token        string        `mapstructure:"token"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

type MergeConfig struct {
	Debounce      time.Duration `mapstructure:"debounce"`
	DrainInterval time.Duration `mapstructure:"drain_interval"`
}

type MatcherConfig struct {
	MaxDistance int `mapstructure:"max_distance"`
}

type NormalizerConfig struct {
	Aliases map[string]string `mapstructure:"aliases"`
}

// ProvideAppConfig reads configs/common.yml once per process.
func ProvideAppConfig() (AppConfig, error) {
	var err error
	once.Do(func() {
		v := viper.GetViper()
		v.AddConfigPath("configs")
		v.SetConfigName("common")
		v.SetConfigType("yml")

		cachedConfig, err = Load(v)
	})

	return cachedConfig, err
}

// Load decodes the configuration known to v. The caller sets the config
// file location; a missing file is fine as long as env and defaults cover
// the required keys.
func Load(v *viper.Viper) (AppConfig, error) {
	var cfg AppConfig

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, errors.Wrap(err, "read config")
		}
	}

	BindEnvs(v, cfg)

	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(utils.DefaultDecodeHooks()...))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")

	v.SetDefault("feed.handshake_timeout", "10s")
	v.SetDefault("feed.events", []string{"arbitrage-live-matches", "all-live-matches", "prediction-data"})
	v.SetDefault("feed.backoff", []string{"0s", "2s", "5s", "10s", "20s"})
	v.SetDefault("feed.session_retry_delay", "30s")

	v.SetDefault("prediction.timeout", "15s")
	v.SetDefault("prediction.poll_interval", "6h")

	v.SetDefault("merge.debounce", "50ms")
	v.SetDefault("merge.drain_interval", "500ms")

	v.SetDefault("matcher.max_distance", 2)
}

func (c AppConfig) Validate() error {
	if c.FeedConfig.Url == "" {
		return errors.New("feed.url is required")
	}
	if len(c.FeedConfig.Backoff) == 0 {
		return errors.New("feed.backoff must not be empty")
	}
	for _, d := range c.FeedConfig.Backoff {
		if d < 0 {
			return errors.Newf("feed.backoff has negative delay %s", d)
		}
	}
	if c.MergeConfig.Debounce <= 0 || c.MergeConfig.DrainInterval <= 0 {
		return errors.New("merge.debounce and merge.drain_interval must be positive")
	}
	if c.PredictionConfig.Url != "" && c.PredictionConfig.PollInterval <= 0 {
		return errors.New("prediction.poll_interval must be positive")
	}
	if c.MatcherConfig.MaxDistance < 0 {
		return errors.New("matcher.max_distance must not be negative")
	}
	return nil
}

func BindEnvs(v *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)
	for i := 0; i < ift.NumField(); i++ {
		fv := ifv.Field(i)
		t := ift.Field(i)
		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}
		switch fv.Kind() {
		case reflect.Struct:
			BindEnvs(v, fv.Interface(), append(parts, tv)...)
		default:
			_ = v.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}
