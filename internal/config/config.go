package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
	Patch   PatchConfig   `yaml:"patch" mapstructure:"patch"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ExtractConfig configures both schema extractors.
type ExtractConfig struct {
	// DropOwner filters com-drop attachments to a single owner id.
	DropOwner string `yaml:"drop_owner" mapstructure:"drop_owner"`
	// Units is the bare-length unit policy: metres, feet, or auto.
	// auto guesses by magnitude and is a known correctness risk.
	Units string `yaml:"units" mapstructure:"units"`
	// KatapultFieldMap is an optional path to a YAML file of candidate
	// attribute-key chains for the Katapult pole-spec fields.
	KatapultFieldMap string `yaml:"katapult_field_map" mapstructure:"katapult_field_map"`
	// IncludeReferences keeps non-main (reference) Katapult SCIDs in the
	// extracted pole listing.
	IncludeReferences bool `yaml:"include_references" mapstructure:"include_references"`
}

// MatchConfig configures the geomatcher.
type MatchConfig struct {
	DistanceThresholdM float64 `yaml:"distance_threshold_m" mapstructure:"distance_threshold_m"`
	// AmbiguityEpsilonM is the distance gap below which two in-threshold
	// candidates are reported as ambiguous instead of picking the nearer.
	AmbiguityEpsilonM float64 `yaml:"ambiguity_epsilon_m" mapstructure:"ambiguity_epsilon_m"`
}

// PatchConfig configures edit-batch application.
type PatchConfig struct {
	// Atomic aborts the whole batch on the first failed edit. When false,
	// offending edits are skipped and the rest still apply.
	Atomic bool `yaml:"atomic" mapstructure:"atomic"`
}

// ServerConfig configures the report HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("POLECOMPARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("extract.drop_owner", "Charter")
	v.SetDefault("extract.units", "auto")
	v.SetDefault("extract.katapult_field_map", "")
	v.SetDefault("extract.include_references", false)
	v.SetDefault("match.distance_threshold_m", 15.0)
	v.SetDefault("match.ambiguity_epsilon_m", 0.5)
	v.SetDefault("patch.atomic", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
