package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the process-level configuration: where the transfer
// database lives and how to unlock it. Everything else (ODK, openVA,
// DHIS2 settings) lives inside the encrypted store itself.
type Config struct {
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	ODK    ODKConfig    `yaml:"odk" mapstructure:"odk"`
	OpenVA OpenVAConfig `yaml:"openva" mapstructure:"openva"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// ODKConfig holds the parts of the collection-server setup that live
// outside the store: where a Briefcase export lands when the deployment
// does not use ODK Central.
type ODKConfig struct {
	ExportPath string `yaml:"export_path" mapstructure:"export_path"`
}

// StoreConfig locates the encrypted transfer database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
	Key  string `yaml:"key" mapstructure:"key"`
}

// OpenVAConfig configures how the coding algorithms are executed.
type OpenVAConfig struct {
	RscriptPath string `yaml:"rscript_path" mapstructure:"rscript_path"`
	SmartVAPath string `yaml:"smartva_path" mapstructure:"smartva_path"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ServerConfig configures the status endpoint.
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
	v.SetEnvPrefix("VAPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "transfer.db")
	// Registered so the VAPIPE_STORE_KEY env var is seen by Unmarshal.
	v.SetDefault("store.key", "")
	v.SetDefault("odk.export_path", "briefcase_export.csv")
	v.SetDefault("openva.rscript_path", "Rscript")
	v.SetDefault("openva.smartva_path", "smartva")
	v.SetDefault("openva.timeout_secs", 3600)
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
