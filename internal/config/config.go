// Package config loads and validates application configuration.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is built once at
// startup and passed explicitly into the engine; nothing reads it through
// globals.
type Config struct {
	Inputs InputsConfig `yaml:"inputs" mapstructure:"inputs"`
	Siting SitingConfig `yaml:"siting" mapstructure:"siting"`
	Store  StoreConfig  `yaml:"store" mapstructure:"store"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// InputsConfig points at the run's input datasets and output location.
type InputsConfig struct {
	TractPath       string `yaml:"tract_path" mapstructure:"tract_path"`
	TractGEOIDField string `yaml:"tract_geoid_field" mapstructure:"tract_geoid_field"`
	TractEPSG       int    `yaml:"tract_epsg" mapstructure:"tract_epsg"`

	IndicatorPath        string `yaml:"indicator_path" mapstructure:"indicator_path"`
	IndicatorGEOIDColumn string `yaml:"indicator_geoid_column" mapstructure:"indicator_geoid_column"`

	POIPath          string `yaml:"poi_path" mapstructure:"poi_path"`
	POIEPSG          int    `yaml:"poi_epsg" mapstructure:"poi_epsg"`
	POIIDField       string `yaml:"poi_id_field" mapstructure:"poi_id_field"`
	POINameField     string `yaml:"poi_name_field" mapstructure:"poi_name_field"`
	POICategoryField string `yaml:"poi_category_field" mapstructure:"poi_category_field"`
	POILonField      string `yaml:"poi_lon_field" mapstructure:"poi_lon_field"`
	POILatField      string `yaml:"poi_lat_field" mapstructure:"poi_lat_field"`

	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// IndicatorConfig configures one tract indicator entering the composite
// score. Direction is "positive" (higher raw value means a better event
// site) or "negative" (higher raw value means a worse one). When Min/Max
// are unset the normalization bounds are derived from the observed values.
type IndicatorConfig struct {
	Name      string   `yaml:"name" mapstructure:"name"`
	Weight    float64  `yaml:"weight" mapstructure:"weight"`
	Direction string   `yaml:"direction" mapstructure:"direction"`
	Min       *float64 `yaml:"min" mapstructure:"min"`
	Max       *float64 `yaml:"max" mapstructure:"max"`
}

// FocusConfig restricts scoring to tracts whose focus indicator stands out
// from the rest of the dataset. Exactly one threshold must be set.
type FocusConfig struct {
	Indicator    string  `yaml:"indicator" mapstructure:"indicator"`
	MinMeanRatio float64 `yaml:"min_mean_ratio" mapstructure:"min_mean_ratio"`
	MinZScore    float64 `yaml:"min_zscore" mapstructure:"min_zscore"`
}

// SitingConfig configures the scoring engine itself.
type SitingConfig struct {
	RunName       string            `yaml:"run_name" mapstructure:"run_name"`
	Indicators    []IndicatorConfig `yaml:"indicators" mapstructure:"indicators"`
	Method        string            `yaml:"method" mapstructure:"method"`
	MissingPolicy string            `yaml:"missing_policy" mapstructure:"missing_policy"`
	Focus         FocusConfig       `yaml:"focus" mapstructure:"focus"`
	POITypes      []string          `yaml:"poi_types" mapstructure:"poi_types"`
	TopN          int               `yaml:"top_n" mapstructure:"top_n"`
	Workers       int               `yaml:"workers" mapstructure:"workers"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("SITING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.path", "event-siting.db")
	v.SetDefault("inputs.tract_geoid_field", "GEOID")
	v.SetDefault("inputs.tract_epsg", 4326)
	v.SetDefault("inputs.indicator_geoid_column", "geoid")
	v.SetDefault("inputs.poi_epsg", 4326)
	v.SetDefault("inputs.poi_id_field", "id")
	v.SetDefault("inputs.poi_name_field", "name")
	v.SetDefault("inputs.poi_category_field", "category")
	v.SetDefault("inputs.poi_lon_field", "lon")
	v.SetDefault("inputs.poi_lat_field", "lat")
	v.SetDefault("inputs.output_dir", "./event-siting-outputs")
	v.SetDefault("siting.run_name", "siting")
	v.SetDefault("siting.method", "minmax")
	v.SetDefault("siting.missing_policy", "midpoint")
	v.SetDefault("siting.top_n", 10)

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
