// Package config defines the run configuration of mlcv and loads it from
// files, MLCV_* environment variables and command-line flags.
package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mrinference/mlcv/dataset"
	"github.com/mrinference/mlcv/pkg/errors"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. MLCV_CV_FOLDS.
const EnvPrefix = "MLCV"

type Config struct {
	Data  DataConfig  `mapstructure:"data"`
	CV    CVConfig    `mapstructure:"cv"`
	Model ModelConfig `mapstructure:"model"`
	Log   LogConfig   `mapstructure:"log"`
}

// DataConfig describes where the dataset lives and its column layout.
type DataConfig struct {
	Source       string   `mapstructure:"source"`
	IDColumn     string   `mapstructure:"id_column" validate:"required"`
	TargetColumn string   `mapstructure:"target_column" validate:"required"`
	FeatureStart int      `mapstructure:"feature_start" validate:"gte=0"`
	GroupColumns []string `mapstructure:"group_columns"`
}

type CVConfig struct {
	Folds    int    `mapstructure:"folds" validate:"gte=2"`
	Seed     uint64 `mapstructure:"seed"`
	Stratify bool   `mapstructure:"stratify"`
	Workers  int    `mapstructure:"workers" validate:"gte=0"`
}

// ModelConfig holds the LinearSVC hyperparameters and the scaler choice.
type ModelConfig struct {
	C                float64 `mapstructure:"c" validate:"gt=0"`
	Loss             string  `mapstructure:"loss" validate:"oneof=hinge squared_hinge"`
	MaxIter          int     `mapstructure:"max_iter" validate:"gte=1"`
	Tol              float64 `mapstructure:"tol" validate:"gt=0"`
	FitIntercept     bool    `mapstructure:"fit_intercept"`
	InterceptScaling float64 `mapstructure:"intercept_scaling" validate:"gt=0"`
	Scaler           string  `mapstructure:"scaler" validate:"oneof=standard minmax none"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Default returns the configuration of the MRI tutorial: 10 stratified
// folds, seed 1, hinge loss with C=1 and z-scored features.
func Default() *Config {
	load := dataset.DefaultLoadOptions()
	return &Config{
		Data: DataConfig{
			IDColumn:     load.IDColumn,
			TargetColumn: load.TargetColumn,
			FeatureStart: load.FeatureStart,
		},
		CV: CVConfig{
			Folds:    10,
			Seed:     1,
			Stratify: true,
			Workers:  1,
		},
		Model: ModelConfig{
			C:                1.0,
			Loss:             "hinge",
			MaxIter:          1000,
			Tol:              1e-4,
			FitIntercept:     true,
			InterceptScaling: 1.0,
			Scaler:           "standard",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// FlagKeys maps command-line flag names to config keys. Only flags present
// in the FlagSet passed to Load are bound.
var FlagKeys = map[string]string{
	"data":          "data.source",
	"id-column":     "data.id_column",
	"target-column": "data.target_column",
	"feature-start": "data.feature_start",
	"group-columns": "data.group_columns",
	"folds":         "cv.folds",
	"seed":          "cv.seed",
	"stratify":      "cv.stratify",
	"workers":       "cv.workers",
	"c":             "model.c",
	"loss":          "model.loss",
	"max-iter":      "model.max_iter",
	"tol":           "model.tol",
	"scaler":        "model.scaler",
	"log-level":     "log.level",
	"log-format":    "log.format",
}

// Load builds a Config from defaults, an optional config file (YAML, TOML
// or JSON by extension), MLCV_* environment variables and changed flags,
// in increasing order of precedence. The result is validated.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag --%s", name)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every leaf of cfg so that AutomaticEnv can see
// keys that appear in no config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	var walk func(prefix string, rv reflect.Value)
	walk = func(prefix string, rv reflect.Value) {
		rt := rv.Type()
		for i := 0; i < rt.NumField(); i++ {
			key := rt.Field(i).Tag.Get("mapstructure")
			if prefix != "" {
				key = prefix + "." + key
			}
			if rv.Field(i).Kind() == reflect.Struct {
				walk(key, rv.Field(i))
				continue
			}
			v.SetDefault(key, rv.Field(i).Interface())
		}
	}
	walk("", reflect.ValueOf(cfg).Elem())
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Validate checks every field constraint and reports the first violation
// as a ValidationError whose parameter is the dotted config key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		reason := fe.Tag()
		if fe.Param() != "" {
			reason = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		return errors.NewValidationError(key, "must satisfy "+reason, fe.Value())
	}
	return errors.Wrap(err, "validate config")
}

// LoadOptions converts the data section into dataset loader options.
func (c *Config) LoadOptions() dataset.LoadOptions {
	return dataset.LoadOptions{
		IDColumn:     c.Data.IDColumn,
		TargetColumn: c.Data.TargetColumn,
		FeatureStart: c.Data.FeatureStart,
		GroupColumns: c.Data.GroupColumns,
	}
}
