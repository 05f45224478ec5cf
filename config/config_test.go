package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrinference/mlcv/pkg/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.CV.Folds)
	assert.Equal(t, uint64(1), cfg.CV.Seed)
	assert.True(t, cfg.CV.Stratify)
	assert.Equal(t, "hinge", cfg.Model.Loss)
	assert.Equal(t, 1.0, cfg.Model.C)
	assert.Equal(t, "standard", cfg.Model.Scaler)
	assert.Equal(t, "ID", cfg.LoadOptions().IDColumn)
	assert.Equal(t, 3, cfg.LoadOptions().FeatureStart)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, want.CV, cfg.CV)
	assert.Equal(t, want.Model, cfg.Model)
	assert.Equal(t, want.Log, cfg.Log)
	assert.Equal(t, want.LoadOptions().TargetColumn, cfg.LoadOptions().TargetColumn)
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "mlcv.yaml", "cv:\n  folds: 5\n  seed: 42\nmodel:\n  loss: squared_hinge\n  c: 0.5\n"},
		{"toml", "mlcv.toml", "[cv]\nfolds = 5\nseed = 42\n[model]\nloss = \"squared_hinge\"\nc = 0.5\n"},
		{"json", "mlcv.json", `{"cv": {"folds": 5, "seed": 42}, "model": {"loss": "squared_hinge", "c": 0.5}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.file)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o600))

			cfg, err := Load(path, nil)
			require.NoError(t, err)
			assert.Equal(t, 5, cfg.CV.Folds)
			assert.Equal(t, uint64(42), cfg.CV.Seed)
			assert.Equal(t, "squared_hinge", cfg.Model.Loss)
			assert.Equal(t, 0.5, cfg.Model.C)
			// untouched keys keep their defaults
			assert.True(t, cfg.CV.Stratify)
			assert.Equal(t, 1000, cfg.Model.MaxIter)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mlcv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cv:\n  folds: 5\n  workers: 2\n"), 0o600))

	t.Setenv("MLCV_CV_FOLDS", "4")
	t.Setenv("MLCV_LOG_LEVEL", "debug")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("folds", 10, "")
	flags.Int("workers", 1, "")
	flags.String("loss", "hinge", "")
	require.NoError(t, flags.Parse([]string{"--folds", "3"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.CV.Folds, "changed flag wins")
	assert.Equal(t, 2, cfg.CV.Workers, "file beats unchanged flag default")
	assert.Equal(t, "debug", cfg.Log.Level, "env applies without a file entry")
	assert.Equal(t, "hinge", cfg.Model.Loss)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"folds", func(c *Config) { c.CV.Folds = 1 }, "cv.folds"},
		{"workers", func(c *Config) { c.CV.Workers = -1 }, "cv.workers"},
		{"C", func(c *Config) { c.Model.C = 0 }, "model.c"},
		{"loss", func(c *Config) { c.Model.Loss = "log" }, "model.loss"},
		{"max_iter", func(c *Config) { c.Model.MaxIter = 0 }, "model.max_iter"},
		{"tol", func(c *Config) { c.Model.Tol = -1 }, "model.tol"},
		{"intercept_scaling", func(c *Config) { c.Model.InterceptScaling = 0 }, "model.intercept_scaling"},
		{"scaler", func(c *Config) { c.Model.Scaler = "robust" }, "model.scaler"},
		{"id_column", func(c *Config) { c.Data.IDColumn = "" }, "data.id_column"},
		{"feature_start", func(c *Config) { c.Data.FeatureStart = -1 }, "data.feature_start"},
		{"log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.key, ve.ParamName)
		})
	}
}

func TestLoadRejectsInvalidEnv(t *testing.T) {
	t.Setenv("MLCV_MODEL_LOSS", "logistic")
	_, err := Load("", nil)
	var ve *errors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "model.loss", ve.ParamName)
}
