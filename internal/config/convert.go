package config

import (
	"strings"

	"github.com/danmuck/txwire/internal/logging"
	"github.com/danmuck/txwire/internal/pipeline"
	"github.com/danmuck/txwire/internal/protocol/convert"
)

// PipelineConfig maps the codec section onto pipeline settings.
func PipelineConfig(cfg ServiceConfig) (pipeline.Config, error) {
	policy, err := convert.ParseSizePolicy(cfg.Codec.MissingMetaSize)
	if err != nil {
		return pipeline.Config{}, err
	}
	return pipeline.Config{
		Node:            cfg.Name,
		MissingMetaSize: policy,
		Validate:        cfg.Codec.Validate,
	}, nil
}

// LoggingConfig applies the log section on top of the runtime profile and
// the environment. The environment wins.
func LoggingConfig(cfg ServiceConfig, getenv func(string) string) logging.Config {
	out := logging.DefaultConfig(logging.ProfileRuntime)
	if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
		out.Level = lvl
	}
	if strings.EqualFold(strings.TrimSpace(cfg.Log.Format), "json") {
		out.JSON = true
	}
	logging.ApplyEnvOverrides(&out, getenv)
	return out
}
