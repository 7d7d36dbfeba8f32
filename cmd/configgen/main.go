package main

import (
	"flag"

	"github.com/danmuck/txwire/internal/config"
	"github.com/danmuck/txwire/internal/logging"
	"github.com/rs/zerolog/log"
)

const defaultPath = "cmd/txwired/config.toml"

func main() {
	logging.ConfigureRuntime()

	kind := flag.String("kind", "service", "config kind: service")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to "+defaultPath+")")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if _, err := config.Template(*kind); err != nil {
		log.Fatal().Err(err).Msg("configgen")
	}

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath
		}
		cfg, err := config.LoadServiceConfig(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("config invalid")
		}
		log.Info().
			Str("kind", *kind).
			Str("path", path).
			Str("name", cfg.Name).
			Str("missing_meta_size", cfg.Codec.MissingMetaSize).
			Msg("validated config")
		return
	}

	target := *output
	if target == "" {
		target = defaultPath
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Str("path", target).Msg("write template")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}
