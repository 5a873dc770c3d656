package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"imgforge/internal/adapters/httpd"
	"imgforge/internal/adapters/processor"
	"imgforge/internal/adapters/storage"
	"imgforge/internal/core/domain"
	"imgforge/internal/core/domain/modifier"
	"imgforge/internal/core/port"
	"imgforge/internal/core/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type presetConfig struct {
	Modifiers  map[string]string `mapstructure:"modifiers"`
	Descriptor string            `mapstructure:"descriptor"`
	Default    string            `mapstructure:"default"`
	Widths     []int             `mapstructure:"widths"`
	Densities  []float64         `mapstructure:"densities"`
}

func main() {
	log.Info().Msg("starting imgforge...")

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")
	setDefaults()

	log.Info().Msg("reading config file...")
	if err := viper.ReadInConfig(); err != nil {
		log.Fatal().Err(err).Msg("could not read config file")
	}

	var logLevel zerolog.Level
	switch viper.GetString("server.log_level") {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	default:
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	cfg := loadConfig()

	registry, err := modifier.NewRegistry(modifier.Builtins()...)
	if err != nil {
		log.Fatal().Err(err).Msg("failed building modifier registry")
	}
	codec := modifier.NewCodec(registry, cfg.Codec)

	presets, err := loadPresets(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("failed building preset table")
	}

	var signer port.Signer
	if cfg.Sign.Key != "" {
		s, err := service.NewHMACSigner(cfg.Sign)
		if err != nil {
			log.Fatal().Err(err).Msg("failed building request signer")
		}
		signer = s
		log.Info().Str("algorithm", cfg.Sign.Algorithm).Msg("request signing enabled")
	}

	types := domain.DefaultTypes()
	sourceTier := storage.NewLocal(cfg.Storage.SourceRoot)
	cacheTier := storage.NewLocal(cfg.Storage.CacheRoot)

	pipeline := service.NewPipeline(processor.NewImagingProcessor(), cfg.Encode, types)
	persister := service.NewPersister(sourceTier, cacheTier, codec, registry, pipeline)

	noImage, err := service.NewNoImageResolver(cfg.NoImage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed building no-image resolver")
	}

	server := service.NewImageServer(cfg.Server, cfg.Link, types, registry, codec, presets,
		persister, noImage, signer, service.BuildValidators(cfg.Limits))

	linker := service.NewLinkGenerator(cfg.Link, codec, presets, signer)
	srcset := service.NewSrcSetGenerator(linker)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	httpd.NewHandler(server, persister, linker, srcset, registry, cfg.Server.BasePath).Register(e)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go func() {
		log.Info().Str("addr", cfg.Server.ListenAddr).Msg("image server listening")
		if err := e.Start(cfg.Server.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("image server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	log.Info().Msg("image server stopped")
}

func setDefaults() {
	viper.SetDefault("server.listen_addr", ":8080")
	viper.SetDefault("server.cache_max_age", 86400)
	viper.SetDefault("codec.separator", modifier.DefaultSeparator)
	viper.SetDefault("codec.assigner", modifier.DefaultAssigner)
	viper.SetDefault("link.version_param", "_v")
	viper.SetDefault("link.signature_param", "_s")
	viper.SetDefault("sign.algorithm", "sha256")
	viper.SetDefault("encode.default_quality", 90)
	viper.SetDefault("encode.default_format", "jpg")
	viper.SetDefault("storage.source_root", "data/source")
	viper.SetDefault("storage.cache_root", "data/cache")
}

func loadConfig() domain.Config {
	cfg := domain.Config{
		Server: domain.ServerConfig{
			ListenAddr:  viper.GetString("server.listen_addr"),
			BasePath:    viper.GetString("server.base_path"),
			CacheMaxAge: viper.GetInt("server.cache_max_age"),
		},
		Codec: domain.CodecConfig{
			Separator: viper.GetString("codec.separator"),
			Assigner:  viper.GetString("codec.assigner"),
		},
		Link: domain.LinkConfig{
			Host:           viper.GetString("link.host"),
			BasePath:       viper.GetString("server.base_path"),
			VersionParam:   viper.GetString("link.version_param"),
			SignatureParam: viper.GetString("link.signature_param"),
		},
		Sign: domain.SignConfig{
			Key:       viper.GetString("sign.key"),
			Algorithm: viper.GetString("sign.algorithm"),
		},
		Encode: domain.EncodeConfig{
			DefaultQuality: viper.GetInt("encode.default_quality"),
			DefaultFormat:  viper.GetString("encode.default_format"),
		},
		Storage: domain.StorageConfig{
			SourceRoot: viper.GetString("storage.source_root"),
			CacheRoot:  viper.GetString("storage.cache_root"),
		},
	}

	if err := viper.UnmarshalKey("limits", &cfg.Limits); err != nil {
		log.Fatal().Err(err).Msg("invalid limits configuration")
	}
	if err := viper.UnmarshalKey("noimage", &cfg.NoImage); err != nil {
		log.Fatal().Err(err).Msg("invalid no-image configuration")
	}

	return cfg
}

func loadPresets(registry *modifier.Registry) (*modifier.PresetTable, error) {
	raw := map[string]presetConfig{}
	if err := viper.UnmarshalKey("presets", &raw); err != nil {
		return nil, err
	}

	table := modifier.NewPresetTable()
	for alias, pc := range raw {
		preset := modifier.Preset{
			Modifiers:              pc.Modifiers,
			DefaultDescriptorValue: pc.Default,
		}

		switch pc.Descriptor {
		case "w":
			preset.Descriptor = service.NewWDescriptor(registry, pc.Widths)
		case "x":
			preset.Descriptor = service.NewXDescriptor(registry, pc.Densities)
		case "":
		default:
			log.Fatal().Str("preset", alias).Str("descriptor", pc.Descriptor).
				Msg("unknown descriptor kind")
		}

		table.Add(alias, preset)
		log.Info().Str("preset", alias).Msg("adding preset to table")
	}

	return table, nil
}
