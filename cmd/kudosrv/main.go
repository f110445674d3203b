package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/kudocloud/kudo-internal/internal/common/logtrace"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/config"
	"github.com/kudocloud/kudo-internal/internal/resourcesrv/server"
)

func init() {
	logtrace.InitLogger()
}

type cmdoptions struct {
	configFile *string
}

func main() {
	slog := log.With().Str("state", "init").Logger()
	opt := parseFlags()

	if *opt.configFile != "" {
		slog.Info().Str("config_file", *opt.configFile).Msg("loading config file")
		if err := config.LoadConfig(*opt.configFile); err != nil {
			slog.Error().Str("config_file", *opt.configFile).Err(err).Msg("unable to load config file")
			os.Exit(1)
		}
	} else {
		slog.Info().Msg("no config file given, using built-in defaults")
	}

	ctx := log.Logger.WithContext(context.Background())
	s, err := server.CreateNewServer(ctx)
	if err != nil {
		slog.Error().Err(err).Msg("unable to create server")
		os.Exit(1)
	}
	if err := s.MountHandlers(); err != nil {
		slog.Error().Err(err).Msg("unable to mount handlers")
		os.Exit(1)
	}

	addr := ":" + config.Config().ServerPort
	slog.Info().Str("addr", addr).Str("store", config.Config().Store.Backend).Msg("resource server listening")
	if err := http.ListenAndServe(addr, s.Router); err != nil {
		slog.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

func parseFlags() cmdoptions {
	var opt cmdoptions
	opt.configFile = flag.String("config", "", "Path to the config file")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [options]\n\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
	}
	flag.Parse()
	return opt
}
