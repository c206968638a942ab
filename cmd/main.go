package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"

	"livebets/livematch/cmd/config"
	"livebets/livematch/internal/api"
	"livebets/livematch/internal/feed"
	"livebets/livematch/internal/matcher"
	"livebets/livematch/internal/parse"
	"livebets/livematch/internal/sender"
	"livebets/livematch/internal/service"
	"livebets/livematch/internal/store"
)

func main() {
	ctx, cancelFunc := context.WithCancel(context.Background())

	// Init config
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	logger.Info().Msg(">> Starting livematch")
	appConfig, err := config.ProvideAppConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load app configuration")
	}

	level, err := zerolog.ParseLevel(appConfig.LogLevel)
	if err != nil {
		logger.Warn().Err(err).Str("log_level", appConfig.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	predictions := store.New()
	normalizer := parse.NewNormalizer(appConfig.NormalizerConfig.Aliases)
	pairing := matcher.New(normalizer, appConfig.MatcherConfig.MaxDistance)

	var source service.PredictionSource
	if appConfig.PredictionConfig.Url != "" {
		source = api.New(appConfig.PredictionConfig)
	} else {
		logger.Warn().Msg("prediction.url not set, relying on pushed predictions")
	}

	dialer := feed.NewWebsocketDialer(appConfig.FeedConfig)
	opts := service.OptionsFromConfig(appConfig.FeedConfig, appConfig.PredictionConfig, appConfig.MergeConfig)
	session := service.New(dialer, source, predictions, pairing, &logger, opts)

	sender := sender.New(session, &logger)
	session.OnPublish(sender.Publish)

	wg := &sync.WaitGroup{}

	wg.Add(1)
	go sender.SendingToClients(ctx, wg)

	wg.Add(1)
	go func() {
		defer wg.Done()
		session.Run(ctx)
	}()

	server := &http.Server{Addr: ":" + appConfig.Port, Handler: sender.Handler()}

	go func() {
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	cancelFunc()
	wg.Wait()

	if err = server.Shutdown(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("failed to stop server")
	}

	logger.Info().Msg(">> Stopping livematch")
}
