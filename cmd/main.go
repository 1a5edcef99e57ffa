package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"uploader/internal/api"
	"uploader/internal/config"
	fileutil "uploader/internal/file"
	"uploader/internal/storage"
	"uploader/internal/task"
)

func main() {

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(config.Path("config.yml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setLogLevel(cfg.LogLevel)

	if err := fileutil.EnsureDir(cfg.UploadDir); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("ensure upload dir")
	}
	log.Info().Str("dir", cfg.UploadDir).Msg("upload directory ready")

	writer, err := buildWriter(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("init storage backend")
	}

	var compressed storage.Writer
	if cfg.Compress {
		compressed, err = buildCompressedWriter(context.Background(), cfg)
		if err != nil {
			log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("init compressed storage")
		}
	}

	taskManager := task.NewManagerWithOptions(task.Options{
		Writer:              writer,
		MaxConcurrentWrites: cfg.MaxConcurrentWrites,
		Compressed:          compressed,
	})

	router := setupRouter()
	wireAPI(router, taskManager)

	const (
		readHeaderTimeout = 5 * time.Second
		shutdownTimeout   = 10 * time.Second
	)

	// a port that cannot be bound must fail startup
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		log.Fatal().Err(err).Int("port", cfg.Port).Msg("bind listener")
	}
	srv := newHTTPServer(router, readHeaderTimeout)

	go func() {
		log.Info().Str("addr", listener.Addr().String()).Msg("server listening")
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdownSignal()

	gracefulShutdown(srv, taskManager, shutdownTimeout)
}

func setLogLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		log.Warn().Str("log_level", level).Msg("unknown log level, keeping info")
		return
	}
	zerolog.SetGlobalLevel(parsed)
}

func setupRouter() *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(api.ZerologLogger())
	r.Use(api.PermissiveCORS())
	return r
}

func buildWriter(ctx context.Context, cfg config.Config) (storage.Writer, error) { //nolint:ireturn
	if cfg.Storage.Backend != config.BackendS3 {
		return storage.NewFS(cfg.UploadDir), nil
	}
	return newS3Writer(ctx, cfg.Storage.S3, cfg.Storage.S3.Prefix)
}

// buildCompressedWriter returns the destination for gzip copies. It never
// shares a namespace with the upload writer: a separate directory on fs, a
// nested prefix on s3 (upload names cannot contain '/').
func buildCompressedWriter(ctx context.Context, cfg config.Config) (storage.Writer, error) { //nolint:ireturn
	if cfg.Storage.Backend != config.BackendS3 {
		if err := fileutil.EnsureDir(cfg.CompressDir); err != nil {
			return nil, err
		}
		log.Info().Str("dir", cfg.CompressDir).Msg("compressed directory ready")
		return storage.NewFS(cfg.CompressDir), nil
	}
	return newS3Writer(ctx, cfg.Storage.S3, path.Join(cfg.Storage.S3.Prefix, "compressed"))
}

func newS3Writer(ctx context.Context, s3cfg config.S3Config, prefix string) (storage.Writer, error) { //nolint:ireturn
	w, err := storage.NewS3(ctx, storage.S3Options{
		Bucket:    s3cfg.Bucket,
		Region:    s3cfg.Region,
		Endpoint:  s3cfg.Endpoint,
		AccessKey: s3cfg.AccessKey,
		SecretKey: s3cfg.SecretKey,
		Prefix:    prefix,
		PathStyle: s3cfg.PathStyle,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 writer: %w", err)
	}
	return w, nil
}

func wireAPI(router *gin.Engine, tm *task.Manager) {
	apiHandler := api.NewAPI(tm)
	apiHandler.RegisterRoutes(router)
	apiHandler.RegisterUIRoutes(router)
}

func newHTTPServer(handler http.Handler, readHeaderTimeout time.Duration) *http.Server {
	return &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func waitForShutdownSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutdown signal received")
}

func gracefulShutdown(srv *http.Server, tm *task.Manager, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http server shutdown warning")
	}

	done := tm.WaitAll(ctx)
	if !done {
		log.Warn().Msg("background writes did not finish before timeout")
	}
	log.Info().Msg("server exited cleanly")
}
