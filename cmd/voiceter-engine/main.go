package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	"github.com/Acsight/voiceter-website-sub002/internal/dotenv"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/audio"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/config"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/lifecycle"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/metrics"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/recovery"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/server"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/session"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/shutdown"
	"github.com/Acsight/voiceter-website-sub002/pkg/gateway/tools"
	"github.com/Acsight/voiceter-website-sub002/pkg/survey"
)

type engineDeps struct {
	loadConfig   func() (config.Config, error)
	newStore     func(ctx context.Context, cfg config.Config) (session.Store, error)
	newObjects   func(ctx context.Context, cfg config.Config) (audio.ObjectStore, error)
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultEngineDeps() engineDeps {
	return engineDeps{
		loadConfig: config.LoadFromEnv,
		newStore:   buildStore,
		newObjects: buildObjectStore,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) {
			signal.Notify(c, sig...)
		},
		signalStop: signal.Stop,
	}
}

// buildStore picks Redis when configured, otherwise the in-process store.
func buildStore(ctx context.Context, cfg config.Config) (session.Store, error) {
	if cfg.RedisAddr == "" {
		return session.NewMemoryStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return session.NewRedisStore(client, cfg.SessionTTL, cfg.SnapshotTTL), nil
}

// buildObjectStore wires S3 for recordings when a bucket is configured.
// Without one, recordings are assembled but never uploaded.
func buildObjectStore(ctx context.Context, cfg config.Config) (audio.ObjectStore, error) {
	if cfg.RecordingBucket == "" {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return audio.NewS3Store(s3.NewFromConfig(awsCfg), cfg.RecordingBucket), nil
}

func loadQuestionnaires(registry *survey.Registry, paths []string, logger *slog.Logger) error {
	for _, path := range paths {
		q, err := registry.LoadFile(path)
		if err != nil {
			return fmt.Errorf("load questionnaire %q: %w", path, err)
		}
		logger.Info("questionnaire loaded", "id", q.ID, "questions", len(q.Questions), "path", path)
	}
	return nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runEngine(ctx context.Context, logger *slog.Logger, deps engineDeps) error {
	if deps.loadConfig == nil || deps.newStore == nil || deps.newObjects == nil {
		return errors.New("missing engine dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	registry := survey.NewRegistry()
	if err := loadQuestionnaires(registry, cfg.QuestionnaireFiles, logger); err != nil {
		return err
	}

	store, err := deps.newStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build session store: %w", err)
	}
	objects, err := deps.newObjects(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build object store: %w", err)
	}

	m := metrics.New(cfg.MetricsNamespace)
	manager := session.NewManager(store, registry, logger)
	dispatcher := tools.NewDispatcher(manager, logger)
	recorder := audio.NewRecorder(objects, m, logger)
	tracker := session.NewTracker()
	lc := &lifecycle.Lifecycle{}
	ctrl := recovery.New(logger, m).
		WithPolicy(cfg.RetryBaseDelay, cfg.RetryMaxDelay, uint64(cfg.RetryMaxRetries))

	srv := server.New(cfg, logger, server.Deps{
		Sessions:   manager,
		Dispatcher: dispatcher,
		Recorder:   recorder,
		Tracker:    tracker,
		Lifecycle:  lc,
		Metrics:    m,
		Recovery:   ctrl,
	})
	httpSrv := buildHTTPServer(cfg, srv.Handler())

	logger.Info("starting engine",
		"addr", cfg.Addr,
		"questionnaires", len(cfg.QuestionnaireFiles),
		"redis", cfg.RedisAddr != "",
		"recording_bucket", cfg.RecordingBucket)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	coordinator := shutdown.New(lc, tracker, manager, m, logger, cfg.ShutdownGracePeriod)
	if err := coordinator.Run(context.Background(), httpSrv); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("engine stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps engineDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.Load(".env"); err != nil {
		fmt.Fprintf(stderr, "voiceter-engine: %v\n", err)
		return 1
	}

	if err := runEngine(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "voiceter-engine: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultEngineDeps()))
}
