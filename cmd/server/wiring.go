package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jonboulle/clockwork"

	checkhandler "phraseguard/internal/check/handler"
	checkmetrics "phraseguard/internal/check/metrics"
	checkservice "phraseguard/internal/check/service"
	checkstore "phraseguard/internal/check/store"
	dicthandler "phraseguard/internal/dictionary/handler"
	dictservice "phraseguard/internal/dictionary/service"
	dictstore "phraseguard/internal/dictionary/store"
	embmetrics "phraseguard/internal/embedding/metrics"
	"phraseguard/internal/embedding/provider/ollama"
	embqueue "phraseguard/internal/embedding/queue"
	jobstore "phraseguard/internal/embedding/store/job"
	"phraseguard/internal/events"
	eventmetrics "phraseguard/internal/events/metrics"
	"phraseguard/internal/events/sink"
	httpapi "phraseguard/internal/http"
	"phraseguard/internal/platform/config"
	"phraseguard/internal/platform/kafka"
	"phraseguard/internal/platform/metrics"
	"phraseguard/internal/platform/postgres"
	"phraseguard/internal/platform/redis"
	"phraseguard/internal/queue"
	queuemetrics "phraseguard/internal/queue/metrics"
	rlmetrics "phraseguard/internal/ratelimit/metrics"
	rlmiddleware "phraseguard/internal/ratelimit/middleware"
	rlmodels "phraseguard/internal/ratelimit/models"
	"phraseguard/internal/ratelimit/store/bucket"
)

type checkStore interface {
	checkservice.Store
	queue.StatusRecorder
}

type dictionaryStore interface {
	dictservice.Store
	embqueue.DictionaryStore
}

// app holds everything main starts and stops.
type app struct {
	handler   http.Handler
	queue     *queue.Manager
	embedding *embqueue.Queue
	outbox    *sink.Buffered
	closers   []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{}
	clock := clockwork.NewRealClock()

	var (
		checks     checkStore         = checkstore.NewInMemory()
		dictionary dictionaryStore    = dictstore.NewInMemory()
		jobs       embqueue.JobStore  = jobstore.NewInMemory()
		buckets    rlmiddleware.Store = bucket.NewInMemory(clock)
		db         *sql.DB
	)
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				a.close()
				return nil, err
			}
		}
		checks = checkstore.NewPostgres(db)
		dictionary = dictstore.NewPostgres(db)
		logger.InfoContext(ctx, "using postgres stores")
	} else {
		logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.close()
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, rc.Close)
		jobs = jobstore.NewRedis(rc.Client, jobstore.WithTTL(cfg.Redis.JobTTL))
		buckets = bucket.NewRedis(rc.Client, clock)
	}

	em := eventmetrics.New()
	bus := events.NewBus(events.WithLogger(logger), events.WithMetrics(em))
	kc, err := kafka.New(ctx, cfg.Kafka)
	if err != nil {
		a.close()
		return nil, err
	}
	if kc != nil {
		a.closers = append(a.closers, func() error { kc.Close(); return nil })
		if cfg.Kafka.CreateTopic {
			if err := kafka.EnsureTopic(ctx, kc, cfg.Kafka); err != nil {
				a.close()
				return nil, err
			}
		}
		a.outbox = sink.NewBuffered(sink.NewKafka(kc, cfg.Kafka.EventsTopic),
			sink.WithCapacity(cfg.Kafka.BufferSize),
			sink.WithLogger(logger),
			sink.WithMetrics(em),
		)
		bus.Subscribe(a.outbox)
		logger.InfoContext(ctx, "forwarding events to kafka", "topic", cfg.Kafka.EventsTopic)
	}

	processorOpts := []checkservice.ProcessorOption{
		checkservice.WithProcessorPublisher(bus),
		checkservice.WithProcessorClock(clock),
		checkservice.WithProcessorLogger(logger),
		checkservice.WithSimilarityThreshold(cfg.Detection.SimilarityThreshold),
	}
	dictOpts := []dictservice.Option{
		dictservice.WithPublisher(bus),
		dictservice.WithClock(clock),
		dictservice.WithLogger(logger),
	}
	if cfg.Ollama.EmbeddingModel != "" {
		oc, err := ollama.New(ollama.Config{
			BaseURL:        cfg.Ollama.URL,
			EmbeddingModel: cfg.Ollama.EmbeddingModel,
			RewriteModel:   cfg.Ollama.RewriteModel,
			Timeout:        cfg.Ollama.Timeout,
		}, ollama.WithLogger(logger))
		if err != nil {
			a.close()
			return nil, fmt.Errorf("ollama client: %w", err)
		}
		a.embedding = embqueue.New(dictionary, oc, jobs,
			embqueue.WithConcurrency(cfg.Embedding.Concurrency),
			embqueue.WithBacklog(cfg.Embedding.Backlog),
			embqueue.WithPublisher(bus),
			embqueue.WithClock(clock),
			embqueue.WithLogger(logger),
			embqueue.WithMetrics(embmetrics.New()),
		)
		dictOpts = append(dictOpts, dictservice.WithScheduler(a.embedding))
		processorOpts = append(processorOpts, checkservice.WithEmbedder(oc))
		if cfg.Ollama.RewriteModel != "" {
			processorOpts = append(processorOpts, checkservice.WithRewriter(oc))
		}
	} else {
		logger.WarnContext(ctx, "EMBEDDING_MODEL not set, similarity matching and rewriting disabled")
	}

	cm := checkmetrics.New()
	processor := checkservice.NewProcessor(checks, dictionary,
		append(processorOpts, checkservice.WithProcessorMetrics(cm))...)
	a.queue = queue.NewManager(processor, checks,
		queue.WithMaxConcurrent(cfg.Queue.MaxConcurrent),
		queue.WithJobTimeout(cfg.Queue.JobTimeout),
		queue.WithClock(clock),
		queue.WithLogger(logger),
		queue.WithMetrics(queuemetrics.New()),
	)
	checkSvc := checkservice.New(checks, a.queue,
		checkservice.WithPublisher(bus),
		checkservice.WithClock(clock),
		checkservice.WithLogger(logger),
		checkservice.WithMetrics(cm),
	)
	dictSvc := dictservice.New(dictionary, dictOpts...)

	health := httpapi.NewHealthHandler(logger)
	if db != nil {
		health.Add("postgres", httpapi.CheckerFunc(db.PingContext))
	}
	if rc != nil {
		health.Add("redis", rc)
	}
	if kc != nil {
		health.Add("kafka", httpapi.CheckerFunc(kc.Ping))
	}

	limiter := rlmiddleware.New(buckets, rlmodels.Limit{
		Requests: cfg.RateLimit.CheckSubmissions,
		Window:   cfg.RateLimit.Window,
	}, logger, rlmiddleware.WithClock(clock), rlmiddleware.WithMetrics(rlmetrics.New()))

	a.handler = httpapi.NewRouter(httpapi.RouterConfig{
		Logger:  logger,
		Metrics: metrics.New(),
		Clock:   clock,
		Health:  health,
		Features: []httpapi.Registrar{
			checkhandler.New(checkSvc, a.queue, logger,
				checkhandler.WithSubmitLimiter(limiter.Limit("check_submit"))),
			dicthandler.New(dictSvc, logger),
		},
	})
	return a, nil
}
