package control

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"purifygate/pkg/config"
	"purifygate/pkg/engine"
	"purifygate/pkg/metrics"
	"purifygate/pkg/wordlist"
)

// Reload results.
const (
	resultOK      = "ok"
	resultMissing = "missing"
	resultError   = "error"
)

// Watcher follows the Redis control plane: the pipeline manifest, the
// banned word set and the update channel announcing changes to either.
type Watcher struct {
	client   redis.UniversalClient
	cfg      config.RedisConfig
	pipeline *engine.Pipeline
	builder  *Builder
	sources  *WordSources
	store    *wordlist.RedisStore
	logger   *zap.Logger
}

func NewWatcher(client redis.UniversalClient, cfg config.RedisConfig, pipeline *engine.Pipeline,
	builder *Builder, sources *WordSources, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		client:   client,
		cfg:      cfg,
		pipeline: pipeline,
		builder:  builder,
		sources:  sources,
		store:    wordlist.NewRedisStore(client, cfg.WordsKey, cfg.Channel),
		logger:   logger.Named("control"),
	}
}

// Store returns the word set the watcher follows.
func (w *Watcher) Store() *wordlist.RedisStore {
	return w.store
}

// Start loads the current state, subscribes to the update channel and
// follows it in the background until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("starting config watcher", zap.String("channel", w.cfg.Channel))

	// 1. Initial Load
	w.Reload(ctx, "")

	// 2. Subscribe to updates
	pubsub := w.client.Subscribe(ctx, w.cfg.Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return errors.Wrapf(err, "subscribe %s", w.cfg.Channel)
	}
	ch := pubsub.Channel()

	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				w.logger.Info("received update signal", zap.String("payload", msg.Payload))
				w.Reload(ctx, msg.Payload)
			}
		}
	}()
	return nil
}

// Reload applies an update signal. The "words" payload reloads only the
// word set; anything else reloads the manifest too.
func (w *Watcher) Reload(ctx context.Context, payload string) {
	w.reloadWords(ctx)
	if payload != wordlist.ReloadWords {
		w.reloadManifest(ctx)
	}
}

func (w *Watcher) reloadWords(ctx context.Context) {
	words, err := w.store.Load(ctx)
	if err != nil {
		metrics.Reloads.WithLabelValues(SourceRedis, resultError).Inc()
		w.logger.Error("failed to fetch words", zap.Error(err))
		return
	}
	w.sources.Set(SourceRedis, words)
	metrics.Reloads.WithLabelValues(SourceRedis, resultOK).Inc()
	w.logger.Info("word set reloaded", zap.Int("redis_words", len(words)))
}

func (w *Watcher) reloadManifest(ctx context.Context) {
	val, err := w.client.Get(ctx, w.cfg.ConfigKey).Bytes()
	if err == redis.Nil {
		metrics.Reloads.WithLabelValues("manifest", resultMissing).Inc()
		w.logger.Info("no config found in Redis, keeping current state")
		return
	} else if err != nil {
		metrics.Reloads.WithLabelValues("manifest", resultError).Inc()
		w.logger.Error("failed to fetch config", zap.Error(err))
		return
	}

	cfg, err := ParseManifest(val)
	if err != nil {
		metrics.Reloads.WithLabelValues("manifest", resultError).Inc()
		w.logger.Error("invalid config", zap.Error(err))
		return
	}

	w.pipeline.UpdateChain(w.builder.Chain(cfg.Processors))
	w.pipeline.UpdateOutput(w.builder.Outputs(cfg.Outputs))
	// Pipeline treats values below 1 as the default
	w.pipeline.UpdateBatchSize(int64(cfg.BatchSize))

	metrics.Reloads.WithLabelValues("manifest", resultOK).Inc()
	w.logger.Info("manifest applied", zap.String("pipeline", cfg.Name))
}
