package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"bridgit/internal/config"
	"bridgit/internal/logging"
	"bridgit/internal/pipeline"
	"bridgit/internal/publish"
	"bridgit/internal/queue"
	"bridgit/internal/resultstore"
	"bridgit/internal/server"
	"bridgit/internal/synthesize"
	"bridgit/internal/transcribe"
	"bridgit/internal/translate"
	"bridgit/internal/voiceid"
)

// Daemon coordinates the relay's background services and enforces
// single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *resultstore.Store
	dispatcher *queue.Dispatcher
	server     *server.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	swept   chan struct{}
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	APIBind       string
	ResultDBPath  string
	LockFilePath  string
	StoredResults int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	store, err := resultstore.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}

	transport := queue.NewHTTPTransport(queue.HTTPTransportOptions{
		Backoff:        time.Duration(cfg.Queue.RetryBackoff) * time.Second,
		RequestTimeout: time.Duration(cfg.Queue.DeliverTimeout) * time.Second,
		Logger:         logger,
	})
	dispatcher := queue.NewDispatcher(transport, logger)

	pipe := pipeline.New(cfg, pipeline.Deps{
		Dispatcher:  dispatcher,
		Transcriber: transcribe.NewService(cfg),
		Translator:  translate.NewService(cfg),
		Synthesizer: synthesize.NewService(cfg),
		Tagger:      voiceid.NewService(cfg),
		Results:     store,
		Publisher:   publish.NewService(cfg),
		Logger:      logger,
	})

	lockPath := filepath.Join(cfg.Paths.LogDir, "bridgitd.lock")
	return &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		dispatcher: dispatcher,
		server:     server.New(cfg, pipe, store, logger),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
		swept:      make(chan struct{}),
	}, nil
}

// Start acquires the daemon lock, binds the API server, and launches the
// eviction sweeper.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another bridgit daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.server.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}

	d.swept = make(chan struct{})
	go d.sweepLoop(d.ctx)

	d.running.Store(true)
	d.logger.Info("bridgit daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.server.Addr()),
	)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.Stop()
	d.dispatcher.Close()
	<-d.swept
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("bridgit daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API server's bound address.
func (d *Daemon) Addr() string {
	return d.server.Addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	count, err := d.store.Count(ctx)
	if err != nil {
		count = -1
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		APIBind:       d.server.Addr(),
		ResultDBPath:  d.store.Path(),
		LockFilePath:  d.lockPath,
		StoredResults: count,
	}
}

// sweepLoop evicts expired result entries on the configured interval until
// the context is cancelled.
func (d *Daemon) sweepLoop(ctx context.Context) {
	defer close(d.swept)

	interval := time.Duration(d.cfg.Results.SweepInterval) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := logging.NewComponentLogger(d.logger, "sweeper")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := d.store.Sweep(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("result sweep failed", logging.Error(err))
				}
				continue
			}
			if removed > 0 {
				log.Debug("expired results evicted", logging.Int("removed", int(removed)))
			}
		}
	}
}
