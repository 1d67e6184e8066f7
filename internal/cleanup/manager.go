package cleanup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"blog-api/internal/metrics"
	"blog-api/internal/storage"
)

// Manager removes media objects that no post references any more.
type Manager interface {
	Start(ctx context.Context) error
	Shutdown()
	// Enqueue schedules deletion of publicURL. It never blocks the caller.
	Enqueue(publicURL string)
}

type Config struct {
	MaxConcurrent int
	Timeout       time.Duration
	Logger        *logrus.Logger
	Metrics       *metrics.Metrics
}

type manager struct {
	cfg   Config
	store storage.MediaStore

	sem     chan struct{}
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	running bool
	pending map[string]struct{}
}

func NewManager(cfg Config, store storage.MediaStore) Manager {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &manager{
		cfg:     cfg,
		store:   store,
		sem:     make(chan struct{}, cfg.MaxConcurrent),
		pending: make(map[string]struct{}),
	}
}

func (m *manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("cleanup manager already running")
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.running = true
	m.cfg.Logger.Infof("media cleanup started, workers: %d", m.cfg.MaxConcurrent)
	return nil
}

// Shutdown stops accepting work and waits for queued deletions to finish.
func (m *manager) Shutdown() {
	m.mu.Lock()
	wasRunning := m.running
	m.running = false
	m.mu.Unlock()

	m.wg.Wait()
	if m.cancel != nil {
		m.cancel()
	}
	if wasRunning {
		m.cfg.Logger.Info("media cleanup stopped")
	}
}

func (m *manager) Enqueue(publicURL string) {
	if publicURL == "" {
		return
	}

	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		m.cfg.Logger.WithField("url", publicURL).Warn("media cleanup not running, object left in place")
		m.cfg.Metrics.Cleanup("dropped")
		return
	}
	if _, dup := m.pending[publicURL]; dup {
		m.mu.Unlock()
		return
	}
	m.pending[publicURL] = struct{}{}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer m.unregister(publicURL)
		select {
		case <-m.ctx.Done():
			m.cfg.Metrics.Cleanup("dropped")
			return
		case m.sem <- struct{}{}:
			defer func() { <-m.sem }()
			m.handle(publicURL)
		}
	}()
}

func (m *manager) unregister(publicURL string) {
	m.mu.Lock()
	delete(m.pending, publicURL)
	m.mu.Unlock()
}

func (m *manager) handle(publicURL string) {
	ctx, cancel := context.WithTimeout(m.ctx, m.cfg.Timeout)
	defer cancel()

	log := m.cfg.Logger.WithField("url", publicURL)
	if err := m.store.DeleteMedia(ctx, publicURL); err != nil {
		log.Warnf("delete orphaned media: %v", err)
		m.cfg.Metrics.Cleanup("failed")
		return
	}
	log.Debug("orphaned media deleted")
	m.cfg.Metrics.Cleanup("deleted")
}
