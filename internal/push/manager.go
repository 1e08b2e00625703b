package push

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"poker-ledger/internal/ledger"
	"poker-ledger/internal/push/platforms"

	"github.com/rs/zerolog/log"
)

type breakerState struct {
	consecutiveFailures int
	openUntil           time.Time
}

// Manager implements ledger.Observer. OnRecorded never blocks on delivery.
type Manager struct {
	cfg      Config
	router   Router
	adapters map[string]platforms.Adapter

	dispatchCh chan pushJob
	retryQ     *retryQueue
	done       chan struct{}

	flushMu      sync.Mutex
	mu           sync.Mutex
	started      bool
	panelByKey   map[string]*panelState
	breakerByKey map[string]breakerState
}

func NewManager(cfg Config) *Manager {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Second
	}
	client := platforms.NewHTTPClient(cfg.RequestTimeout)
	adapters := map[string]platforms.Adapter{
		"discord": platforms.NewDiscordAdapter(client),
		"feishu":  platforms.NewFeishuAdapter(client),
	}
	if cfg.DispatchBuffer <= 0 {
		cfg.DispatchBuffer = 1024
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.PanelUpdateInterval <= 0 {
		cfg.PanelUpdateInterval = time.Second
	}
	if cfg.PanelRecentLines <= 0 {
		cfg.PanelRecentLines = 5
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.CircuitOpenDuration <= 0 {
		cfg.CircuitOpenDuration = 30 * time.Second
	}

	m := &Manager{
		cfg:          cfg,
		router:       Router{},
		adapters:     adapters,
		dispatchCh:   make(chan pushJob, cfg.DispatchBuffer),
		done:         make(chan struct{}),
		panelByKey:   map[string]*panelState{},
		breakerByKey: map[string]breakerState{},
	}
	m.retryQ = newRetryQueue(m.dispatchCh, m.done)
	return m
}

func (m *Manager) Start(ctx context.Context) error {
	if !m.cfg.Enabled {
		return nil
	}

	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	for i := 0; i < m.cfg.Workers; i++ {
		go m.worker(ctx)
	}
	if m.cfg.ConfigPath != "" {
		go m.watchConfigLoop(ctx)
	}
	go m.flushPanelsLoop(ctx)
	go func() {
		<-ctx.Done()
		close(m.done)
	}()
	log.Info().
		Int("targets", len(m.currentTargets())).
		Int("workers", m.cfg.Workers).
		Msg("push manager started")
	return nil
}

func (m *Manager) OnRecorded(_ context.Context, rec ledger.Recorded) {
	if !m.cfg.Enabled {
		return
	}
	ev := eventFromRecorded(rec)
	if ev.SessionID == "" {
		return
	}

	closed := 0
	if ev.Kind == ledger.KindSessionOpened {
		closed = m.closeOtherSessions(ev.SessionID)
	}

	for _, target := range m.router.MatchTargets(m.currentTargets(), ev) {
		if target.Panel {
			m.accumulatePanel(target, ev)
		}
		if !eventAllowed(target.EventAllowlist, string(ev.Kind)) {
			continue
		}
		formatted, ok := FormatMessage(ev)
		if !ok {
			continue
		}
		job := pushJob{Target: target, Kind: string(ev.Kind), SessionID: ev.SessionID, Formatted: formatted}
		if !m.enqueue(job) {
			metricPushDroppedTotal.Add(1)
		}
	}

	if closed > 0 {
		m.flushDirtyPanels()
	}
}

func (m *Manager) enqueue(job pushJob) bool {
	select {
	case <-m.done:
		return false
	case m.dispatchCh <- job:
		metricPushQueuedTotal.Add(1)
		metricPushQueueLen.Set(int64(len(m.dispatchCh)))
		return true
	default:
		return false
	}
}

func (m *Manager) currentTargets() []Target {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Target, len(m.cfg.Targets))
	copy(out, m.cfg.Targets)
	return out
}

func (m *Manager) watchConfigLoop(ctx context.Context) {
	interval := m.cfg.ConfigReload
	if interval <= 0 {
		interval = time.Second
	}
	lastRaw := ""
	if raw, err := os.ReadFile(m.cfg.ConfigPath); err == nil {
		lastRaw = strings.TrimSpace(string(raw))
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			raw, err := os.ReadFile(m.cfg.ConfigPath)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				continue
			}
			nextRaw := strings.TrimSpace(string(raw))
			if nextRaw == lastRaw {
				continue
			}
			targets, err := parseTargets(nextRaw)
			if err != nil {
				metricPushConfigReloadError.Add(1)
				log.Warn().Err(err).Str("path", m.cfg.ConfigPath).Msg("push config reload failed")
				continue
			}
			m.mu.Lock()
			m.cfg.Targets = targets
			m.mu.Unlock()
			lastRaw = nextRaw
			metricPushConfigReloadTotal.Add(1)
			log.Info().Int("targets", len(targets)).Msg("push config reloaded")
		}
	}
}
