package push

import (
	"context"
	"fmt"
	"strings"
	"time"

	"poker-ledger/internal/ledger"
)

// panelState is the scoreboard of one session as shown to one target.
type panelState struct {
	key       string
	target    Target
	sessionID string
	lastSeq   int64
	lastAt    time.Time
	summary   []ledger.PlayerSummary
	recent    []string
	closed    bool
	dirty     bool
	inflight  bool
}

func panelKey(sessionID string) string {
	return "session:" + sessionID
}

func (m *Manager) accumulatePanel(target Target, ev Event) {
	if ev.SessionID == "" {
		return
	}
	stateKey := targetKey(target) + "|" + ev.SessionID

	m.mu.Lock()
	defer m.mu.Unlock()

	panel := m.panelByKey[stateKey]
	if panel == nil {
		panel = &panelState{
			key:       stateKey,
			target:    target,
			sessionID: ev.SessionID,
			recent:    make([]string, 0, m.cfg.PanelRecentLines),
		}
		m.panelByKey[stateKey] = panel
	}
	if panel.closed {
		return
	}
	panel.target = target
	// Observers may run out of order; keep the newest summary.
	if ev.Seq > panel.lastSeq {
		panel.lastSeq = ev.Seq
		panel.lastAt = ev.RecordedAt
		panel.summary = ev.Summary
	}
	if ev.Kind != ledger.KindSessionOpened {
		panel.recent = append(panel.recent, actionLine(ev))
		if limit := m.cfg.PanelRecentLines; len(panel.recent) > limit {
			panel.recent = panel.recent[len(panel.recent)-limit:]
		}
	}
	panel.dirty = true
}

// closeOtherSessions marks every panel not belonging to sessionID as closed.
// Each gets one final update and is then forgotten.
func (m *Manager) closeOtherSessions(sessionID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	closed := 0
	for _, panel := range m.panelByKey {
		if panel.sessionID == sessionID || panel.closed {
			continue
		}
		panel.closed = true
		panel.dirty = true
		closed++
	}
	return closed
}

func (m *Manager) flushPanelsLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.PanelUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-m.done:
			return
		case <-ticker.C:
			m.flushDirtyPanels()
		}
	}
}

func (m *Manager) flushDirtyPanels() {
	m.flushMu.Lock()
	defer m.flushMu.Unlock()

	type flushItem struct {
		key       string
		target    Target
		sessionID string
		formatted FormattedMessage
		terminal  bool
	}
	items := make([]flushItem, 0)

	m.mu.Lock()
	for key, panel := range m.panelByKey {
		if !panel.dirty || panel.inflight {
			continue
		}
		panel.inflight = true
		items = append(items, flushItem{
			key:       key,
			target:    panel.target,
			sessionID: panel.sessionID,
			formatted: formatPanelMessage(panel),
			terminal:  panel.closed,
		})
	}
	m.mu.Unlock()

	for _, it := range items {
		job := pushJob{
			Target:        it.target,
			Kind:          "panel_update",
			SessionID:     it.sessionID,
			Formatted:     it.formatted,
			PanelStateKey: it.key,
			PanelTerminal: it.terminal,
		}
		if !m.enqueue(job) {
			metricPushDroppedTotal.Add(1)
			m.mu.Lock()
			if panel := m.panelByKey[it.key]; panel != nil {
				panel.inflight = false
			}
			m.mu.Unlock()
		}
	}
}

func (m *Manager) markPanelDeliverySuccess(job pushJob) {
	if job.PanelStateKey == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	panel := m.panelByKey[job.PanelStateKey]
	if panel == nil {
		return
	}
	panel.inflight = false
	panel.dirty = false
	if job.PanelTerminal {
		delete(m.panelByKey, job.PanelStateKey)
	}
}

func (m *Manager) markPanelDeliveryDropped(job pushJob) {
	if job.PanelStateKey == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	panel := m.panelByKey[job.PanelStateKey]
	if panel == nil {
		return
	}
	panel.inflight = false
	panel.dirty = true
}

func formatPanelMessage(panel *panelState) FormattedMessage {
	totals := ledger.SessionTotals(panel.summary)
	fields := make([]MessageField, 0, len(panel.summary)+1)
	for _, p := range panel.summary {
		state := "playing"
		if p.Status == ledger.StatusLeft {
			state = "left"
		}
		fields = append(fields, MessageField{
			Name:   trimText(fallback(p.DisplayName, "-"), nameLimit),
			Value:  fmt.Sprintf("in %d · out %d · net %s (%s)", p.TotalIn, p.TotalOut, signed(p.Net), state),
			Inline: true,
		})
	}
	recent := "No activity yet"
	if len(panel.recent) > 0 {
		recent = strings.Join(panel.recent, "\n")
	}
	fields = append(fields, MessageField{Name: "📜 Recent", Value: recent})

	badge := "🟢 Open"
	color := colorOpened
	if panel.closed {
		badge = "🔴 Closed"
		color = colorClosed
	}
	return FormattedMessage{
		PanelKey:    panelKey(panel.sessionID),
		Title:       fmt.Sprintf("🎲 Session %s | %s", panel.sessionID, badge),
		Description: fmt.Sprintf("%d players | in %d | out %d", len(panel.summary), totals.TotalIn, totals.TotalOut),
		Color:       color,
		Timestamp:   eventTimestamp(panel.lastAt),
		Footer:      defaultFooter + " | session:" + panel.sessionID,
		Fields:      fields,
	}
}
