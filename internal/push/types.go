// Package push mirrors ledger activity to chat webhooks (Discord, Feishu):
// one feed message per transaction and, optionally, a scoreboard panel per
// session that is edited in place.
package push

import (
	"time"

	"poker-ledger/internal/ledger"
)

const (
	ScopeAll     = "all"
	ScopeSession = "session"
)

type Target struct {
	Platform       string   `json:"platform" yaml:"platform"`
	Endpoint       string   `json:"endpoint" yaml:"endpoint"`
	Secret         string   `json:"secret" yaml:"secret"`
	ScopeType      string   `json:"scope_type" yaml:"scope_type"`
	ScopeValue     string   `json:"scope_value" yaml:"scope_value"`
	EventAllowlist []string `json:"event_allowlist" yaml:"event_allowlist"`
	Panel          bool     `json:"panel" yaml:"panel"`
	Enabled        bool     `json:"enabled" yaml:"enabled"`
}

type Config struct {
	Enabled             bool
	ConfigPath          string
	ConfigReload        time.Duration
	Targets             []Target
	Workers             int
	RetryMax            int
	RetryBase           time.Duration
	PanelUpdateInterval time.Duration
	PanelRecentLines    int
	FailureThreshold    int
	CircuitOpenDuration time.Duration
	RequestTimeout      time.Duration
	DispatchBuffer      int
}

// Event is a recorded transaction plus the session summary read right after it.
type Event struct {
	Seq         int64
	ID          string
	Kind        ledger.Kind
	SessionID   string
	PlayerID    int64
	DisplayName string
	Amount      int64
	RecordedAt  time.Time
	Summary     []ledger.PlayerSummary
}

func eventFromRecorded(rec ledger.Recorded) Event {
	tx := rec.Transaction
	return Event{
		Seq:         tx.Seq,
		ID:          tx.ID,
		Kind:        tx.Kind,
		SessionID:   tx.SessionID,
		PlayerID:    tx.PlayerID,
		DisplayName: tx.DisplayName,
		Amount:      tx.Amount,
		RecordedAt:  tx.RecordedAt,
		Summary:     rec.Summary,
	}
}

type MessageField struct {
	Name   string
	Value  string
	Inline bool
}

type FormattedMessage struct {
	PanelKey    string
	Title       string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []MessageField
}

type pushJob struct {
	Target        Target
	Kind          string
	SessionID     string
	Formatted     FormattedMessage
	Attempt       int
	PanelStateKey string
	PanelTerminal bool
}

func (j pushJob) key() string {
	return targetKey(j.Target)
}

func targetKey(t Target) string {
	return t.Platform + "|" + t.Endpoint + "|" + t.ScopeType + "|" + t.ScopeValue
}
