// Package platforms delivers push messages to chat webhooks.
package platforms

import (
	"context"
	"strings"
	"sync"
)

type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Message is platform neutral. A non-empty PanelKey asks the adapter to edit
// the message it created earlier for the same key instead of posting anew.
type Message struct {
	PanelKey    string
	Title       string
	Description string
	Color       int
	Timestamp   string
	Footer      string
	Fields      []Field
}

type Adapter interface {
	Name() string
	Send(ctx context.Context, endpoint, secret string, msg Message) error
}

// PanelForgetter drops the remembered message id of a panel, so the next
// send for that key posts a fresh message.
type PanelForgetter interface {
	ForgetPanel(endpoint, panelKey string)
}

// panelIDs remembers which remote message belongs to which endpoint+panel.
type panelIDs struct {
	mu   sync.Mutex
	byID map[string]string
}

func newPanelIDs() *panelIDs {
	return &panelIDs{byID: map[string]string{}}
}

func panelCacheKey(endpoint, panelKey string) string {
	return strings.TrimSpace(endpoint) + "|" + strings.TrimSpace(panelKey)
}

func (p *panelIDs) get(endpoint, panelKey string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byID[panelCacheKey(endpoint, panelKey)]
}

func (p *panelIDs) set(endpoint, panelKey, msgID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.byID[panelCacheKey(endpoint, panelKey)] = msgID
}

func (p *panelIDs) forget(endpoint, panelKey string) {
	key := panelCacheKey(endpoint, panelKey)
	if key == "|" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.byID, key)
}

func fallback(v, d string) string {
	if strings.TrimSpace(v) == "" {
		return d
	}
	return v
}
