package push

import (
	"fmt"
	"os"
	"strings"
	"time"

	"poker-ledger/internal/config"

	"gopkg.in/yaml.v3"
)

func ConfigFromEnv(cfg config.PushConfig) (Config, error) {
	out := Config{
		Enabled:             cfg.Enabled,
		ConfigPath:          strings.TrimSpace(cfg.ConfigPath),
		ConfigReload:        time.Duration(cfg.ConfigReloadMS) * time.Millisecond,
		Workers:             cfg.Workers,
		RetryMax:            cfg.RetryMax,
		RetryBase:           time.Duration(cfg.RetryBaseMS) * time.Millisecond,
		PanelUpdateInterval: time.Second,
		PanelRecentLines:    5,
		FailureThreshold:    3,
		CircuitOpenDuration: 30 * time.Second,
		RequestTimeout:      5 * time.Second,
		DispatchBuffer:      1024,
	}
	if !out.Enabled {
		return out, nil
	}

	if out.Workers <= 0 {
		out.Workers = 2
	}
	if out.RetryMax < 0 {
		out.RetryMax = 0
	}
	if out.RetryBase <= 0 {
		out.RetryBase = 500 * time.Millisecond
	}
	if out.ConfigReload <= 0 {
		out.ConfigReload = time.Second
	}

	raw, err := loadTargetsRaw(cfg)
	if err != nil {
		return Config{}, err
	}
	if raw == "" {
		return out, nil
	}
	targets, err := parseTargets(raw)
	if err != nil {
		return Config{}, err
	}
	out.Targets = targets
	return out, nil
}

func loadTargetsRaw(cfg config.PushConfig) (string, error) {
	path := strings.TrimSpace(cfg.ConfigPath)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read push config path %q: %w", path, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return strings.TrimSpace(cfg.ConfigJSON), nil
}

// parseTargets accepts a YAML list of targets, or the same list as JSON.
// Disabled, endpoint-less and unknown-scope targets are dropped.
func parseTargets(raw string) ([]Target, error) {
	var targets []Target
	if err := yaml.Unmarshal([]byte(raw), &targets); err != nil {
		return nil, fmt.Errorf("parse push targets: %w", err)
	}
	filtered := make([]Target, 0, len(targets))
	for _, target := range targets {
		target.Platform = strings.ToLower(strings.TrimSpace(target.Platform))
		target.ScopeType = strings.ToLower(strings.TrimSpace(target.ScopeType))
		target.ScopeValue = strings.TrimSpace(target.ScopeValue)
		if target.ScopeType == "" {
			target.ScopeType = ScopeAll
		}
		if target.ScopeType != ScopeAll && target.ScopeType != ScopeSession {
			continue
		}
		if target.ScopeType == ScopeSession && target.ScopeValue == "" {
			continue
		}
		target.Endpoint = strings.TrimSpace(target.Endpoint)
		if target.Endpoint == "" || !target.Enabled {
			continue
		}
		for i := range target.EventAllowlist {
			target.EventAllowlist[i] = strings.TrimSpace(strings.ToLower(target.EventAllowlist[i]))
		}
		filtered = append(filtered, target)
	}
	return filtered, nil
}
