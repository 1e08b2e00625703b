package push

import "strings"

type Router struct{}

func (r Router) MatchTargets(targets []Target, ev Event) []Target {
	if len(targets) == 0 {
		return nil
	}
	out := make([]Target, 0, len(targets))
	for _, target := range targets {
		if !target.Enabled {
			continue
		}
		if !scopeMatches(target, ev) {
			continue
		}
		out = append(out, target)
	}
	return out
}

func scopeMatches(target Target, ev Event) bool {
	switch target.ScopeType {
	case ScopeAll:
		return true
	case ScopeSession:
		return target.ScopeValue != "" && target.ScopeValue == ev.SessionID
	default:
		return false
	}
}

// eventAllowed reports whether a feed message of kind evType may go to a
// target. Panels ignore the allowlist.
func eventAllowed(allowlist []string, evType string) bool {
	if len(allowlist) == 0 {
		return true
	}
	evType = strings.ToLower(strings.TrimSpace(evType))
	for _, v := range allowlist {
		if v != "" && v == evType {
			return true
		}
	}
	return false
}
