package platforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type FeishuAdapter struct {
	client *HTTPClient
	panels *panelIDs
}

func NewFeishuAdapter(client *HTTPClient) *FeishuAdapter {
	return &FeishuAdapter{client: client, panels: newPanelIDs()}
}

func (a *FeishuAdapter) Name() string {
	return "feishu"
}

// Send accepts a secret of the form "sig:<signature>;bearer:<token>". The
// bearer token is only needed to edit panel cards.
func (a *FeishuAdapter) Send(ctx context.Context, endpoint, secret string, msg Message) error {
	signature, bearer := parseFeishuSecret(secret)
	payload := feishuPayload(msg)
	headers := map[string]string{}
	if signature != "" {
		headers["X-Lark-Signature"] = signature
	}
	if strings.TrimSpace(msg.PanelKey) == "" {
		return a.client.PostJSON(ctx, endpoint, headers, payload)
	}

	msgID := a.panels.get(endpoint, msg.PanelKey)
	if msgID != "" {
		editURL, ok := feishuEditURL(endpoint, msgID)
		if !ok {
			return a.client.PostJSON(ctx, endpoint, headers, payload)
		}
		patchHeaders := map[string]string{}
		if bearer != "" {
			patchHeaders["Authorization"] = "Bearer " + bearer
		}
		_, _, err := a.client.PatchJSONWithResponse(ctx, editURL, patchHeaders, payload)
		if err == nil {
			return nil
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
			return err
		}
	}

	createdID, err := a.createPanelMessage(ctx, endpoint, headers, payload)
	if err != nil {
		return err
	}
	a.panels.set(endpoint, msg.PanelKey, createdID)
	return nil
}

func (a *FeishuAdapter) ForgetPanel(endpoint, panelKey string) {
	a.panels.forget(endpoint, panelKey)
}

func feishuPayload(msg Message) map[string]any {
	elements := []map[string]string{{
		"tag":  "markdown",
		"text": fallback(msg.Description, msg.Title),
	}}
	for _, f := range msg.Fields {
		elements = append(elements, map[string]string{
			"tag":  "markdown",
			"text": "**" + f.Name + "**: " + fallback(f.Value, "-"),
		})
	}
	if msg.Footer != "" {
		elements = append(elements, map[string]string{"tag": "markdown", "text": msg.Footer})
	}
	return map[string]any{
		"msg_type": "interactive",
		"card": map[string]any{
			"header": map[string]any{
				"title": map[string]any{
					"tag":     "plain_text",
					"content": msg.Title,
				},
				"template": feishuTemplate(msg.Color),
			},
			"elements": elements,
		},
	}
}

// feishuTemplate picks the nearest card header colour for an RGB value.
func feishuTemplate(color int) string {
	r, g, b := (color>>16)&0xff, (color>>8)&0xff, color&0xff
	switch {
	case color == 0:
		return "blue"
	case r > 200 && g < 120:
		return "red"
	case g > 150 && r < 150:
		return "green"
	case r > 200 && g > 200 && b < 150:
		return "yellow"
	default:
		return "blue"
	}
}

func (a *FeishuAdapter) createPanelMessage(ctx context.Context, endpoint string, headers map[string]string, payload map[string]any) (string, error) {
	_, body, err := a.client.PostJSONWithResponse(ctx, endpoint, headers, payload)
	if err != nil {
		return "", err
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", err
	}
	if id := firstMessageID(raw); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("feishu create message missing id")
}

func parseFeishuSecret(secret string) (signature string, bearer string) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return "", ""
	}
	parts := strings.Split(s, ";")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch {
		case strings.HasPrefix(p, "sig:"):
			signature = strings.TrimSpace(strings.TrimPrefix(p, "sig:"))
		case strings.HasPrefix(p, "bearer:"):
			bearer = strings.TrimSpace(strings.TrimPrefix(p, "bearer:"))
		case len(parts) == 1:
			signature = p
		}
	}
	return signature, bearer
}

func feishuEditURL(endpoint, msgID string) (string, bool) {
	if strings.TrimSpace(endpoint) == "" || strings.TrimSpace(msgID) == "" {
		return "", false
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false
	}
	u.Path = "/open-apis/im/v1/messages/" + msgID
	u.RawQuery = ""
	return u.String(), true
}

func firstMessageID(raw map[string]any) string {
	for _, src := range []map[string]any{raw, asObject(raw["data"])} {
		for _, k := range []string{"message_id", "id"} {
			if v, ok := src[k].(string); ok && strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return ""
}

func asObject(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
