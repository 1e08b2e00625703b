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

type DiscordAdapter struct {
	client *HTTPClient
	panels *panelIDs
}

func NewDiscordAdapter(client *HTTPClient) *DiscordAdapter {
	return &DiscordAdapter{client: client, panels: newPanelIDs()}
}

func (a *DiscordAdapter) Name() string {
	return "discord"
}

func (a *DiscordAdapter) Send(ctx context.Context, endpoint, _ string, msg Message) error {
	payload := discordPayload(msg)
	if strings.TrimSpace(msg.PanelKey) == "" {
		return a.client.PostJSON(ctx, endpoint, nil, payload)
	}

	msgID := a.panels.get(endpoint, msg.PanelKey)
	if msgID != "" {
		editURL, ok := discordEditURL(endpoint, msgID)
		if !ok {
			return a.client.PostJSON(ctx, endpoint, nil, payload)
		}
		_, _, err := a.client.PatchJSONWithResponse(ctx, editURL, nil, payload)
		if err == nil {
			return nil
		}
		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Status != http.StatusNotFound {
			return err
		}
		// The panel message was deleted on the Discord side; post a new one.
	}

	createdID, err := a.createPanelMessage(ctx, endpoint, payload)
	if err != nil {
		return err
	}
	a.panels.set(endpoint, msg.PanelKey, createdID)
	return nil
}

func (a *DiscordAdapter) ForgetPanel(endpoint, panelKey string) {
	a.panels.forget(endpoint, panelKey)
}

type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

func discordPayload(msg Message) map[string]any {
	fields := make([]discordField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, discordField{Name: f.Name, Value: fallback(f.Value, "-"), Inline: f.Inline})
	}
	embed := map[string]any{
		"title":       msg.Title,
		"description": msg.Description,
		"fields":      fields,
		"color":       msg.Color,
	}
	if msg.Timestamp != "" {
		embed["timestamp"] = msg.Timestamp
	}
	if msg.Footer != "" {
		embed["footer"] = map[string]string{"text": msg.Footer}
	}
	return map[string]any{"embeds": []map[string]any{embed}}
}

func (a *DiscordAdapter) createPanelMessage(ctx context.Context, endpoint string, payload map[string]any) (string, error) {
	waitEndpoint := endpoint
	if strings.Contains(waitEndpoint, "?") {
		waitEndpoint += "&wait=true"
	} else {
		waitEndpoint += "?wait=true"
	}
	_, body, err := a.client.PostJSONWithResponse(ctx, waitEndpoint, nil, payload)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(body, &created) == nil && strings.TrimSpace(created.ID) != "" {
		return created.ID, nil
	}
	return "", fmt.Errorf("discord webhook create message missing id")
}

// discordEditURL maps /api/webhooks/{id}/{token} to its message edit endpoint.
func discordEditURL(endpoint, msgID string) (string, bool) {
	if strings.TrimSpace(endpoint) == "" || strings.TrimSpace(msgID) == "" {
		return "", false
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[0] != "api" || parts[1] != "webhooks" {
		return "", false
	}
	u.Path = "/api/webhooks/" + parts[2] + "/" + parts[3] + "/messages/" + msgID
	u.RawQuery = ""
	return u.String(), true
}
