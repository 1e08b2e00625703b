package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
)

const defaultAPIURL = "https://api.telegram.org"

var allowedUpdates = []string{"message"}

// Client wraps an offline telebot.Bot: telebot never polls on its own, the
// Poller drives getUpdates so failures go through our backoff.
type Client struct {
	bot *tele.Bot
}

// NewClient sizes the HTTP timeout above pollTimeout so long polls are not cut short.
func NewClient(baseURL, token string, pollTimeout time.Duration) (*Client, error) {
	return newClient(baseURL, token, &http.Client{Timeout: pollTimeout + 15*time.Second})
}

func newClient(baseURL, token string, hc *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	b, err := tele.NewBot(tele.Settings{
		URL:     strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  hc,
		Offline: true,
		OnError: func(err error, _ tele.Context) {
			log.Warn().Err(err).Msg("telebot error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Client{bot: b}, nil
}

// GetUpdates returns as soon as ctx is done; the abandoned request finishes
// within the HTTP client timeout.
func (c *Client) GetUpdates(ctx context.Context, offset int, timeout time.Duration) ([]Update, error) {
	params := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout / time.Second),
		"allowed_updates": allowedUpdates,
	}
	type result struct {
		updates []Update
		err     error
	}
	done := make(chan result, 1)
	go func() {
		data, err := c.bot.Raw("getUpdates", params)
		if err != nil {
			done <- result{err: wrapErr("getUpdates", err)}
			return
		}
		var resp struct {
			Result []Update `json:"result"`
		}
		if err := json.Unmarshal(data, &resp); err != nil {
			done <- result{err: fmt.Errorf("telegram getUpdates: decode: %w", err)}
			return
		}
		done <- result{updates: resp.Result}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.updates, r.err
	}
}

func (c *Client) SendMessage(_ context.Context, chatID int64, text string) error {
	_, err := c.bot.Send(tele.ChatID(chatID), text, tele.ModeMarkdown)
	return wrapErr("sendMessage", err)
}

// SendDocument uploads content as a file attachment straight from memory.
func (c *Client) SendDocument(_ context.Context, chatID int64, filename string, content []byte, caption string) error {
	doc := &tele.Document{
		File:     tele.FromReader(bytes.NewReader(content)),
		FileName: filename,
		Caption:  caption,
	}
	_, err := c.bot.Send(tele.ChatID(chatID), doc)
	return wrapErr("sendDocument", err)
}

func (c *Client) DeleteWebhook(_ context.Context, dropPending bool) error {
	return wrapErr("deleteWebhook", c.bot.RemoveWebhook(dropPending))
}

func (c *Client) SetWebhook(_ context.Context, publicURL, secret string) error {
	return wrapErr("setWebhook", c.bot.SetWebhook(&tele.Webhook{
		Endpoint:       &tele.WebhookEndpoint{PublicURL: publicURL},
		SecretToken:    secret,
		AllowedUpdates: allowedUpdates,
	}))
}

// RetryAfter is the wait Telegram asked for with a 429, or zero.
func RetryAfter(err error) time.Duration {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second
	}
	return 0
}

// wrapErr drops the request URL from transport errors; it carries the token.
func wrapErr(method string, err error) error {
	if err == nil {
		return nil
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("telegram %s: %w", method, uerr.Err)
	}
	return fmt.Errorf("telegram %s: %w", method, err)
}
