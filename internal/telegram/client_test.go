package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"
	"time"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(t *testing.T, fn roundTripFunc) *Client {
	t.Helper()
	c, err := newClient("https://tg.example/", "TOKEN", &http.Client{Transport: fn})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body)), Header: make(http.Header)}
}

func TestGetUpdates(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/botTOKEN/getUpdates" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"ok":true,"result":[
			{"update_id":7,"message":{"message_id":1,"from":{"id":42,"first_name":"Ann","last_name":"Lee"},"chat":{"id":-100,"type":"group"},"date":1,"text":"/join 100"}}
		]}`), nil
	})

	updates, err := c.GetUpdates(context.Background(), 5, 30*time.Second)
	if err != nil {
		t.Fatalf("get updates: %v", err)
	}
	if got["offset"] != float64(5) || got["timeout"] != float64(30) {
		t.Fatalf("unexpected request body: %v", got)
	}
	if len(updates) != 1 || updates[0].ID != 7 {
		t.Fatalf("unexpected updates: %+v", updates)
	}
	msg := updates[0].Message
	if FullName(msg.Sender) != "Ann Lee" || msg.Text != "/join 100" || ChatID(updates[0]) != -100 {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestGetUpdatesReturnsOnCancel(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		<-release
		return jsonResponse(http.StatusOK, `{"ok":true,"result":[]}`), nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.GetUpdates(ctx, 0, time.Minute)
		errCh <- err
	}()
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("GetUpdates ignored cancellation")
	}
}

func TestSendMessageUsesMarkdown(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{"message_id":9,"chat":{"id":12,"type":"private"},"text":"hi"}}`), nil
	})
	if err := c.SendMessage(context.Background(), 12, "*hi*"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got["parse_mode"] != "Markdown" || got["chat_id"] != "12" || got["text"] != "*hi*" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestFloodErrorCarriesRetryAfter(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusTooManyRequests,
			`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`), nil
	})
	_, err := c.GetUpdates(context.Background(), 0, 0)
	if err == nil {
		t.Fatal("expected error")
	}
	if got := RetryAfter(err); got != 3*time.Second {
		t.Fatalf("RetryAfter = %v, want 3s (err=%v)", got, err)
	}
	if got := RetryAfter(errors.New("bad gateway")); got != 0 {
		t.Fatalf("RetryAfter(plain) = %v, want 0", got)
	}
}

func TestTransportErrorHidesToken(t *testing.T) {
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	err := c.DeleteWebhook(context.Background(), true)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "TOKEN") {
		t.Fatalf("error leaks token: %v", err)
	}
}

func TestSendDocumentMultipart(t *testing.T) {
	var (
		chatID   string
		filename string
		content  []byte
	)
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/botTOKEN/sendDocument" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("content type: %v", err)
		}
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("next part: %v", err)
				break
			}
			raw, _ := io.ReadAll(part)
			switch part.FormName() {
			case "chat_id":
				chatID = string(raw)
			case "file_name":
				filename = string(raw)
			case "document":
				content = raw
			}
		}
		return jsonResponse(http.StatusOK, `{"ok":true,"result":{"message_id":3,"chat":{"id":55,"type":"group"},
			"document":{"file_id":"f1","file_unique_id":"u1","file_name":"game_x.csv"}}}`), nil
	})

	if err := c.SendDocument(context.Background(), 55, "game_x.csv", []byte("a,b\n"), "export"); err != nil {
		t.Fatalf("send document: %v", err)
	}
	if chatID != "55" || filename != "game_x.csv" || !bytes.Equal(content, []byte("a,b\n")) {
		t.Fatalf("unexpected upload: chat=%q file=%q content=%q", chatID, filename, content)
	}
}

func TestSetWebhookSendsSecret(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/botTOKEN/setWebhook" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		return jsonResponse(http.StatusOK, `{"ok":true,"result":true}`), nil
	})
	if err := c.SetWebhook(context.Background(), "https://bot.example/telegram/webhook", "s3cret"); err != nil {
		t.Fatalf("set webhook: %v", err)
	}
	if got["url"] != "https://bot.example/telegram/webhook" || got["secret_token"] != "s3cret" {
		t.Fatalf("unexpected body: %v", got)
	}
}

func TestFullNameFallbacks(t *testing.T) {
	cases := []struct {
		user *User
		want string
	}{
		{&User{ID: 1, FirstName: "Ann"}, "Ann"},
		{&User{ID: 1, Username: "ann_l"}, "ann_l"},
		{&User{ID: 77}, "77"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := FullName(tc.user); got != tc.want {
			t.Fatalf("FullName(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}
