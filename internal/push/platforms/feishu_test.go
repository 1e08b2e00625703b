package platforms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFeishuAdapterPayloadAndHeader(t *testing.T) {
	var got map[string]any
	var headerSig string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headerSig = r.Header.Get("X-Lark-Signature")
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	adapter := NewFeishuAdapter(NewHTTPClient(time.Second))
	err := adapter.Send(context.Background(), srv.URL, "sig-1", Message{
		Title:       "Cash-out",
		Description: "Ann cashed out 900",
		Color:       0xED4245,
		Fields:      []Field{{Name: "Net", Value: "-100", Inline: true}},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if headerSig != "sig-1" {
		t.Fatalf("unexpected signature header: %s", headerSig)
	}
	if got["msg_type"] != "interactive" {
		t.Fatalf("unexpected msg_type: %v", got["msg_type"])
	}
	card := got["card"].(map[string]any)
	header := card["header"].(map[string]any)
	if header["template"] != "red" {
		t.Fatalf("template = %v, want red", header["template"])
	}
	elements := card["elements"].([]any)
	if len(elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(elements))
	}
}

func TestFeishuAdapterPanelUpsertUsesPatch(t *testing.T) {
	var methods, paths []string
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		paths = append(paths, r.URL.Path)
		if r.Method == http.MethodPatch {
			authHeader = r.Header.Get("Authorization")
		}
		if r.Method == http.MethodPost {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{"message_id":"f001"}}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	endpoint := srv.URL + "/open-apis/bot/v2/hook/abc"
	adapter := NewFeishuAdapter(NewHTTPClient(time.Second))
	msg := Message{PanelKey: "session:s1", Title: "Scoreboard", Description: "summary"}
	secret := "sig:sig-1;bearer:token-1"
	if err := adapter.Send(context.Background(), endpoint, secret, msg); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := adapter.Send(context.Background(), endpoint, secret, msg); err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	adapter.ForgetPanel(endpoint, msg.PanelKey)
	if err := adapter.Send(context.Background(), endpoint, secret, msg); err != nil {
		t.Fatalf("third send failed: %v", err)
	}

	if len(methods) != 3 || methods[0] != http.MethodPost || methods[1] != http.MethodPatch || methods[2] != http.MethodPost {
		t.Fatalf("unexpected method sequence: %#v", methods)
	}
	if !strings.HasSuffix(paths[1], "/open-apis/im/v1/messages/f001") {
		t.Fatalf("unexpected patch path: %s", paths[1])
	}
	if authHeader != "Bearer token-1" {
		t.Fatalf("unexpected auth header: %s", authHeader)
	}
}

func TestParseFeishuSecret(t *testing.T) {
	cases := []struct {
		in, sig, bearer string
	}{
		{"", "", ""},
		{"plain", "plain", ""},
		{"sig:a;bearer:b", "a", "b"},
		{"bearer:b", "", "b"},
	}
	for _, tc := range cases {
		sig, bearer := parseFeishuSecret(tc.in)
		if sig != tc.sig || bearer != tc.bearer {
			t.Fatalf("parseFeishuSecret(%q) = %q, %q, want %q, %q", tc.in, sig, bearer, tc.sig, tc.bearer)
		}
	}
}

func TestFeishuTemplate(t *testing.T) {
	cases := map[int]string{
		0:        "blue",
		0x3BA55D: "green",
		0xFEE75C: "yellow",
		0xED4245: "red",
		0x5865F2: "blue",
	}
	for color, want := range cases {
		if got := feishuTemplate(color); got != want {
			t.Fatalf("feishuTemplate(%#x) = %s, want %s", color, got, want)
		}
	}
}
