package pubsub

import (
	"context"
	"testing"

	"github.com/retrostore/retrostore-backend/pkg/config"
)

func TestTopicResourceName(t *testing.T) {
	cases := []struct {
		project, name, want string
	}{
		{"retro", "retrostore.orders", "projects/retro/topics/retrostore.orders"},
		{"retro", " projects/other/topics/x ", "projects/other/topics/x"},
		{"", "retrostore.orders", ""},
		{"retro", "  ", ""},
	}
	for _, tc := range cases {
		if got := topicResourceName(tc.project, tc.name); got != tc.want {
			t.Fatalf("topicResourceName(%q, %q) = %q, want %q", tc.project, tc.name, got, tc.want)
		}
	}
}

func TestNormalizeNamesDropsBlanks(t *testing.T) {
	got := normalizeNames([]string{" a ", "", "b"})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestNewClientRequiresProject(t *testing.T) {
	if _, err := NewClient(context.Background(), config.GCPConfig{}, []string{"x"}, nil); err != errProjectIDRequired {
		t.Fatalf("expected project id error, got %v", err)
	}
}

func TestClientOptions(t *testing.T) {
	if len(clientOptions(config.GCPConfig{})) != 0 {
		t.Fatal("expected no options without credentials")
	}
	if len(clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`})) != 1 {
		t.Fatal("expected credentials option")
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if c.Publisher("x") != nil {
		t.Fatal("expected nil publisher")
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}
