package env

import "testing"

func TestGetPrefersFirstSetKey(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("RETROSTORE_TEST_PORT", " 9090 ")
	if got := Get("8080", "PORT", "RETROSTORE_TEST_PORT"); got != "9090" {
		t.Fatalf("expected trimmed second key, got %q", got)
	}

	t.Setenv("PORT", "3000")
	if got := Get("8080", "PORT", "RETROSTORE_TEST_PORT"); got != "3000" {
		t.Fatalf("expected PORT to win, got %q", got)
	}
}

func TestGetFallback(t *testing.T) {
	t.Setenv("RETROSTORE_TEST_UNSET", "   ")
	if got := Get("json", "RETROSTORE_TEST_UNSET"); got != "json" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
