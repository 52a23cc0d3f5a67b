package msgcat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestEmbeddedDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got, err := c.Render("ttt.current_player", map[string]any{"Name": "Alice", "Marker": "X"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got != "Current Player: Alice (X)" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := c.Text("ttt.thanks", nil); got != "Thank you for playing!" {
		t.Fatalf("unexpected thanks %q", got)
	}
}

func TestRenderMissing(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := c.Render("ttt.nope", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := c.Render("ttt.current_player", map[string]any{"Name": "Alice"}); err == nil {
		t.Fatalf("expected error for missing template field")
	}
	if got := c.Text("ttt.nope", nil); got != "ttt.nope" {
		t.Fatalf("Text fallback should return the key, got %q", got)
	}
}

func TestOverrideDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("ttt:\n  thanks: GG!\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Text("ttt.thanks", nil); got != "GG!" {
		t.Fatalf("override not applied: %q", got)
	}
	if got := c.Text("ttt.ended", nil); got != "Game ended." {
		t.Fatalf("default lost after override: %q", got)
	}
}

func TestOverrideDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.yaml", "b.yml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("ttt:\n  ended: Bye\n"), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	_, err := New(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate override key") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestNonStringLeafRejected(t *testing.T) {
	if _, err := parseFlat([]byte("ttt:\n  count: 3\n")); err == nil {
		t.Fatalf("expected error for non-string leaf")
	}
}
