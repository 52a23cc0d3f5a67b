package config

import (
	"os"
	"path/filepath"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("IRIS_BASE_URL", "http://iris.local:3000")
	t.Setenv("IRIS_WS_URL", "ws://iris.local:3000/ws")
	t.Setenv("BOT_PREFIX", "!")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EgressMode != "http" || !cfg.BoardImage {
		t.Fatalf("unexpected defaults: mode=%q image=%v", cfg.EgressMode, cfg.BoardImage)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "legacy" {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
	if !cfg.RoomAllowed("anything") {
		t.Fatalf("empty allow-list must admit all rooms")
	}
}

func TestLoadAllowedRoomsAndHeaders(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("ALLOWED_ROOMS", "room1, room2,,")
	t.Setenv("X_USER_ID", "bot")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.AllowedRooms) != 2 || cfg.AllowedRooms[1] != "room2" {
		t.Fatalf("unexpected rooms: %q", cfg.AllowedRooms)
	}
	if cfg.RoomAllowed("room3") || !cfg.RoomAllowed("room1") {
		t.Fatalf("room filter mismatch")
	}
	if h := cfg.Headers(); h["X-User-Id"] != "bot" || len(h) != 1 {
		t.Fatalf("unexpected headers: %v", h)
	}
}

func TestLoadRequiresPrefix(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("BOT_PREFIX", "  ")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing BOT_PREFIX")
	}
}

func TestLoadRejectsUnknownEgressMode(t *testing.T) {
	setRequired(t)
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("EGRESS_MODE", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unknown egress mode")
	}
}

func TestLoadFileYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bot.yaml")
	body := "iris_base_url: http://iris.yaml\n" +
		"iris_ws_url: ws://iris.yaml/ws\n" +
		"bot_prefix: '#'\n" +
		"egress_mode: auto\n" +
		"log:\n  level: debug\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.BotPrefix != "#" || cfg.EgressMode != "auto" || cfg.Log.Level != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}
