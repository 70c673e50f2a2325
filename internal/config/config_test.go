package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestLoadFile_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 8080 || cfg.Mode != "release" {
		t.Fatalf("port=%d mode=%s", cfg.Port, cfg.Mode)
	}
	if cfg.Call.ConnectTimeout != 30*time.Second {
		t.Fatalf("connect timeout = %v", cfg.Call.ConnectTimeout)
	}
	if cfg.Agent.HangupTimeout != 5*time.Second {
		t.Fatalf("hangup timeout = %v", cfg.Agent.HangupTimeout)
	}
	if cfg.UI.NiceListDuration != 5*time.Second {
		t.Fatalf("nice list = %v", cfg.UI.NiceListDuration)
	}
	if cfg.Agent.Target != "santa" || len(cfg.Agent.ICEServers) != 1 {
		t.Fatalf("agent = %+v", cfg.Agent)
	}
}

func TestLoadFile_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.test.yaml")
	body := `
port: 9090
log_level: debug
agent:
  url: ws://agent:1/ws
  target: rudolph
call:
  connect_timeout: 3s
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SANTA_CHRISTMAS_YEAR", "2031")
	t.Setenv("SANTA_AGENT_TARGET", "santa-2")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Port != 9090 || cfg.Agent.URL != "ws://agent:1/ws" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Call.ConnectTimeout != 3*time.Second {
		t.Fatalf("connect timeout = %v", cfg.Call.ConnectTimeout)
	}
	if cfg.ChristmasYear != 2031 {
		t.Fatalf("christmas year = %d", cfg.ChristmasYear)
	}
	if cfg.Agent.Target != "santa-2" {
		t.Fatalf("env override lost: target = %s", cfg.Agent.Target)
	}
	if ParseLevel(cfg.LogLevel) != zerolog.DebugLevel {
		t.Fatalf("level = %s", cfg.LogLevel)
	}
}

func TestLoadFile_InvalidPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("port: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected error for port 0")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		" WARN ":  zerolog.WarnLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWatch_ReportsLevelChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	levels := make(chan zerolog.Level, 4)
	cfg.Watch(func(l zerolog.Level) { levels <- l })
	// WatchConfig sets up the watcher asynchronously.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("log_level: error\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(3 * time.Second)
	for {
		select {
		case l := <-levels:
			if l == zerolog.ErrorLevel {
				return
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
