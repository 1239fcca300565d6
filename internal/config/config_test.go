package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(databaseDSNEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Scheduler.TickInterval != 15*time.Minute || cfg.Scheduler.LeadGrace != 18*time.Minute {
		t.Fatalf("unexpected scheduler defaults %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.TickSpec() != "@every 15m0s" {
		t.Fatalf("unexpected tick spec %s", cfg.Scheduler.TickSpec())
	}
	if cfg.Scheduler.Location().String() != "Asia/Seoul" {
		t.Fatalf("unexpected display zone %s", cfg.Scheduler.Location())
	}
	if len(cfg.Sources) != 7 {
		t.Fatalf("expected 7 default sources, got %d", len(cfg.Sources))
	}
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: warn
scheduler:
  leadGrace: 20m
  displayTimezone: Europe/London
notifications:
  scopes: ["ops", "desk"]
sources:
  - name: news
    scanner: news
    url: https://news.example/rss
`)
	t.Setenv(configPathEnv, path)
	t.Setenv(databaseDSNEnv, "postgres://radar@localhost/radar")
	t.Setenv(telegramChatIDEnv, "12345")
	t.Setenv(newsQueriesEnv, "ECB rate,BoE")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("level not merged: %s", cfg.Logging.Level)
	}
	if cfg.Scheduler.LeadGrace != 20*time.Minute || cfg.Scheduler.TickInterval != 15*time.Minute {
		t.Fatalf("scheduler not merged: %+v", cfg.Scheduler)
	}
	if cfg.Scheduler.Location().String() != "Europe/London" {
		t.Fatalf("timezone not bound: %s", cfg.Scheduler.Location())
	}
	if cfg.Database.DSN != "postgres://radar@localhost/radar" {
		t.Fatalf("dsn override missing: %s", cfg.Database.DSN)
	}
	if got := strings.Join(cfg.Scopes(), ","); got != "12345,ops,desk" {
		t.Fatalf("unexpected scopes %s", got)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0].Options["queries"] != "ECB rate,BoE" {
		t.Fatalf("news queries not applied: %+v", cfg.Sources)
	}
}

func TestLoadRejectsNarrowLeadGrace(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  tickInterval: 15m
  leadGrace: 10m
`)
	t.Setenv(configPathEnv, path)

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "leadGrace") {
		t.Fatalf("expected leadGrace validation error, got %v", err)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	t.Setenv(configPathEnv, writeConfig(t, "scheduler: [unclosed"))

	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}
