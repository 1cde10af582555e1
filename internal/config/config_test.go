package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "node.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
network:
  port: 26656
  metrics_port: 9090
concurrency:
  worker_threads: 4
  execution_concurrency: 4
  mailbox_size: 1024
  deque_size: 256
mempool:
  max_backlog: 10000
  max_transactions: 5000
  stream_buffer_size: 256
storage:
  base_path: /tmp/casino
  items_per_section: 1000
  buffer_size_bytes: 65536
  resize_threshold_pct: 80
consensus:
  leader_timeout_ms: 2000
  notarization_timeout_ms: 4000
  nullify_retry_ms: 1000
  fetch_timeout_ms: 3000
  activity_timeout_ms: 10000
  skip_timeout_ms: 5000
rate_limits:
  pending: 100
  recovered: 100
  resolver: 100
  broadcaster: 100
  backfill: 100
  aggregation: 100
  fetch_per_peer: 10
indexer:
  url: https://indexer.example.com/events
admin:
  keys:
    - "00112233445566778899aabbccddeeff00112233445566778899aabbccddeeff"
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Consensus.LeaderTimeout.Milliseconds() != 2000 {
		t.Fatalf("expected leader timeout converted to duration, got %v", cfg.Consensus.LeaderTimeout)
	}
	keys, err := cfg.AdminKeySet()
	if err != nil {
		t.Fatalf("admin key set: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 admin key, got %d", len(keys))
	}
	groupKey, err := cfg.SeedGroupPublicKey()
	if err != nil {
		t.Fatalf("seed group key: %v", err)
	}
	if groupKey != nil {
		t.Fatalf("expected nil seed group key in devnet config")
	}
}

func TestLoadRejectsDuplicatePorts(t *testing.T) {
	path := writeConfig(t, `
network:
  port: 26656
  metrics_port: 26656
concurrency:
  worker_threads: 1
  execution_concurrency: 1
  mailbox_size: 1
  deque_size: 1
mempool:
  max_backlog: 1
  max_transactions: 1
  stream_buffer_size: 1
storage:
  base_path: /tmp/casino
  items_per_section: 1
  buffer_size_bytes: 1
  resize_threshold_pct: 1
consensus:
  leader_timeout_ms: 1
  notarization_timeout_ms: 1
  nullify_retry_ms: 1
  fetch_timeout_ms: 1
  activity_timeout_ms: 1
  skip_timeout_ms: 1
rate_limits:
  pending: 1
  recovered: 1
  resolver: 1
  broadcaster: 1
  backfill: 1
  aggregation: 1
  fetch_per_peer: 1
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for duplicate ports")
	}
}

func TestLoadRejectsZeroConcurrency(t *testing.T) {
	path := writeConfig(t, `
network:
  port: 1
  metrics_port: 2
concurrency:
  worker_threads: 0
  execution_concurrency: 1
  mailbox_size: 1
  deque_size: 1
`)
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for zero worker_threads")
	}
}

func TestLoadRejectsBadIndexerScheme(t *testing.T) {
	path := writeConfig(t, strings.Replace(validConfig, "https://indexer.example.com/events", "ftp://bad.example.com", 1))
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for non-http(s) indexer url")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
