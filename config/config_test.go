package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
database:
  dsn: /tmp/test.db
billing:
  mode: stripe
  stripe_key: sk_test_123
  default_price_id: price_free
logging:
  level: debug
  format: console
metrics:
  enabled: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Billing.Mode != "stripe" || cfg.Billing.StripeKey != "sk_test_123" {
		t.Errorf("billing = %+v", cfg.Billing)
	}
	if cfg.Billing.DefaultPriceID != "price_free" {
		t.Errorf("default price = %q", cfg.Billing.DefaultPriceID)
	}
	// Defaults fill unset fields.
	if cfg.Server.ReadTimeout != 30*time.Second {
		t.Errorf("read timeout = %v, want default 30s", cfg.Server.ReadTimeout)
	}
	if cfg.Billing.PaymentMethodMaxAttempts != 3 {
		t.Errorf("max attempts = %d, want default 3", cfg.Billing.PaymentMethodMaxAttempts)
	}
	if cfg.Billing.PaymentMethodRetryDelay != 2*time.Second {
		t.Errorf("retry delay = %v, want default 2s", cfg.Billing.PaymentMethodRetryDelay)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "stripe mode without key",
			content: `
billing:
  mode: stripe
  default_price_id: price_free
`,
		},
		{
			name: "missing default price",
			content: `
billing:
  mode: memory
`,
		},
		{
			name: "unknown billing mode",
			content: `
billing:
  mode: paddle
  default_price_id: price_free
`,
		},
		{
			name: "bad log level",
			content: `
billing:
  mode: memory
  default_price_id: price_free
logging:
  level: loud
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("want validation error, got nil")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
billing:
  mode: memory
  default_price_id: price_free
`)

	t.Setenv("WORDCOACH_SERVER_PORT", "7070")
	t.Setenv("WORDCOACH_PM_RETRY_DELAY", "500ms")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Billing.PaymentMethodRetryDelay != 500*time.Millisecond {
		t.Errorf("retry delay = %v, want 500ms", cfg.Billing.PaymentMethodRetryDelay)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WORDCOACH_DEFAULT_PRICE_ID", "price_free")
	t.Setenv("WORDCOACH_BILLING_MODE", "memory")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Billing.DefaultPriceID != "price_free" {
		t.Errorf("default price = %q", cfg.Billing.DefaultPriceID)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want default 8080", cfg.Server.Port)
	}
}
