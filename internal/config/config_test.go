package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Oracle:   OracleConfig{Model: "gpt-4o-mini"},
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingDatabaseAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database addrs")
	}
}

func TestValidate_MissingOracleModel(t *testing.T) {
	cfg := validConfig()
	cfg.Oracle.Model = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing oracle model")
	}
}

func TestValidate_ImageStoreBucketRequired(t *testing.T) {
	cfg := validConfig()
	cfg.ImageStore.Endpoint = "minio:9000"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for image store endpoint without bucket")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{Oracle: OracleConfig{Model: "gpt-4o-mini"}}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Database.OpTimeoutSec != 5 {
		t.Errorf("expected OpTimeoutSec=5, got %d", cfg.Database.OpTimeoutSec)
	}
	if cfg.Database.DeleteBatchSize != 200 {
		t.Errorf("expected DeleteBatchSize=200, got %d", cfg.Database.DeleteBatchSize)
	}
	if cfg.Oracle.TimeoutSec != 20 {
		t.Errorf("expected oracle TimeoutSec=20, got %d", cfg.Oracle.TimeoutSec)
	}
	if cfg.Oracle.VisionModel != "gpt-4o-mini" {
		t.Errorf("expected VisionModel to default to Model, got %q", cfg.Oracle.VisionModel)
	}
	if cfg.Storage.KeyPrefix != "lostfound:" {
		t.Errorf("expected KeyPrefix=lostfound:, got %q", cfg.Storage.KeyPrefix)
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("LOSTFOUND_TEST_VAR", "secret")
	defer os.Unsetenv("LOSTFOUND_TEST_VAR")

	tests := []struct {
		in   string
		want string
	}{
		{"key: ${LOSTFOUND_TEST_VAR}", "key: secret"},
		{"key: ${MISSING_VAR:-fallback}", "key: fallback"},
		{"key: ${LOSTFOUND_TEST_VAR:-fallback}", "key: secret"},
		{"key: plain", "key: plain"},
	}
	for _, tc := range tests {
		got := string(expandEnvVars([]byte(tc.in)))
		if got != tc.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
