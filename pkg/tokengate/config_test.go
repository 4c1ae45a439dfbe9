package tokengate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfigFile(t, `
defaults:
  capacity: 100
  refill_rate: 10.0

clients:
  "partner-api":
    capacity: 500
    refill_rate: 50.0
  "trial-user":
    capacity: 5
    refill_rate: 0.1

key_extractor: "header:X-API-Key"
`)

	config, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile() failed: %v", err)
	}

	if config.Defaults == nil {
		t.Fatal("Defaults should be set")
	}
	if config.Defaults.Capacity != 100 || config.Defaults.RefillRate != 10.0 {
		t.Errorf("Defaults = %+v, want {100 10}", *config.Defaults)
	}
	if len(config.Clients) != 2 {
		t.Fatalf("len(Clients) = %d, want 2", len(config.Clients))
	}
	if got := config.Clients["trial-user"]; got.Capacity != 5 || got.RefillRate != 0.1 {
		t.Errorf("Clients[trial-user] = %+v, want {5 0.1}", got)
	}
	if config.KeyExtractor != "header:X-API-Key" {
		t.Errorf("KeyExtractor = %q, want header:X-API-Key", config.KeyExtractor)
	}
}

func TestLoadConfigFromFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "unparseable yaml",
			content: "defaults: [not, a, mapping",
		},
		{
			name: "invalid defaults",
			content: `
defaults:
  capacity: 0
  refill_rate: 10.0
`,
		},
		{
			name: "invalid client policy",
			content: `
clients:
  "bad":
    capacity: 10
    refill_rate: -1.0
`,
		},
		{
			name: "empty client key",
			content: `
clients:
  "":
    capacity: 10
    refill_rate: 1.0
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			if _, err := LoadConfigFromFile(path); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("LoadConfigFromFile() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfigFromFile("/nonexistent/policy.yaml"); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("LoadConfigFromFile() error = %v, want ErrInvalidConfig", err)
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "empty config", config: Config{}},
		{
			name: "valid defaults only",
			config: Config{
				Defaults: &PolicyConfig{Capacity: 10, RefillRate: 1.0},
			},
		},
		{
			name: "invalid defaults",
			config: Config{
				Defaults: &PolicyConfig{Capacity: 10, RefillRate: 0},
			},
			wantErr: true,
		},
		{
			name: "invalid client",
			config: Config{
				Clients: map[string]PolicyConfig{
					"c": {Capacity: -5, RefillRate: 1.0},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}
