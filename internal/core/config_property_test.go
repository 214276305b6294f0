package core

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

type configValues struct {
	Name          string
	UserID        string
	Backend       string
	MinConfidence float64
	DefaultFormat string
	DefaultStyle  string
	StaleDays     int
}

func genConfigValues(t *rapid.T) configValues {
	return configValues{
		Name:          rapid.StringMatching(`[a-z]{1,12}`).Draw(t, "name"),
		UserID:        rapid.StringMatching(`[a-z0-9]{1,10}`).Draw(t, "userID"),
		Backend:       rapid.SampledFrom([]string{"file", "sqlite", "memory"}).Draw(t, "backend"),
		MinConfidence: rapid.SampledFrom([]float64{0, 0.25, 0.5, 0.7, 0.9, 1}).Draw(t, "minConfidence"),
		DefaultFormat: rapid.SampledFrom([]string{"text", "word", "markdown", "html"}).Draw(t, "format"),
		DefaultStyle:  rapid.SampledFrom([]string{"classic", "family", "inspirational"}).Draw(t, "style"),
		StaleDays:     rapid.IntRange(0, 90).Draw(t, "staleDays"),
	}
}

func (v configValues) yaml() string {
	return fmt.Sprintf(`subject:
  name: "%s"
  user_id: "%s"
biography:
  default_style: %s
storage:
  backend: %s
speech:
  min_confidence: %v
export:
  default_format: %s
notifications:
  alerts:
    stale_days: %d
`, v.Name, v.UserID, v.DefaultStyle, v.Backend, v.MinConfidence, v.DefaultFormat, v.StaleDays)
}

// Feature: yishu, Property 11: Config File Round Trip
// *For any* valid set of values written to .yishuconfig.yaml, LoadGlobalConfig
// SHALL return exactly those values and ValidateConfig SHALL accept them.
func TestProperty_ConfigFileRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		v := genConfigValues(rt)

		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ConfigFileName+".yaml"), []byte(v.yaml()), 0o644); err != nil {
			rt.Fatalf("writing config: %v", err)
		}

		cm := NewConfigurationManager(dir)
		cfg, err := cm.LoadGlobalConfig()
		if err != nil {
			rt.Fatalf("LoadGlobalConfig: %v", err)
		}

		if cfg.Subject.Name != v.Name || cfg.Subject.UserID != v.UserID {
			rt.Errorf("subject = %+v, want name %q user %q", cfg.Subject, v.Name, v.UserID)
		}
		if cfg.Storage.Backend != v.Backend {
			rt.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, v.Backend)
		}
		if cfg.Speech.MinConfidence != v.MinConfidence {
			rt.Errorf("Speech.MinConfidence = %v, want %v", cfg.Speech.MinConfidence, v.MinConfidence)
		}
		if cfg.Export.DefaultFormat != v.DefaultFormat {
			rt.Errorf("Export.DefaultFormat = %q, want %q", cfg.Export.DefaultFormat, v.DefaultFormat)
		}
		if cfg.Biography.DefaultStyle != v.DefaultStyle {
			rt.Errorf("Biography.DefaultStyle = %q, want %q", cfg.Biography.DefaultStyle, v.DefaultStyle)
		}
		if cfg.Notifications.Alerts.StaleDays != v.StaleDays {
			rt.Errorf("StaleDays = %d, want %d", cfg.Notifications.Alerts.StaleDays, v.StaleDays)
		}

		if err := cm.ValidateConfig(cfg); err != nil {
			rt.Errorf("ValidateConfig rejected valid values: %v", err)
		}
	})
}

// Feature: yishu, Property 12: Unknown Backends Are Rejected
// *For any* storage backend name outside the supported set, ValidateConfig
// SHALL return an error naming storage.backend.
func TestProperty_UnknownBackendsAreRejected(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		backend := rapid.StringMatching(`[a-z]{3,10}`).Filter(func(s string) bool {
			return !slices.Contains(validBackends, s)
		}).Draw(rt, "backend")

		cfg := DefaultGlobalConfig()
		cfg.Storage.Backend = backend

		err := NewConfigurationManager(t.TempDir()).ValidateConfig(cfg)
		if err == nil {
			rt.Fatalf("ValidateConfig accepted backend %q", backend)
		}
		if !strings.Contains(err.Error(), "storage.backend") {
			rt.Errorf("error %q does not name storage.backend", err)
		}
	})
}
