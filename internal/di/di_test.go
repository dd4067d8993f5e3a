package di

import (
	"os"
	"path/filepath"
	"testing"

	"TWPull/pkg/config"
)

// A health check run takes only a CSV directory, so the app must come up
// from a default config with no collector directories configured.
func TestInitializeAppDefaultConfigHealthCheck(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Level = "error"
	cfg.Log.Output = "stderr"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	app, err := InitializeApp(cfg)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	dir := t.TempDir()
	csv := `date,open,high,low,close,volume,factor
2024-01-02,590,600,585,595,25000,1.0
2024-01-03,595,605,590,600,26000,1.0
`
	if err := os.WriteFile(filepath.Join(dir, "tw2330.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	if err := app.CheckHealth(dir); err != nil {
		t.Fatalf("check health: %v", err)
	}
}
