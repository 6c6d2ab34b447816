package cliconfig

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"CWTLOGGER_DATA_DIR":        "/env/data",
				"CWTLOGGER_PORT":            "/dev/ttyUSB3",
				"CWTLOGGER_SAMPLE_INTERVAL": "10s",
				"CWTLOGGER_SET_VOLTAGE":     "4.8",
				"CWTLOGGER_BAUD":            "9600",
				"CWTLOGGER_SIMULATE":        "true",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DataDir:        "/env/data",
				Port:           "/dev/ttyUSB3",
				SampleInterval: 10 * time.Second,
				SetVoltage:     4.8,
				Baud:           9600,
				Simulate:       true,
			},
			wantErr: false,
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"CWTLOGGER_DATA_DIR": "/env/data",
				"CWTLOGGER_PORT":     "/dev/ttyUSB3",
			},
			changed: map[string]bool{"data-dir": true},
			initial: Config{
				DataDir: "/flag/data",
			},
			expected: Config{
				DataDir: "/flag/data",
				Port:    "/dev/ttyUSB3",
			},
			wantErr: false,
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"CWTLOGGER_SAMPLE_INTERVAL": "not-a-duration",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"CWTLOGGER_BAUD": "not-a-number",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
		{
			name: "returns error for invalid float",
			envVars: map[string]string{
				"CWTLOGGER_SET_VOLTAGE": "not-a-float",
			},
			changed: map[string]bool{},
			initial: Config{},
			wantErr: true,
		},
		{
			name: "handles bool '1' as true",
			envVars: map[string]string{
				"CWTLOGGER_SIMULATE": "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Simulate: true,
			},
			wantErr: false,
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"CWTLOGGER_RETENTION": "false",
			},
			changed: map[string]bool{},
			initial: Config{Retention: true},
			expected: Config{
				Retention: false,
			},
			wantErr: false,
		},
		{
			name: "handles all field types correctly",
			envVars: map[string]string{
				"CWTLOGGER_DATA_DIR":           "/data",
				"CWTLOGGER_ARTIFACT_PREFIX":    "run_",
				"CWTLOGGER_PORT":               "/dev/ttyACM1",
				"CWTLOGGER_BAUD":               "57600",
				"CWTLOGGER_SET_VOLTAGE":        "3.3",
				"CWTLOGGER_CURRENT_LIMIT":      "0.25",
				"CWTLOGGER_SIMULATE":           "false",
				"CWTLOGGER_SAMPLE_INTERVAL":    "2s",
				"CWTLOGGER_EXPORT_INTERVAL":    "30m",
				"CWTLOGGER_WINDOW_SPAN":        "24h",
				"CWTLOGGER_CACHE_POINTS":       "5000",
				"CWTLOGGER_API_ADDR":           "0.0.0.0:9000",
				"CWTLOGGER_LOG_LEVEL":          "debug",
				"CWTLOGGER_RETENTION":          "true",
				"CWTLOGGER_ARCHIVE_SCHEDULE":   "0 3 * * *",
				"CWTLOGGER_ARCHIVE_CHECK":      "6h",
				"CWTLOGGER_ARCHIVE_HIGH_WATER": "1073741824",
				"CWTLOGGER_ARCHIVE_LOW_WATER":  "536870912",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				DataDir:          "/data",
				ArtifactPrefix:   "run_",
				Port:             "/dev/ttyACM1",
				Baud:             57600,
				SetVoltage:       3.3,
				CurrentLimit:     0.25,
				Simulate:         false,
				SampleInterval:   2 * time.Second,
				ExportInterval:   30 * time.Minute,
				WindowSpan:       24 * time.Hour,
				CachePoints:      5000,
				APIAddr:          "0.0.0.0:9000",
				LogLevel:         "debug",
				Retention:        true,
				ArchiveSchedule:  "0 3 * * *",
				ArchiveCheck:     6 * time.Hour,
				ArchiveHighWater: 1 << 30,
				ArchiveLowWater:  1 << 29,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr && err == nil {
				t.Error("ApplyEnvConfig() expected error but got nil")
				return
			}
			if !tt.wantErr && err != nil {
				t.Errorf("ApplyEnvConfig() unexpected error: %v", err)
				return
			}

			if !tt.wantErr && cfg != tt.expected {
				t.Errorf("config = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Integration test: precedence order (CLI > Env > File)
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		DataDir:  "/file/data",
		Port:     "/dev/file",
		Simulate: &trueVal,
	}

	os.Setenv("CWTLOGGER_DATA_DIR", "/env/data")
	os.Setenv("CWTLOGGER_PORT", "/dev/env")
	os.Setenv("CWTLOGGER_API_ADDR", "127.0.0.1:9999")
	defer func() {
		os.Unsetenv("CWTLOGGER_DATA_DIR")
		os.Unsetenv("CWTLOGGER_PORT")
		os.Unsetenv("CWTLOGGER_API_ADDR")
	}()

	// Simulate CLI flags
	changed := map[string]bool{
		"data-dir": true, // CLI flag was set for the data directory
	}

	cfg := Config{
		DataDir: "/cli/data", // This should remain (CLI wins)
	}

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	// Verify precedence: CLI > Env > File
	if cfg.DataDir != "/cli/data" {
		t.Errorf("DataDir = %v, want /cli/data (CLI should win)", cfg.DataDir)
	}
	if cfg.Port != "/dev/env" {
		t.Errorf("Port = %v, want /dev/env (env should override file)", cfg.Port)
	}
	if cfg.APIAddr != "127.0.0.1:9999" {
		t.Errorf("APIAddr = %v, want 127.0.0.1:9999 (env should set)", cfg.APIAddr)
	}
	if cfg.Simulate != true {
		t.Errorf("Simulate = %v, want true (file should set)", cfg.Simulate)
	}
}
