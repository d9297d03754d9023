package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/promptlib/testutil"
	"github.com/spf13/pflag"
)

func TestLoadConfig_Defaults(t *testing.T) {
	chdir(t, testutil.CreateTempDir(t))
	t.Setenv("HOME", testutil.CreateTempDir(t))

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Baseline != "data.yml" || cfg.VersionSort != "lexical" || cfg.AutosaveDelay != DefaultAutosaveDelay {
		t.Errorf("LoadConfig() = %+v, want defaults", cfg)
	}
	if cfg.LibraryOptions().VersionSort != SortLexical {
		t.Error("LibraryOptions() should default to lexical sort")
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	chdir(t, dir)
	cfgFile := filepath.Join(dir, "promptlib.yaml")
	testutil.WriteFile(t, cfgFile, []byte(`baseline: from-file.yml
store: from-file.db
version_sort: numeric
autosave_delay: 250ms
log_level: debug
`))
	t.Setenv("PROMPTLIB_STORE", "from-env.db")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("baseline", "", "")
	flags.String("store", "", "")
	if err := flags.Set("baseline", "from-flag.yml"); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(cfgFile, flags)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{name: "flag beats file", got: cfg.Baseline, want: "from-flag.yml"},
		{name: "env beats file", got: cfg.Store, want: "from-env.db"},
		{name: "file beats default", got: cfg.VersionSort, want: "numeric"},
		{name: "duration parsed", got: cfg.AutosaveDelay, want: 250 * time.Millisecond},
		{name: "log level", got: cfg.LogLevel, want: "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if cfg.LibraryOptions().VersionSort != SortNumeric {
		t.Error("LibraryOptions() ignored version_sort")
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	chdir(t, dir)

	cfgFile := filepath.Join(dir, "bad.yaml")
	testutil.WriteFile(t, cfgFile, []byte("version_sort: semver\n"))
	if _, err := LoadConfig(cfgFile, nil); err == nil {
		t.Error("LoadConfig() should reject an unknown version_sort")
	}

	if _, err := LoadConfig(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Error("LoadConfig() should fail for an explicit missing config file")
	}
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := testutil.CreateTempDir(t)
	chdir(t, dir)
	t.Setenv("HOME", dir)
	testutil.WriteFile(t, filepath.Join(dir, ".env"), []byte("PROMPTLIB_VERSION_SORT=numeric\n"))
	// Registers a restore of the original value before unsetting it.
	t.Setenv("PROMPTLIB_VERSION_SORT", "")
	os.Unsetenv("PROMPTLIB_VERSION_SORT")

	cfg, err := LoadConfig("", nil)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.VersionSort != "numeric" {
		t.Errorf("VersionSort = %q, want numeric from .env", cfg.VersionSort)
	}
}

func TestLoadConfig_MalformedDotEnvWarns(t *testing.T) {
	originalLevel := logLevel
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer func() {
		logger.SetOutput(os.Stderr)
		SetLogLevel(originalLevel)
	}()
	SetLogLevel(LogLevelWarn)

	tests := []struct {
		name     string
		dotenv   string
		wantWarn bool
	}{
		{name: "missing file", wantWarn: false},
		{name: "malformed file", dotenv: "PROMPTLIB-BAD=1\n", wantWarn: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			dir := testutil.CreateTempDir(t)
			chdir(t, dir)
			t.Setenv("HOME", dir)
			if tt.dotenv != "" {
				testutil.WriteFile(t, filepath.Join(dir, ".env"), []byte(tt.dotenv))
			}

			if _, err := LoadConfig("", nil); err != nil {
				t.Fatalf("LoadConfig() error = %v", err)
			}
			if got := strings.Contains(buf.String(), "Ignoring .env"); got != tt.wantWarn {
				t.Errorf("warned = %v, want %v (log %q)", got, tt.wantWarn, buf.String())
			}
		})
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
