package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	configPath string
	library    string
	indexDir   string
	textfile   string
}

// fakeFFprobe reports one FLAC stream for every path and fails for names
// containing "broken".
const fakeFFprobe = `#!/bin/sh
for last; do :; done
case "$last" in
*broken*) echo "invalid data found when processing input" >&2; exit 1 ;;
esac
printf '{"streams":[{"index":0,"codec_type":"audio","codec_name":"flac","channels":2,"sample_rate":"44100"}],"format":{"filename":"%s","format_name":"flac","duration":"215.3","size":"1024"}}' "$last"
`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("MEDIADEX_INDEX_DIR", "")

	script := filepath.Join(base, "fake-ffprobe")
	if err := os.WriteFile(script, []byte(fakeFFprobe), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}

	env := &cliTestEnv{
		configPath: filepath.Join(base, "config.toml"),
		library:    filepath.Join(base, "library"),
		indexDir:   filepath.Join(base, "index"),
		textfile:   filepath.Join(base, "metrics", "mediadex.prom"),
	}
	if err := os.MkdirAll(env.library, 0o755); err != nil {
		t.Fatalf("mkdir library: %v", err)
	}
	content := fmt.Sprintf(
		"[paths]\nlibrary_roots = [%q]\nindex_dir = %q\nlog_dir = %q\n\n[scan]\nffprobe_binary = %q\n\n[metrics]\ntextfile = %q\n",
		env.library,
		env.indexDir,
		filepath.Join(base, "logs"),
		script,
		env.textfile,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q not to contain %q", output, substr)
	}
}
