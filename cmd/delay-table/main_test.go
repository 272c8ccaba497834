package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCmd(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeProfile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultRun(t *testing.T) {
	code, out, errOut := runCmd(t)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "T min: 4.224 ms, T max: 20.608 ms") {
		t.Errorf("missing time summary:\n%s", out)
	}
	if !strings.Contains(out, "F min: 48.52 Hz, F max: 236.74 Hz") {
		t.Errorf("missing frequency summary:\n%s", out)
	}
	if got := strings.Count(out, "0x"); got != 256 {
		t.Errorf("expected 256 values, got %d", got)
	}
}

func TestFlagsOverrideProfile(t *testing.T) {
	profile := writeProfile(t, "board.cfg", `
[output]
format: gpram
summary: false
`)

	code, out, errOut := runCmd(t, "-config", profile, "-format", "c", "-name", "notes")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "static const uint8_t notes[256] = {") {
		t.Errorf("flag did not override profile format:\n%s", out)
	}
	if strings.Contains(out, "T min") {
		t.Error("profile summary setting was lost")
	}
}

func TestOutputFiles(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "table.h")
	chartPath := filepath.Join(dir, "table.html")

	code, out, errOut := runCmd(t, "-format", "c", "-out", outPath, "-chart", chartPath, "-log-level", "ERROR")
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if out != "" {
		t.Errorf("stdout should be empty with -out, got %q", out)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "delay_table[256]") {
		t.Errorf("unexpected output file:\n%s", data)
	}
	page, err := os.ReadFile(chartPath)
	if err != nil {
		t.Fatalf("reading chart: %v", err)
	}
	if !strings.Contains(string(page), "echarts") {
		t.Error("chart page does not load echarts")
	}
}

func TestSongFromProfile(t *testing.T) {
	profile := writeProfile(t, "music.toml", `
[table]
encoding = "inverted"

[output]
format = "gpram"

[song]
scale = 0.5
notes = [[195.5, 197], [0, 99]]
`)

	code, out, errOut := runCmd(t, "-config", profile)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, errOut)
	}
	if !strings.Contains(out, "write 0x04 stack-push;") {
		t.Errorf("missing song length trailer:\n%s", out)
	}
}

func TestErrorsWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		profile string
		want    string
	}{
		{"unknown format", []string{"-format", "yaml"}, "", "FORMAT"},
		{"bad width", []string{"-bits", "12"}, "", "CONFIG_VALIDATION"},
		{"name not an identifier", []string{"-format", "c", "-name", "my table"}, "", "CONFIG_VALIDATION"},
		{"NaN note", nil, "[song]\nnotes: 100:nan\n", "CONFIG_TYPE"},
		{"zero halt cycles", nil, "[timing]\nhalt_cycles: 0\n", "halt_cycles"},
		{"unknown option", nil, "[timing]\nclock_mhz: 16\n", "CONFIG_OPTION"},
		{"missing profile", []string{"-config", "/nonexistent/board.cfg"}, "", "CONFIG_FILE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.args
			if tt.profile != "" {
				args = append([]string{"-config", writeProfile(t, "board.cfg", tt.profile)}, args...)
			}
			code, out, errOut := runCmd(t, args...)
			if code != 1 {
				t.Errorf("exit code %d, want 1", code)
			}
			if out != "" {
				t.Errorf("partial output written: %q", out)
			}
			if !strings.Contains(errOut, tt.want) {
				t.Errorf("stderr %q does not mention %s", errOut, tt.want)
			}
		})
	}
}

func TestFlagMisuse(t *testing.T) {
	if code, _, _ := runCmd(t, "-bits", "eight"); code != 2 {
		t.Errorf("bad flag value: exit code %d, want 2", code)
	}
	if code, _, _ := runCmd(t, "extra"); code != 2 {
		t.Errorf("positional argument: exit code %d, want 2", code)
	}
	if code, _, errOut := runCmd(t, "-h"); code != 0 || !strings.Contains(errOut, "-format") {
		t.Errorf("help: exit code %d, output %q", code, errOut)
	}
}
