package main

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeScene(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scene.lisp")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunReport(t *testing.T) {
	path := writeScene(t, `(defshape "plate" (box 4 2 1))`)
	var stdout, stderr bytes.Buffer
	if err := run([]string{path}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	var res EvalResult
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("output is not a report: %v\n%s", err, stdout.String())
	}
	if len(res.Parts) != 1 || res.Parts[0].Name != "plate" {
		t.Fatalf("parts = %+v, want plate", res.Parts)
	}
	if math.Abs(res.Parts[0].Volume-8) > 1e-9 {
		t.Errorf("volume = %g, want 8", res.Parts[0].Volume)
	}
}

func TestRunSceneErrors(t *testing.T) {
	path := writeScene(t, `(box 1 1 -1)`)
	var stdout, stderr bytes.Buffer
	err := run([]string{path}, &stdout, &stderr)
	if err == nil {
		t.Fatal("run succeeded on a bad scene")
	}
	if !strings.Contains(err.Error(), "must be positive") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(stdout.String(), `"errors"`) {
		t.Errorf("report not printed:\n%s", stdout.String())
	}
}

func TestRunFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
		stdout  string
	}{
		{name: "version", args: []string{"-version"}, stdout: "boolkit dev"},
		{name: "help", args: []string{"-h"}},
		{name: "no file", args: nil, wantErr: "exactly one scene file"},
		{name: "two files", args: []string{"a", "b"}, wantErr: "exactly one scene file"},
		{name: "missing file", args: []string{"no/such/scene.lisp"}, wantErr: "reading scene"},
		{name: "negative fuzzy", args: []string{"-fuzzy", "-1", "x"}, wantErr: "must not be negative"},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(tt.args, &stdout, &stderr)
			switch {
			case tt.wantErr == "" && err != nil:
				t.Fatalf("run: %v", err)
			case tt.wantErr != "" && (err == nil || !strings.Contains(err.Error(), tt.wantErr)):
				t.Fatalf("error = %v, want it to mention %q", err, tt.wantErr)
			}
			if !strings.Contains(stdout.String(), tt.stdout) {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.stdout)
			}
		})
	}
}

func TestRunVerboseLogs(t *testing.T) {
	path := writeScene(t, `(union (box 1 1 1) (translate (box 1 1 1) 0.5 0 0))`)
	var stdout, stderr bytes.Buffer
	if err := run([]string{"-v", "-workers", "2", path}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stderr.String(), "intersect done") {
		t.Errorf("no engine progress on stderr:\n%s", stderr.String())
	}
}
