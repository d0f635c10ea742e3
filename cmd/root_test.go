package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "default level", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := newLogger(&buf, tc.verbose)

			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tc.wantDebug {
				t.Fatalf("debug enabled = %v, want %v", got, tc.wantDebug)
			}
			if !logger.Enabled(context.Background(), slog.LevelWarn) {
				t.Fatal("warnings should always be logged")
			}

			logger.Warn("skipping file", "path", "broken.py")
			if !strings.Contains(buf.String(), "path=broken.py") {
				t.Fatalf("expected structured attribute in output, got %q", buf.String())
			}
		})
	}
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	want := map[string]bool{"scan": false, "names": false, "graph": false, "watch": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s is not registered", name)
		}
	}
}

func TestRootCommand_VersionTemplate(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--version"})
	defer rootCmd.SetArgs(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := out.String()
	if !strings.HasPrefix(got, "unstar version dev\n") || !strings.Contains(got, "Build date: unknown") {
		t.Fatalf("unexpected version output:\n%s", got)
	}
}
