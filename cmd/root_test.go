package cmd

import (
	"context"
	"errors"
	"testing"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	err := Execute(context.Background(), []string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			err := Execute(context.Background(), args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	err := Execute(context.Background(), []string{
		"/dev/ttyUSB0", "115200", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"bad frame", []string{"--frame", "9X9", "/dev/ttyUSB0", "--dry-run"}},
		{"bad baud arg", []string{"/dev/ttyUSB0", "fast", "--dry-run"}},
		{"device with tcp", []string{"--tcp", "bridge:7000", "/dev/ttyUSB0", "--dry-run"}},
		{"ssh without command", []string{"--ssh", "admin@gw", "--dry-run"}},
		{"bad ssh spec", []string{"--ssh", "admin@gw:notaport", "--ssh-command", "connect 1", "--dry-run"}},
		{"auto-disconnect without watch", []string{"--auto-disconnect", "--watch=false", "/dev/ttyUSB0", "--dry-run"}},
		{"too many args", []string{"/dev/ttyUSB0", "115200", "extra", "--dry-run"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Execute(context.Background(), tt.args); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

// TestExecute_DryRunRemotes verifies the remote-console configs parse.
func TestExecute_DryRunRemotes(t *testing.T) {
	tests := [][]string{
		{"--tcp", "console-bridge:7000", "--dry-run"},
		{"--ssh", "admin@gw:2222", "--ssh-command", "connect port3", "--dry-run"},
		{"-e", "cu -l /dev/cuaU0", "--dry-run"},
		{"-L", "--dry-run"},
	}
	for _, args := range tests {
		t.Run(args[0], func(t *testing.T) {
			if err := Execute(context.Background(), args); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_EnvOverlay verifies env vars feed flag defaults.
func TestExecute_EnvOverlay(t *testing.T) {
	t.Setenv("GOCOM_DEVICE", "/dev/ttyS9")
	t.Setenv("GOCOM_BAUD", "57600")
	if err := Execute(context.Background(), []string{"--dry-run"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_UsageErrorClassification verifies invocation mistakes
// are distinguishable from runtime failures.
func TestExecute_UsageErrorClassification(t *testing.T) {
	err := Execute(context.Background(), []string{"--frame", "bogus", "/dev/ttyUSB0", "--dry-run"})
	var ue *UsageError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UsageError, got %T: %v", err, err)
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--nonexistent-flag"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}
