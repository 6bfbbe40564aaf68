package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Default_PrintsHelp(t *testing.T) {
	var out bytes.Buffer
	code := runCLI([]string{}, &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "Usage:") {
		t.Fatalf("expected help output, got %q", out.String())
	}
}

func TestRun_Version(t *testing.T) {
	var out bytes.Buffer
	code := runCLI([]string{"version"}, &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(out.String(), "hatsagent version") {
		t.Fatalf("expected version output, got %q", out.String())
	}
}

func TestRun_UnknownCommand_Returns2(t *testing.T) {
	var out bytes.Buffer
	code := runCLI([]string{"frobnicate"}, &out)

	if code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("expected unknown-command message, got %q", out.String())
	}
}

func TestRun_Migrate(t *testing.T) {
	t.Setenv("STORAGE_DB_PATH", filepath.Join(t.TempDir(), "test.sqlite"))

	var out bytes.Buffer
	code := runCLI([]string{"migrate"}, &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; output %q", code, out.String())
	}
	if !strings.Contains(out.String(), "schema version") {
		t.Fatalf("expected migration report, got %q", out.String())
	}
}

func TestRun_Token_RequiresSecret(t *testing.T) {
	t.Setenv("SERVER_JWT_SECRET", "")

	var out bytes.Buffer
	code := runCLI([]string{"token"}, &out)

	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if !strings.Contains(out.String(), "no JWT secret configured") {
		t.Fatalf("expected secret error, got %q", out.String())
	}
}

func TestRun_Token_MintsToken(t *testing.T) {
	t.Setenv("SERVER_JWT_SECRET", "test-secret-key-32-chars-min!!!")

	var out bytes.Buffer
	code := runCLI([]string{"token", "-subject", "ci"}, &out)

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; output %q", code, out.String())
	}
	token := strings.TrimSpace(out.String())
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Fatalf("expected a JWT, got %q", token)
	}
}
