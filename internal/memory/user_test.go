package memory

import (
	"os"
	"strings"
	"testing"
)

func TestEnsureUserProfileCreatesTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureUserProfile(dir); err != nil {
		t.Fatalf("EnsureUserProfile: %v", err)
	}
	body := ReadUserProfile(dir)
	if !strings.Contains(body, "User Preferences") {
		t.Errorf("template missing header: %q", body)
	}
}

func TestEnsureUserProfileNeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	if err := EnsureUserProfile(dir); err != nil {
		t.Fatalf("EnsureUserProfile: %v", err)
	}
	custom := "# User Preferences\n- default_channel: #noc\n"
	if err := os.WriteFile(userProfilePath(dir), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := EnsureUserProfile(dir); err != nil {
		t.Fatalf("second EnsureUserProfile: %v", err)
	}
	if got := ReadUserProfile(dir); got != custom {
		t.Errorf("operator edits overwritten: %q", got)
	}
}

func TestReadUserProfileAbsent(t *testing.T) {
	if got := ReadUserProfile(t.TempDir()); got != "" {
		t.Errorf("absent profile = %q, want empty", got)
	}
}
