package config

import (
	"os"
	"strings"
	"testing"
)

func TestDefaultDataDirXDGOverride(t *testing.T) {
	original := os.Getenv("XDG_DATA_HOME")
	t.Cleanup(func() {
		if original != "" {
			os.Setenv("XDG_DATA_HOME", original)
		} else {
			os.Unsetenv("XDG_DATA_HOME")
		}
	})
	os.Setenv("XDG_DATA_HOME", "/custom/data")

	if got := DefaultDataDir(); got != "/custom/data/calhub" {
		t.Fatalf("expected /custom/data/calhub, got %s", got)
	}
}

func TestDefaultDataDirNonEmpty(t *testing.T) {
	result := DefaultDataDir()
	if result == "" {
		t.Fatal("DefaultDataDir should not return empty string")
	}
	lower := strings.ToLower(result)
	if !strings.Contains(lower, "calhub") && result != "./data" {
		t.Fatalf("unexpected data dir %s", result)
	}
}

func TestIsDir(t *testing.T) {
	if !isDir(".") {
		t.Fatal("current directory should be a dir")
	}
	if isDir("/non/existent/path/that/does/not/exist") {
		t.Fatal("missing path should not be a dir")
	}
}
