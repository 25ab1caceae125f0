// ABOUTME: Tests for database path resolution and validation.
// ABOUTME: Covers traversal rejection, sensitive directories and the XDG default.

package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestValidateDBPath_Valid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple relative path", "leadscore.db", "leadscore.db"},
		{"path with directory", "./data/leadscore.db", "data/leadscore.db"},
		{"absolute path on Unix", "/tmp/leadscore.db", "/tmp/leadscore.db"},
		{"path with whitespace trimmed", "  leadscore.db  ", "leadscore.db"},
		{"in-memory database", ":memory:", ":memory:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if runtime.GOOS == "windows" && strings.HasPrefix(tt.input, "/") {
				t.Skip("Unix path")
			}
			got, err := ValidateDBPath(tt.input)
			if err != nil {
				t.Fatalf("ValidateDBPath(%q) error = %v, want nil", tt.input, err)
			}
			if got != filepath.FromSlash(tt.want) && got != tt.want {
				t.Errorf("ValidateDBPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidateDBPath_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		shouldContain string
	}{
		{"empty string", "", "cannot be empty"},
		{"current directory dot", ".", "cannot be empty, '.', or '/'"},
		{"root directory", "/", "cannot be empty, '.', or '/'"},
		{"path traversal with dotdot", "../../etc/passwd", "cannot contain '..'"},
		{"dotdot in middle", "./data/../../../etc/passwd", "cannot contain '..'"},
		{"git directory blocked", ".git/leadscore.db", ".git"},
		{"svn directory blocked", ".svn/leadscore.db", ".svn"},
		{"node_modules directory blocked", "node_modules/leadscore.db", "node_modules"},
		{"credentials in path blocked", "credentials/leadscore.db", "credentials"},
		{"secret in path blocked", "secret/leadscore.db", "secret"},
		{".env in path blocked", ".env/leadscore.db", ".env"},
		{"case insensitive bad pattern", "CREDENTIALS/leadscore.db", "credentials"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateDBPath(tt.input)
			if err == nil {
				t.Fatalf("ValidateDBPath(%q) error = nil, want error", tt.input)
			}
			if !strings.Contains(err.Error(), tt.shouldContain) {
				t.Errorf("ValidateDBPath(%q) error = %v, should contain %q", tt.input, err, tt.shouldContain)
			}
		})
	}
}

func TestValidateDBPath_Windows(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("Windows-specific test")
	}

	for _, input := range []string{"C:", "D:"} {
		_, err := ValidateDBPath(input)
		if err == nil || !strings.Contains(err.Error(), "bare drive letter") {
			t.Errorf("ValidateDBPath(%q) error = %v, want bare drive letter error", input, err)
		}
	}
	if _, err := ValidateDBPath(`C:\data\leadscore.db`); err != nil {
		t.Errorf("absolute Windows path rejected: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	t.Chdir(t.TempDir())

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("LEADSCORE_DB_PATH", " /var/lib/leadscore/custom.db ")
		if got := DefaultDBPath(); got != filepath.Clean("/var/lib/leadscore/custom.db") {
			t.Errorf("DefaultDBPath() = %q", got)
		}
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("LEADSCORE_DB_PATH", "")
		dataHome := t.TempDir()
		t.Setenv("XDG_DATA_HOME", dataHome)

		want := filepath.Join(dataHome, "leadscore", "leadscore.db")
		if got := DefaultDBPath(); got != want {
			t.Errorf("DefaultDBPath() = %q, want %q", got, want)
		}
	})
}
