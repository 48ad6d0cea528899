package dotenv

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := `
# comment
VOICETER_TEST_PLAIN=hello
export VOICETER_TEST_EXPORTED=world
VOICETER_TEST_QUOTED="with spaces"
VOICETER_TEST_SINGLE='single'
VOICETER_TEST_EXISTING=from-file
=no-key
broken line
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("VOICETER_TEST_EXISTING", "from-env")

	if err := Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	t.Cleanup(func() {
		for _, k := range []string{"VOICETER_TEST_PLAIN", "VOICETER_TEST_EXPORTED", "VOICETER_TEST_QUOTED", "VOICETER_TEST_SINGLE"} {
			os.Unsetenv(k)
		}
	})

	tests := []struct {
		key, want string
	}{
		{"VOICETER_TEST_PLAIN", "hello"},
		{"VOICETER_TEST_EXPORTED", "world"},
		{"VOICETER_TEST_QUOTED", "with spaces"},
		{"VOICETER_TEST_SINGLE", "single"},
		{"VOICETER_TEST_EXISTING", "from-env"}, // environment wins
	}
	for _, tt := range tests {
		if got := os.Getenv(tt.key); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestLoad_MissingFileIsNotAnError(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("Load(missing) error = %v, want nil", err)
	}
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		in       string
		key, val string
		ok       bool
	}{
		{"A=1", "A", "1", true},
		{"  B = 2 ", "B", "2", true},
		{"export C=3", "C", "3", true},
		{`D="quoted"`, "D", "quoted", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"=orphan", "", "", false},
		{"no equals", "", "", false},
	}
	for _, tt := range tests {
		key, val, ok := parseLine(tt.in)
		if key != tt.key || val != tt.val || ok != tt.ok {
			t.Errorf("parseLine(%q) = (%q, %q, %v), want (%q, %q, %v)", tt.in, key, val, ok, tt.key, tt.val, tt.ok)
		}
	}
}
