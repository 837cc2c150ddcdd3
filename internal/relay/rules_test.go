package relay

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRules_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `ignoreChannels:
  - C0NOISY
  - C0STATUS
ignoreUsers:
  - U0MUTED
fileSharePattern: "プライベートファイルを共有しました"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path, testLogger())
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if rules == nil {
		t.Fatal("rules is nil")
	}
	if len(rules.IgnoreChannels) != 2 || rules.IgnoreChannels[0] != "C0NOISY" {
		t.Errorf("IgnoreChannels = %v", rules.IgnoreChannels)
	}
	if len(rules.IgnoreUsers) != 1 || rules.IgnoreUsers[0] != "U0MUTED" {
		t.Errorf("IgnoreUsers = %v", rules.IgnoreUsers)
	}
	if rules.FileSharePattern == "" {
		t.Error("FileSharePattern not loaded")
	}
}

func TestLoadRules_EmptyPath(t *testing.T) {
	rules, err := LoadRules("", testLogger())
	if err != nil || rules != nil {
		t.Errorf("LoadRules(\"\") = %v, %v, want nil, nil", rules, err)
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"), testLogger())
	if err != nil || rules != nil {
		t.Errorf("missing file = %v, %v, want nil, nil", rules, err)
	}
}

func TestLoadRules_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte("ignoreChannels: {not a list"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path, testLogger()); err == nil {
		t.Error("malformed yaml must error")
	}
}
