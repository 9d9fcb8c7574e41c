package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"ledger.csv", "csv", false},
		{"backup.JSON", "json", false},
		{"/tmp/dir.v2/export.json", "json", false},
		{"notes.txt", "", true},
		{"noext", "", true},
	}
	for _, tt := range tests {
		got, err := formatFromPath(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("formatFromPath(%q) = %q, %v", tt.path, got, err)
		}
	}
}

func TestWriteOutput(t *testing.T) {
	var stdout bytes.Buffer
	if err := writeOutput(&stdout, "", []byte("a,b")); err != nil || stdout.String() != "a,b" {
		t.Fatalf("stdout write: %q, %v", stdout.String(), err)
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := writeOutput(&stdout, path, []byte("x")); err != nil {
		t.Fatalf("file write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "x" {
		t.Fatalf("file content %q, %v", data, err)
	}
}

// runCLI executes the root command against a temporary SQLite ledger.
func runCLI(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestImportExportCommands(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fintrack.db")
	input := filepath.Join(dir, "in.csv")
	csvText := "type,amount,date,note\nexpense,12.50,2024-01-15,Lunch\nincome,abc,2024-01-16,Bad\n"
	if err := os.WriteFile(input, []byte(csvText), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := runCLI(t, dbPath, "import", input)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Successfully imported 1 transactions.") || !strings.Contains(out, "Row 3: Invalid amount") {
		t.Errorf("unexpected import output: %q", out)
	}

	exported := filepath.Join(dir, "out.json")
	if _, err := runCLI(t, dbPath, "export", "--format", "json", "-o", exported); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(exported)
	if err != nil || !strings.Contains(string(data), `"note": "Lunch"`) {
		t.Fatalf("unexpected backup %q, %v", data, err)
	}

	out, err = runCLI(t, dbPath, "summary")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "12.50") {
		t.Errorf("unexpected summary: %q", out)
	}

	if _, err := runCLI(t, dbPath, "import", "--format", "xml", input); err == nil {
		t.Error("expected unknown format error")
	}
}

func TestOneShotCommandsRefuseMemoryBackend(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.csv")
	if err := os.WriteFile(input, []byte("type,amount,date\nexpense,1,2024-01-15\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("LOG_LEVEL", "error")

	for _, args := range [][]string{
		{"import", input},
		{"export", "--format", "csv"},
		{"summary"},
		{"categories"},
	} {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		if !errors.Is(err, errVolatileBackend) {
			t.Errorf("%v: expected errVolatileBackend, got %v", args, err)
		}
		if strings.Contains(out.String(), "Successfully imported") {
			t.Errorf("%v: reported success on a volatile ledger: %q", args, out.String())
		}
	}
}
