package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExecutionLogger_Log(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "logs", "atomicactions.jsonl")

	logger, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() {
		_ = logger.Close()
	}()

	event := ExecutionEvent{
		Timestamp: "2026-02-02T12:00:00Z",
		RunID:     "run-1",
		Technique: "T1082",
		Test:      "uname",
		GUID:      "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee",
		Executor:  "sh",
		Command:   "uname -a",
		Executed:  true,
		Success:   true,
	}

	if err := logger.Log(event); err != nil {
		t.Fatalf("failed to log event: %v", err)
	}

	_ = logger.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var parsed ExecutionEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("failed to parse log line as JSON: %v", err)
	}

	if parsed.Command != "uname -a" {
		t.Errorf("expected command 'uname -a', got '%s'", parsed.Command)
	}
	if parsed.Technique != "T1082" || !parsed.Success {
		t.Errorf("unexpected parsed event %+v", parsed)
	}
}

func TestExecutionLogger_Redacts(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "atomicactions.jsonl")

	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	err = lg.Log(ExecutionEvent{
		Technique: "T1136.001",
		Command:   "useradd art && echo art:Spring2026 | chpasswd && net user art Autumn2026 /add",
		Secrets:   []string{"Spring2026"},
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	_ = lg.Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, secret := range []string{"Spring2026", "Autumn2026"} {
		if strings.Contains(string(data), secret) {
			t.Errorf("log line still contains %q: %s", secret, data)
		}
	}
	if strings.Contains(string(data), "secrets") || strings.Contains(string(data), "Secrets") {
		t.Errorf("secret list must not be serialized: %s", data)
	}
}

func TestExecutionLogger_Rotation(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "atomicactions.jsonl")

	// Pre-create the log file already at the rotation limit.
	big := make([]byte, defaultMaxLogBytes)
	if err := os.WriteFile(logPath, big, 0600); err != nil {
		t.Fatalf("failed to seed large log file: %v", err)
	}

	lg, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = lg.Close() }()

	if err := lg.Log(ExecutionEvent{Timestamp: "2026-03-01T00:00:00Z", Technique: "T1082"}); err != nil {
		t.Fatalf("Log after rotation failed: %v", err)
	}

	if _, err := os.Stat(logPath + ".1"); err != nil {
		t.Errorf("expected rotated file %s.1 to exist: %v", logPath, err)
	}

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("fresh log file missing: %v", err)
	}
	if info.Size() >= defaultMaxLogBytes {
		t.Errorf("fresh log file is still %d bytes; expected < %d", info.Size(), defaultMaxLogBytes)
	}
}

func TestExecutionLogger_FilePermissions(t *testing.T) {
	if os.PathSeparator == '\\' {
		t.Skip("unix permissions")
	}
	logPath := filepath.Join(t.TempDir(), "secure.jsonl")

	logger, err := New(logPath)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	_ = logger.Close()

	info, err := os.Stat(logPath)
	if err != nil {
		t.Fatalf("failed to stat log file: %v", err)
	}

	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected file permissions 0600, got %04o", perm)
	}
}

func TestReadEvents(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "atomicactions.jsonl")

	events, err := ReadEvents(logPath)
	if err != nil || events != nil {
		t.Fatalf("missing log should yield no events, got %v, %v", events, err)
	}

	body := `{"technique":"T1082","success":true}
not json

{"technique":"T1003","success":false,"reason":"Atomic test command failed"}
`
	if err := os.WriteFile(logPath, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	events, err = ReadEvents(logPath)
	if err != nil {
		t.Fatalf("ReadEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].Reason != "Atomic test command failed" {
		t.Errorf("unexpected reason %q", events[1].Reason)
	}
}
