package handbrake_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"discpipe/internal/services/handbrake"
)

type stubExecutor struct {
	lines      []string
	err        error
	writeFile  bool
	outputPath string
	args       [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	s.args = append(s.args, append([]string(nil), args...))
	for _, line := range s.lines {
		onStdout(line)
	}
	if s.writeFile {
		if err := os.WriteFile(s.outputPath, []byte("encoded"), 0o644); err != nil {
			return err
		}
	}
	return s.err
}

func TestEncodeSucceeds(t *testing.T) {
	tmp := t.TempDir()
	output := filepath.Join(tmp, "out.mkv")
	exec := &stubExecutor{writeFile: true, outputPath: output}
	client, err := handbrake.New("HandBrakeCLI", handbrake.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if err := client.Encode(context.Background(), filepath.Join(tmp, "in.mkv"), output, nil); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if len(exec.args) != 1 {
		t.Fatalf("expected one invocation, got %d", len(exec.args))
	}
}

func TestEncodeFailsWhenExecutorErrors(t *testing.T) {
	client, err := handbrake.New("HandBrakeCLI", handbrake.WithExecutor(&stubExecutor{err: errors.New("boom")}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.Encode(context.Background(), "in.mkv", "out.mkv", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestEncodeFailsWhenNoOutputProduced(t *testing.T) {
	client, err := handbrake.New("HandBrakeCLI", handbrake.WithExecutor(&stubExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if err := client.Encode(context.Background(), "in.mkv", filepath.Join(t.TempDir(), "missing.mkv"), nil); err == nil {
		t.Fatal("expected error when no output file is produced")
	}
}

func TestEncodeReportsProgress(t *testing.T) {
	tmp := t.TempDir()
	output := filepath.Join(tmp, "out.mkv")
	exec := &stubExecutor{
		writeFile:  true,
		outputPath: output,
		lines: []string{
			"Encoding: task 1 of 1, 42.50 % (34.12 fps, avg 30.00 fps, ETA 00h12m34s)",
		},
	}
	client, err := handbrake.New("HandBrakeCLI", handbrake.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var updates []handbrake.ProgressUpdate
	if err := client.Encode(context.Background(), filepath.Join(tmp, "in.mkv"), output, func(u handbrake.ProgressUpdate) {
		updates = append(updates, u)
	}); err != nil {
		t.Fatalf("Encode returned error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 progress update, got %d", len(updates))
	}
	if updates[0].Percent != 42.5 || updates[0].ETA != "00h12m34s" {
		t.Fatalf("unexpected progress update: %+v", updates[0])
	}
}

func TestNewRejectsEmptyBinary(t *testing.T) {
	if _, err := handbrake.New(""); err == nil {
		t.Fatal("expected error for empty binary")
	}
}
