package makemkv_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"discpipe/internal/services/makemkv"
)

type stubExecutor struct {
	lines []string
	err   error
	calls int
	args  [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	s.calls++
	cloned := append([]string(nil), args...)
	s.args = append(s.args, cloned)
	for _, line := range s.lines {
		onStdout(line)
	}
	return s.err
}

func TestRipErrorsWhenNoOutputProduced(t *testing.T) {
	tmp := t.TempDir()
	exec := &stubExecutor{lines: []string{"PRGV:0,10,100", "PRGV:0,80,100"}}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	_, err = client.Rip(context.Background(), "/dev/sr0", 0, tmp, nil)
	if err == nil {
		t.Fatal("expected error when MakeMKV produces no output")
	}
	if !strings.Contains(err.Error(), "no mkv files found") {
		t.Fatalf("expected 'no mkv files found' error, got: %v", err)
	}
}

func TestRipReturnsExecutorError(t *testing.T) {
	client, err := makemkv.New("makemkvcon", 1, makemkv.WithExecutor(&stubExecutor{err: errors.New("boom")}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Rip(context.Background(), "/dev/sr0", 0, t.TempDir(), nil); err == nil {
		t.Fatal("expected error from executor")
	}
}

type fileCreatingExecutor struct {
	args  [][]string
	calls int
}

func (f *fileCreatingExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	clone := append([]string(nil), args...)
	f.args = append(f.args, clone)
	f.calls++
	destDir := args[len(args)-1]
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(destDir, "disc_t00.mkv"), []byte("rip"), 0o644)
}

func TestRipInvokesExpectedArgsAndReturnsOutput(t *testing.T) {
	tmp := t.TempDir()
	destDir := filepath.Join(tmp, "dest")
	exec := &fileCreatingExecutor{}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	path, err := client.Rip(context.Background(), "/dev/sr0", 3, destDir, nil)
	if err != nil {
		t.Fatalf("Rip returned error: %v", err)
	}
	if filepath.Dir(path) != destDir {
		t.Fatalf("expected output under %s, got %q", destDir, path)
	}
	if len(exec.args) != 1 {
		t.Fatalf("expected one executor invocation, got %d", len(exec.args))
	}
	expectedArgs := []string{"--robot", "mkv", "dev:/dev/sr0", "3", destDir}
	if !equalStrings(exec.args[0], expectedArgs) {
		t.Fatalf("unexpected makemkv args: got %v want %v", exec.args[0], expectedArgs)
	}
}

func TestRipRejectsNegativeTitleIndex(t *testing.T) {
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(&fileCreatingExecutor{}))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.Rip(context.Background(), "/dev/sr0", -1, t.TempDir(), nil); err == nil {
		t.Fatal("expected error for negative title index")
	}
}

// progressCapturingExecutor emits the given lines AND creates a file so Rip
// succeeds. This lets us capture progress updates through the public API.
type progressCapturingExecutor struct {
	lines []string
}

func (p *progressCapturingExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	destDir := args[len(args)-1]
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(destDir, "disc_t00.mkv"), []byte("rip"), 0o644); err != nil {
		return err
	}
	for _, line := range p.lines {
		if onStdout != nil {
			onStdout(line)
		}
	}
	return nil
}

func TestRipProgressPhaseAttribution(t *testing.T) {
	tmp := t.TempDir()
	destDir := filepath.Join(tmp, "dest")

	exec := &progressCapturingExecutor{lines: []string{
		`PRGT:0,0,"Analyzing"`,
		"PRGV:0,66,100",
		"PRGV:0,100,100",
		`PRGT:0,0,"Saving to MKV file"`,
		"PRGV:0,0,100",
		"PRGV:0,50,100",
		"PRGV:0,100,100",
	}}

	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var updates []makemkv.ProgressUpdate
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, destDir, func(u makemkv.ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Rip returned error: %v", err)
	}
	if len(updates) == 0 {
		t.Fatal("expected progress updates")
	}

	for _, u := range updates[:2] {
		if u.Stage != "Analyzing" {
			t.Errorf("expected Stage=Analyzing during analysis phase, got %q (percent=%.0f)", u.Stage, u.Percent)
		}
	}
	for _, u := range updates[2:] {
		if u.Stage != "Ripping" {
			t.Errorf("expected Stage=Ripping during rip phase, got %q (percent=%.0f)", u.Stage, u.Percent)
		}
	}
}

func TestRipProgressDefaultsToAnalyzingBeforePRGT(t *testing.T) {
	tmp := t.TempDir()
	destDir := filepath.Join(tmp, "dest")

	exec := &progressCapturingExecutor{lines: []string{"PRGV:0,30,100"}}

	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	var updates []makemkv.ProgressUpdate
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, destDir, func(u makemkv.ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("Rip returned error: %v", err)
	}
	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Stage != "Analyzing" {
		t.Errorf("expected Stage=Analyzing before any PRGT, got %q", updates[0].Stage)
	}
}

// contextAwareExecutor respects context cancellation, simulating how the
// real executor aborts when msgHandler cancels the run.
type contextAwareExecutor struct {
	lines []string
}

func (e *contextAwareExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	destDir := args[len(args)-1]
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	for _, line := range e.lines {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if onStdout != nil {
			onStdout(line)
		}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return os.WriteFile(filepath.Join(destDir, "disc_t00.mkv"), []byte("rip"), 0o644)
}

func TestMSGLicenseExpiredAborts(t *testing.T) {
	exec := &contextAwareExecutor{lines: []string{
		`MSG:5021,0,1,"This application version is too old","",""`,
	}}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error for expired license")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "license") && !strings.Contains(lower, "too old") {
		t.Fatalf("expected license-related error, got: %v", err)
	}
}

func TestMSGRipCompletedZeroTitles(t *testing.T) {
	exec := &contextAwareExecutor{lines: []string{
		`MSG:5004,0,2,"Copy complete. 0 titles saved, 0 failed.","%1 titles saved, %2 failed.","0","0"`,
	}}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error for zero titles saved")
	}
	if !strings.Contains(err.Error(), "0 titles") {
		t.Fatalf("expected zero-titles error, got: %v", err)
	}
}

func TestMSGRipCompletedSuccess(t *testing.T) {
	tmp := t.TempDir()
	destDir := filepath.Join(tmp, "dest")
	exec := &progressCapturingExecutor{lines: []string{
		`MSG:5004,0,2,"Copy complete. 3 titles saved, 0 failed.","%1 titles saved, %2 failed.","3","0"`,
	}}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, destDir, nil)
	if err != nil {
		t.Fatalf("expected success, got: %v", err)
	}
}

func TestMSGReadErrorNonFatal(t *testing.T) {
	tmp := t.TempDir()
	destDir := filepath.Join(tmp, "dest")
	exec := &progressCapturingExecutor{lines: []string{
		`MSG:2003,0,1,"Read error at sector 12345","",""`,
	}}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, destDir, nil)
	if err != nil {
		t.Fatalf("read error should not be fatal, got: %v", err)
	}
}

func TestMSGWriteErrorFatal(t *testing.T) {
	exec := &contextAwareExecutor{lines: []string{
		`MSG:2019,0,1,"Write error: No such file or directory","",""`,
	}}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error for write error with 'No such file'")
	}
	if !strings.Contains(err.Error(), "No such file") {
		t.Fatalf("expected 'No such file' in error, got: %v", err)
	}
}

func TestMSGEvalSharewareExpiredAborts(t *testing.T) {
	exec := &contextAwareExecutor{lines: []string{
		`MSG:5055,0,1,"Evaluation period has expired","",""`,
	}}
	client, err := makemkv.New("makemkvcon", 5, makemkv.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Rip(context.Background(), "/dev/sr0", 0, t.TempDir(), nil)
	if err == nil {
		t.Fatal("expected error for expired shareware")
	}
	lower := strings.ToLower(err.Error())
	if !strings.Contains(lower, "license") && !strings.Contains(lower, "expired") {
		t.Fatalf("expected license-related error, got: %v", err)
	}
}

func TestParseMSGSprintf(t *testing.T) {
	line := `MSG:5004,0,2,"Copy complete. 3 titles saved, 1 failed.","%1 titles saved, %2 failed.","3","1"`
	saved, failed := makemkv.ParseMSGSprintf(line)
	if saved != 3 {
		t.Errorf("expected saved=3, got %d", saved)
	}
	if failed != 1 {
		t.Errorf("expected failed=1, got %d", failed)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
