package backend

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// awaitSnapshot reads snapshots until one satisfies done or the deadline
// passes.
func awaitSnapshot(t *testing.T, snapshots <-chan Snapshot, done func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(5 * time.Second)
	var last Snapshot
	for {
		select {
		case s, ok := <-snapshots:
			if !ok {
				t.Fatalf("snapshot stream closed early, last: %+v", last)
			}
			last = s
			if done(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for snapshot, last: %+v", last)
		}
	}
}

func pointCount(n int) func(Snapshot) bool {
	return func(s Snapshot) bool {
		return s.Series.Len() >= n
	}
}

func TestLoadFromStream(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ds, err := NewDatasource(ctx)
	if err != nil {
		t.Fatalf("failed creating datasource: %v", err)
	}
	snapshots := ds.Snapshots(ctx)
	ds.LoadFromStream("test.csv", io.NopCloser(strings.NewReader("series,timestamp,value\na,0,1\nb,0,2\na,1000,3\n")))
	s := awaitSnapshot(t, snapshots, pointCount(3))
	if s.Source != "test.csv" {
		t.Errorf("expected source test.csv, got %q", s.Source)
	}
	if s.Err != nil {
		t.Errorf("expected no error, got %v", s.Err)
	}
	if s.Live {
		t.Errorf("expected a complete stream not to be live")
	}
	if len(s.Series["a"]) != 2 || len(s.Series["b"]) != 1 {
		t.Errorf("unexpected series %v", s.Series)
	}
	if latest := ds.Latest(); latest.Revision != s.Revision {
		t.Errorf("expected latest revision %d, got %d", s.Revision, latest.Revision)
	}

	// Late subscribers start from the latest snapshot.
	late := awaitSnapshot(t, ds.Snapshots(ctx), func(Snapshot) bool { return true })
	if late.Revision != s.Revision {
		t.Errorf("expected late subscriber to see revision %d, got %d", s.Revision, late.Revision)
	}
}

func TestLoadFromStreamBadHeadings(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ds, err := NewDatasource(ctx)
	if err != nil {
		t.Fatalf("failed creating datasource: %v", err)
	}
	ds.LoadFromStream("bad.csv", io.NopCloser(strings.NewReader("when,what\n1,2\n")))
	s := awaitSnapshot(t, ds.Snapshots(ctx), func(s Snapshot) bool { return s.Err != nil })
	if !strings.Contains(s.Err.Error(), ColumnSeries) {
		t.Errorf("expected error naming the missing column, got %v", s.Err)
	}
}

func TestLoadReplacesSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ds, err := NewDatasource(ctx)
	if err != nil {
		t.Fatalf("failed creating datasource: %v", err)
	}
	snapshots := ds.Snapshots(ctx)
	ds.LoadFromStream("first", io.NopCloser(strings.NewReader("series,timestamp,value\na,0,1\n")))
	awaitSnapshot(t, snapshots, func(s Snapshot) bool { return s.Source == "first" && s.Series.Len() == 1 })
	ds.LoadFromStream("second", io.NopCloser(strings.NewReader("series,timestamp,value\nz,0,1\nz,1,1\n")))
	s := awaitSnapshot(t, snapshots, func(s Snapshot) bool { return s.Source == "second" && s.Series.Len() == 2 })
	if _, ok := s.Series["a"]; ok {
		t.Errorf("expected the new source to replace the old one, got %v", s.Series.IDs())
	}
}

func TestFollow(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ds, err := NewDatasource(ctx)
	if err != nil {
		t.Fatalf("failed creating datasource: %v", err)
	}
	path := filepath.Join(t.TempDir(), "trace.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed creating trace: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString("series,timestamp,value\na,0,1\na,1000,2\n"); err != nil {
		t.Fatalf("failed writing trace: %v", err)
	}

	snapshots := ds.Snapshots(ctx)
	if err := ds.Follow(path); err != nil {
		t.Fatalf("failed following trace: %v", err)
	}
	s := awaitSnapshot(t, snapshots, pointCount(2))
	if !s.Live {
		t.Errorf("expected a followed file to be live")
	}

	// Half a record must not surface until its line is complete.
	if _, err := f.WriteString("a,2000,3\na,30"); err != nil {
		t.Fatalf("failed appending to trace: %v", err)
	}
	s = awaitSnapshot(t, snapshots, pointCount(3))
	if s.Series.Len() != 3 {
		t.Errorf("expected 3 points, got %d", s.Series.Len())
	}
	if _, err := f.WriteString("00,4\n"); err != nil {
		t.Fatalf("failed appending to trace: %v", err)
	}
	s = awaitSnapshot(t, snapshots, pointCount(4))
	last := s.Series["a"][3]
	if last.Millis() != 3000 || last.Value != 4 {
		t.Errorf("expected the completed record (3000, 4), got %+v", last)
	}
}

func TestFollowMissingFile(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ds, err := NewDatasource(ctx)
	if err != nil {
		t.Fatalf("failed creating datasource: %v", err)
	}
	if err := ds.Follow(filepath.Join(t.TempDir(), "absent.csv")); err == nil {
		t.Errorf("expected error following a missing file")
	}
}

func TestGeneratorProcessReaped(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p, err := runGeneratorWithName(ctx, "sh", "-c", `printf 'series,timestamp,value\na,0,1\n'`)
	if err != nil {
		t.Fatalf("failed starting generator: %v", err)
	}
	m, err := ParseCSV(p)
	if err != nil || len(m["a"]) != 1 {
		t.Errorf("expected one point from the generator, got %v (%v)", m, err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("expected a clean exit, got %v", err)
	}
	if p.cmd.ProcessState == nil || !p.cmd.ProcessState.Exited() {
		t.Errorf("expected the generator to be reaped")
	}

	failing, err := runGeneratorWithName(ctx, "sh", "-c", "exit 3")
	if err != nil {
		t.Fatalf("failed starting generator: %v", err)
	}
	io.Copy(io.Discard, failing)
	var exitErr *exec.ExitError
	if err := failing.Close(); !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("expected exit status 3, got %v", err)
	}
}

func TestGeneratorProcessCancelled(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("no shell available")
	}
	ctx, cancel := context.WithCancel(context.Background())
	p, err := runGeneratorWithName(ctx, "sh", "-c", "sleep 30")
	if err != nil {
		t.Fatalf("failed starting generator: %v", err)
	}
	cancel()
	done := make(chan error, 1)
	go func() { done <- p.Close() }()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for a cancelled generator to be reaped")
	}
	if p.cmd.ProcessState == nil {
		t.Errorf("expected the generator to be reaped")
	}
}
