package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"gioui.org/x/explorer"
	"git.sr.ht/~whereswaldon/guideplot/series"
	"github.com/fsnotify/fsnotify"
)

// Snapshot is the state of the active source at one moment. Series is never
// modified after publication, so readers may hold it as long as they like.
type Snapshot struct {
	Source   string
	Series   series.Map
	Revision uint64
	Err      error
	// Live is true while the source may still grow.
	Live bool
}

// Loaded reports whether any source has published yet.
func (s Snapshot) Loaded() bool {
	return s.Revision > 0
}

// publishBatch bounds the records parsed between snapshots of a growing
// source.
const publishBatch = 512

// Datasource reads one trace source at a time and fans each snapshot of it
// out to every subscriber. Loading a new source cancels the old one.
type Datasource struct {
	watcher *fsnotify.Watcher
	appCtx  context.Context

	lock     sync.Mutex
	latest   Snapshot
	revision uint64
	session  uint64
	cancel   context.CancelFunc
	subs     map[chan Snapshot]struct{}
	writes   map[string]chan struct{}
}

func NewDatasource(appCtx context.Context) (*Datasource, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed creating file watcher: %w", err)
	}
	ds := &Datasource{
		watcher: watcher,
		appCtx:  appCtx,
		subs:    map[chan Snapshot]struct{}{},
		writes:  map[string]chan struct{}{},
	}
	go ds.watch()
	go func() {
		<-appCtx.Done()
		ds.watcher.Close()
	}()
	return ds, nil
}

// watch forwards file write events to whichever reader follows that file.
func (d *Datasource) watch() {
	for {
		select {
		case ev, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) {
				continue
			}
			d.lock.Lock()
			notify, ok := d.writes[filepath.Clean(ev.Name)]
			d.lock.Unlock()
			if ok {
				select {
				case notify <- struct{}{}:
				default:
				}
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("file watcher: %v", err)
		}
	}
}

// Snapshots streams the latest snapshot until ctx is cancelled. A slow
// reader only ever sees the newest one.
func (d *Datasource) Snapshots(ctx context.Context) <-chan Snapshot {
	out := make(chan Snapshot, 1)
	d.lock.Lock()
	d.subs[out] = struct{}{}
	if d.latest.Loaded() {
		out <- d.latest
	}
	d.lock.Unlock()
	go func() {
		<-ctx.Done()
		d.lock.Lock()
		defer d.lock.Unlock()
		delete(d.subs, out)
		close(out)
	}()
	return out
}

// Latest returns the most recently published snapshot.
func (d *Datasource) Latest() Snapshot {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.latest
}

func (d *Datasource) publish(session uint64, s Snapshot) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if session != d.session {
		return
	}
	d.revision++
	s.Revision = d.revision
	d.latest = s
	for ch := range d.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

// begin cancels the current source and starts a new session.
func (d *Datasource) begin() (context.Context, uint64) {
	ctx, cancel := context.WithCancel(d.appCtx)
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	d.session++
	return ctx, d.session
}

// LoadFromStream reads a complete trace from r, closing it when done.
func (d *Datasource) LoadFromStream(name string, r io.ReadCloser) {
	ctx, session := d.begin()
	go func() {
		defer r.Close()
		d.readSource(ctx, session, name, r, false, nil)
	}()
}

// LoadFromFile asks the user to choose a trace file and loads it.
func (d *Datasource) LoadFromFile(expl *explorer.Explorer) (string, error) {
	file, err := expl.ChooseFile("csv")
	if err != nil {
		return "", err
	}
	name := "trace"
	if f, ok := file.(interface{ Name() string }); ok {
		name = filepath.Base(f.Name())
	}
	d.LoadFromStream(name, file)
	return name, nil
}

// Follow loads the trace at path and keeps reading as it is appended to.
func (d *Datasource) Follow(path string) error {
	path = filepath.Clean(path)
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed opening %s: %w", path, err)
	}
	if err := d.watcher.Add(path); err != nil {
		file.Close()
		return fmt.Errorf("failed watching %s: %w", path, err)
	}
	notify := make(chan struct{}, 1)
	d.lock.Lock()
	d.writes[path] = notify
	d.lock.Unlock()

	ctx, session := d.begin()
	go func() {
		defer func() {
			d.lock.Lock()
			owner := d.writes[path] == notify
			if owner {
				delete(d.writes, path)
			}
			d.lock.Unlock()
			err := file.Close()
			if owner {
				err = errors.Join(d.watcher.Remove(path), err)
			}
			if err != nil && !errors.Is(err, fsnotify.ErrClosed) {
				log.Printf("failed releasing %s: %v", path, err)
			}
		}()
		d.readSource(ctx, session, filepath.Base(path), file, true, notify)
	}()
	return nil
}

// LaunchGenerator runs the synthetic trace generator and loads its output,
// recording a copy of the trace in the working directory.
func (d *Datasource) LaunchGenerator(args ...string) (string, error) {
	id := generateSessionID()
	recording, err := os.Create(sessionFileFor(id))
	if err != nil {
		return "", fmt.Errorf("failed creating recording: %w", err)
	}
	ctx, session := d.begin()
	trace, err := launchGenerator(ctx, args...)
	if err != nil {
		recording.Close()
		os.Remove(recording.Name())
		return "", err
	}
	go func() {
		defer func() {
			// A cancelled session kills the generator, so its exit status
			// only matters when the trace ended on its own.
			if err := trace.Close(); err != nil && ctx.Err() == nil {
				log.Printf("generator session %s: %v", id, err)
			}
			if err := recording.Close(); err != nil {
				log.Printf("failed closing recording of session %s: %v", id, err)
			}
		}()
		d.readSource(ctx, session, "generator "+id, io.TeeReader(trace, recording), true, nil)
	}()
	return id, nil
}

func generateSessionID() string {
	return strings.Replace(time.Now().UTC().Format("20060102150405.000000000"), ".", "", 1)
}

func sessionFileFor(sessionID string) string {
	return "guideplot-" + sessionID + ".csv"
}

const generatorExeName = "guideplot-gen"

// process is the standard output of a running generator. Closing it waits
// for the generator to exit.
type process struct {
	io.ReadCloser
	cmd *exec.Cmd
}

// Close releases the pipe and reaps the process. A generator still running
// sees its pipe break on the next write and exits.
func (p *process) Close() error {
	p.ReadCloser.Close()
	if err := p.cmd.Wait(); err != nil {
		return fmt.Errorf("generator exited: %w", err)
	}
	return nil
}

func runGeneratorWithName(ctx context.Context, exeName string, args ...string) (*process, error) {
	cmd := exec.CommandContext(ctx, exeName, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed acquiring stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &process{ReadCloser: out, cmd: cmd}, nil
}

func launchGenerator(ctx context.Context, args ...string) (*process, error) {
	execPath, err := os.Executable()
	if err == nil {
		genExe := filepath.Join(filepath.Dir(execPath), generatorExeName)
		if runtime.GOOS == "windows" {
			genExe += ".exe"
		}
		log.Printf("Looking for %q", genExe)
		output, err := runGeneratorWithName(ctx, genExe, args...)
		if err == nil {
			return output, nil
		}
	}

	log.Printf("Searching path for generator")
	genExe, err := exec.LookPath(generatorExeName)
	if err != nil {
		return nil, fmt.Errorf("unable to locate %q in $PATH: %w", generatorExeName, err)
	}

	output, err := runGeneratorWithName(ctx, genExe, args...)
	if err != nil {
		return nil, fmt.Errorf("failed launching %q: %w", genExe, err)
	}
	return output, nil
}

// readSource parses a trace, publishing a snapshot after every batch of
// records and whenever the input runs dry. With a non-nil more channel it
// waits there for the input to grow instead of stopping at EOF.
func (d *Datasource) readSource(ctx context.Context, session uint64, name string, source io.Reader, live bool, more <-chan struct{}) {
	follow := more != nil
	m := series.Map{}
	fail := func(err error) {
		d.publish(session, Snapshot{Source: name, Series: m.Clone(), Err: err})
	}
	csvReader := newCSVReader(newLineReader(source))

	var cols columns
	for {
		headings, err := csvReader.Read()
		if err == nil {
			if cols, err = parseHeadings(headings); err != nil {
				fail(err)
				return
			}
			break
		}
		if !errors.Is(err, io.EOF) || !follow {
			fail(fmt.Errorf("failed reading trace headings: %w", err))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-more:
		}
	}
	d.publish(session, Snapshot{Source: name, Series: m.Clone(), Live: live})

	pending := 0
	for {
		rec, err := csvReader.Read()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				fail(fmt.Errorf("could not read trace: %w", err))
				return
			}
			if !follow {
				d.publish(session, Snapshot{Source: name, Series: m.Clone()})
				return
			}
			if pending > 0 {
				d.publish(session, Snapshot{Source: name, Series: m.Clone(), Live: live})
				pending = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-more:
				continue
			}
		}
		p, err := cols.parseRecord(rec)
		if err != nil {
			log.Printf("skipping record: %v", err)
			continue
		}
		m[p.SeriesID] = append(m[p.SeriesID], p)
		pending++
		if pending >= publishBatch {
			d.publish(session, Snapshot{Source: name, Series: m.Clone(), Live: live})
			pending = 0
		}
		if ctx.Err() != nil {
			return
		}
	}
}
