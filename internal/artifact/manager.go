// Package artifact manages the synthesized audio files produced for chat
// responses.
//
// Every response gets its own file named by a random UUID, so concurrent
// requests never write to the same path. A [Manager] tracks every live file
// together with the number of open [Reader]s and a pending flag that stays
// set until the response's audio has been fetched at least once. The eviction
// sweep keeps the newest artifact and removes every other artifact that
// nobody is reading and that has either been fetched or outlived the
// retention window. An artifact handed out in a response is therefore never
// deleted while its client can still be expected to fetch it.
package artifact

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
	"github.com/teja-palleti/Yesu-Mitra/pkg/provider/tts"
)

// Extension is the file extension of every artifact.
const Extension = ".mp3"

// tempPattern names in-progress writes. They are renamed into place once
// complete and never visible under an artifact name.
const tempPattern = ".partial-*"

const (
	defaultRetention     = 10 * time.Minute
	defaultSweepInterval = time.Minute
	defaultTimeout       = 30 * time.Second
)

var (
	// ErrGenerationFailed wraps every synthesis or write failure in
	// [Manager.Produce]. It is never fatal: callers answer without audio.
	ErrGenerationFailed = errors.New("artifact: generation failed")

	// ErrNotFound is returned by [Manager.Open] for unknown or evicted IDs.
	ErrNotFound = errors.New("artifact: not found")

	// ErrClosed is returned once [Manager.Close] has run.
	ErrClosed = errors.New("artifact: manager closed")
)

// Artifact describes one synthesized audio file.
type Artifact struct {
	// ID is the artifact's UUID.
	ID string

	// Path is the absolute or dir-relative path of the file on disk.
	Path string

	// Size is the file size in bytes.
	Size int64

	// Digest is the hex BLAKE3-256 hash of the audio. The HTTP layer uses it
	// as the entity tag.
	Digest string

	// CreatedAt is the wall-clock production time.
	CreatedAt time.Time

	// Tick is a per-manager logical clock, strictly increasing with every
	// produced artifact.
	Tick uint64
}

// FileName returns the artifact's base file name ("<id>.mp3").
func (a Artifact) FileName() string {
	return a.ID + Extension
}

// IDFromFileName strips [Extension] from name. The boolean is false when name
// does not look like an artifact file name.
func IDFromFileName(name string) (string, bool) {
	id, ok := strings.CutSuffix(name, Extension)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// Config configures a [Manager]. Zero durations select the defaults.
type Config struct {
	// Dir is the directory artifacts are written to. It is created on demand.
	Dir string

	// Retention bounds how long an unfetched artifact is protected from
	// eviction. Default: 10m.
	Retention time.Duration

	// SweepInterval is the period of the janitor started by [Manager.Run].
	// Default: 1m.
	SweepInterval time.Duration

	// Timeout bounds a single synthesis call. Default: 30s.
	Timeout time.Duration

	// Voice is passed to the TTS provider for every artifact.
	Voice tts.VoiceProfile
}

// Option is a functional option for [New].
type Option func(*Manager)

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(mgr *Manager) { mgr.metrics = m }
}

// WithClock replaces time.Now. Used by tests to drive retention.
func WithClock(now func() time.Time) Option {
	return func(mgr *Manager) { mgr.now = now }
}

// entry is the registry record of one live artifact.
type entry struct {
	art     Artifact
	readers int
	pending bool
}

// Manager owns the artifact directory. It is safe for concurrent use. The
// registry lock is never held across synthesis or file I/O.
type Manager struct {
	cfg     Config
	tts     tts.Provider
	metrics *observe.Metrics
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
	tick    uint64
	newest  string
	closed  bool
}

// New creates a Manager writing to cfg.Dir. Files left in the directory by a
// previous process are removed, since artifacts never outlive the process
// that produced them.
func New(cfg Config, provider tts.Provider, opts ...Option) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, errors.New("artifact: Dir must not be empty")
	}
	if provider == nil {
		return nil, errors.New("artifact: TTS provider must not be nil")
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	m := &Manager{
		cfg:     cfg,
		tts:     provider,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, o := range opts {
		o(m)
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}

	if err := purge(cfg.Dir); err != nil {
		return nil, err
	}
	return m, nil
}

// purge removes leftover artifacts and partial writes from dir. A missing
// directory is not an error.
func purge(dir string) error {
	var errs []error
	for _, pattern := range []string{"*" + Extension, tempPattern} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return fmt.Errorf("artifact: purge %q: %w", dir, err)
		}
		for _, path := range matches {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("artifact: purge %q: %w", dir, err)
	}
	return nil
}

// Produce synthesizes text and stores it as a new artifact. The artifact is
// pending until a [Reader] for it is closed or [Manager.Release] is called.
// Every failure is wrapped in [ErrGenerationFailed].
func (m *Manager) Produce(ctx context.Context, text string) (*Artifact, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrGenerationFailed)
	}
	if m.isClosed() {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ErrClosed)
	}

	ctx, span := observe.StartSpan(ctx, "artifact.Produce")
	defer span.End()

	synthCtx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	start := time.Now()
	audio, err := m.tts.Synthesize(synthCtx, text, m.cfg.Voice)
	cancel()
	m.metrics.TTSDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: synthesize: %w", ErrGenerationFailed, err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("%w: provider returned no audio", ErrGenerationFailed)
	}

	id := uuid.NewString()
	path := filepath.Join(m.cfg.Dir, id+Extension)
	if err := writeAtomic(m.cfg.Dir, path, audio); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, ErrClosed)
	}
	sum := blake3.Sum256(audio)
	m.tick++
	art := Artifact{
		ID:        id,
		Path:      path,
		Size:      int64(len(audio)),
		Digest:    hex.EncodeToString(sum[:]),
		CreatedAt: m.now(),
		Tick:      m.tick,
	}
	m.entries[id] = &entry{art: art, pending: true}
	m.newest = id
	victims := m.sweepLocked()
	m.mu.Unlock()

	m.metrics.ArtifactsLive.Add(ctx, 1)
	m.remove(ctx, victims)

	observe.Logger(ctx).Debug("artifact: produced",
		slog.String("id", id),
		slog.Int64("bytes", art.Size),
		slog.Uint64("tick", art.Tick),
	)
	return &art, nil
}

// writeAtomic writes data to a temporary file in dir and renames it to path,
// so a reader never observes a partially written artifact.
func writeAtomic(dir, path string, data []byte) (err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %q: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", f.Name(), err)
	}
	if err := os.Chmod(f.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %q: %w", f.Name(), err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("rename to %q: %w", path, err)
	}
	return nil
}

// Open acquires a read reference on the artifact with the given ID. The
// artifact cannot be evicted until the returned Reader is closed. Returns
// [ErrNotFound] if the ID is unknown or already evicted.
func (m *Manager) Open(id string) (*Reader, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.readers++
	art := e.art
	m.mu.Unlock()

	f, err := os.Open(art.Path)
	if err != nil {
		m.release(id, false)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("artifact: open %q: %w", art.Path, err)
	}
	return newReader(f, art, m), nil
}

// Release marks the artifact as delivered without reading it, making it
// eligible for eviction at the next sweep. Unknown IDs are ignored.
func (m *Manager) Release(id string) {
	m.mu.Lock()
	if e, ok := m.entries[id]; ok {
		e.pending = false
	}
	victims := m.sweepLocked()
	m.mu.Unlock()
	m.remove(context.Background(), victims)
}

// release drops one reader reference. delivered clears the pending flag.
func (m *Manager) release(id string, delivered bool) {
	m.mu.Lock()
	if e, ok := m.entries[id]; ok {
		e.readers--
		if delivered {
			e.pending = false
		}
	}
	victims := m.sweepLocked()
	m.mu.Unlock()
	m.remove(context.Background(), victims)
}

// Lookup returns the live artifact with the given ID.
func (m *Manager) Lookup(id string) (Artifact, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return Artifact{}, false
	}
	return e.art, true
}

// SetRetention changes the retention window for subsequent sweeps.
// Non-positive values are ignored.
func (m *Manager) SetRetention(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg.Retention = d
}

// Len returns the number of live artifacts.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep evicts every artifact the eviction policy allows and returns how many
// were removed.
func (m *Manager) Sweep(ctx context.Context) int {
	m.mu.Lock()
	victims := m.sweepLocked()
	m.mu.Unlock()
	m.remove(ctx, victims)
	return len(victims)
}

// sweepLocked unregisters evictable artifacts and returns them. The caller
// deletes the files after releasing m.mu.
//
// An artifact is evictable when it is not the newest, has no open readers,
// and is either no longer pending or older than the retention window.
func (m *Manager) sweepLocked() []Artifact {
	if m.closed {
		return nil
	}
	now := m.now()
	var victims []Artifact
	for id, e := range m.entries {
		if id == m.newest || e.readers > 0 {
			continue
		}
		if e.pending && now.Sub(e.art.CreatedAt) < m.cfg.Retention {
			continue
		}
		delete(m.entries, id)
		victims = append(victims, e.art)
	}
	return victims
}

// remove deletes evicted artifact files.
func (m *Manager) remove(ctx context.Context, victims []Artifact) {
	if len(victims) == 0 {
		return
	}
	for _, art := range victims {
		if err := os.Remove(art.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("artifact: failed to remove evicted file", "path", art.Path, "err", err)
		}
	}
	n := int64(len(victims))
	m.metrics.ArtifactsLive.Add(ctx, -n)
	m.metrics.ArtifactsEvicted.Add(ctx, n)
	slog.Debug("artifact: evicted", "count", n)
}

// Run sweeps every [Config.SweepInterval] until ctx is cancelled. It returns
// nil on cancellation.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(ctx)
		}
	}
}

// Close removes every artifact file and rejects further calls. Readers that
// are still open keep their file descriptors valid until they are closed.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	all := make([]Artifact, 0, len(m.entries))
	for _, e := range m.entries {
		all = append(all, e.art)
	}
	clear(m.entries)
	m.mu.Unlock()

	var errs []error
	for _, art := range all {
		if err := os.Remove(art.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	m.metrics.ArtifactsLive.Add(context.Background(), -int64(len(all)))
	return errors.Join(errs...)
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
