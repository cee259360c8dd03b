package artifact

import (
	"io"
	"os"
	"sync"
)

// Reader streams one artifact's bytes. It holds a reference that keeps the
// artifact from being evicted until Close. Reader implements
// io.ReadSeekCloser.
//
// The artifact counts as delivered only when reading started at offset 0 and
// reached the end of the file. HEAD requests, conditional hits and partial
// range reads leave it pending until the retention window expires.
type Reader struct {
	*os.File

	art  Artifact
	mgr  *Manager
	once sync.Once

	mu      sync.Mutex
	pos     int64
	start   int64 // offset of the first Read, -1 before any
	reached int64 // highest offset read so far
}

func newReader(f *os.File, art Artifact, m *Manager) *Reader {
	return &Reader{File: f, art: art, mgr: m, start: -1}
}

// Artifact describes the file being read.
func (r *Reader) Artifact() Artifact {
	return r.art
}

// Read reads from the file and records how far the artifact has been read.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.File.Read(p)
	r.mu.Lock()
	if r.start < 0 {
		r.start = r.pos
	}
	r.pos += int64(n)
	r.reached = max(r.reached, r.pos)
	r.mu.Unlock()
	return n, err
}

// Seek sets the offset for the next Read.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	n, err := r.File.Seek(offset, whence)
	if err == nil {
		r.mu.Lock()
		r.pos = n
		r.mu.Unlock()
	}
	return n, err
}

// Delivered reports whether the whole artifact was read from the start.
func (r *Reader) Delivered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.start == 0 && r.reached >= r.art.Size
}

// Close closes the file and releases the reference. It is safe to call more
// than once; only the first call has an effect.
func (r *Reader) Close() error {
	var err error
	r.once.Do(func() {
		err = r.File.Close()
		r.mgr.release(r.art.ID, r.Delivered())
	})
	return err
}

var _ io.ReadSeekCloser = (*Reader)(nil)
