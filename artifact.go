package imgconvert

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gobwas/glob"

	"github.com/gobeaver/imgconvert/pipeline"
)

// Artifact is a converted image held by an ArtifactStore until released.
type Artifact struct {
	ID        string
	Name      string
	MIMEType  string
	Size      int64
	Width     int
	Height    int
	CreatedAt time.Time

	data []byte
	seq  uint64
}

// Reader returns a reader over the artifact bytes
func (a *Artifact) Reader() io.Reader {
	return bytes.NewReader(a.data)
}

// Checksum calculates the checksum of the artifact bytes
func (a *Artifact) Checksum(algorithm ChecksumAlgorithm) (string, error) {
	return CalculateChecksum(a.Reader(), algorithm)
}

// ArtifactStore keeps conversion results in memory behind opaque ids so a
// caller can hand out download handles and release them later.
type ArtifactStore struct {
	mu      sync.RWMutex
	items   map[string]*Artifact
	maxSize int64 // 0 = unlimited
	size    int64
	seq     uint64
}

// NewArtifactStore creates a store holding at most maxSize bytes (0 = unlimited)
func NewArtifactStore(maxSize int64) *ArtifactStore {
	return &ArtifactStore{
		items:   make(map[string]*Artifact),
		maxSize: maxSize,
	}
}

// Put stores a result under name. The id is derived from the content hash
// and a sequence number, so storing the same bytes twice gives two handles.
func (s *ArtifactStore) Put(res *pipeline.Result, name string) (*Artifact, error) {
	if res == nil {
		return nil, fmt.Errorf("put %s: nil result", name)
	}
	size := int64(len(res.Data))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSize > 0 && s.size+size > s.maxSize {
		return nil, &FileError{Op: "put", Name: name, Err: ErrStoreFull}
	}

	s.seq++
	a := &Artifact{
		ID:        fmt.Sprintf("%016x-%d", xxhash.Sum64(res.Data), s.seq),
		Name:      name,
		MIMEType:  res.MIMEType,
		Size:      size,
		Width:     res.Width,
		Height:    res.Height,
		CreatedAt: time.Now(),
		data:      res.Data,
		seq:       s.seq,
	}
	s.items[a.ID] = a
	s.size += size

	return a, nil
}

// Get returns the artifact for id
func (s *ArtifactStore) Get(id string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.items[id]
	if !ok {
		return nil, &FileError{Op: "get", Name: id, Err: ErrArtifactNotFound}
	}
	return a, nil
}

// Open returns a reader over the artifact bytes
func (s *ArtifactStore) Open(id string) (io.ReadCloser, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(a.Reader()), nil
}

// Release drops the artifact. Releasing an id twice returns ErrArtifactNotFound.
func (s *ArtifactStore) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.items[id]
	if !ok {
		return &FileError{Op: "release", Name: id, Err: ErrArtifactNotFound}
	}
	delete(s.items, id)
	s.size -= a.Size
	return nil
}

// List returns the artifacts whose name matches pattern, oldest first. An
// empty pattern matches everything.
func (s *ArtifactStore) List(pattern string) ([]*Artifact, error) {
	var g glob.Glob
	if pattern != "" {
		var err error
		if g, err = glob.Compile(pattern); err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
	}

	s.mu.RLock()
	out := make([]*Artifact, 0, len(s.items))
	for _, a := range s.items {
		if g == nil || g.Match(a.Name) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out, nil
}

// Len returns the number of stored artifacts
func (s *ArtifactStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Size returns the total bytes held
func (s *ArtifactStore) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}
