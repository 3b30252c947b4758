package directory

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	appLog "github.com/dove-unipi/dove/internal/log"
)

// Generation identifies one load of the cached file. Zero means nothing
// usable was loaded.
type Generation uint64

// stamp identifies one version of a file on disk.
type stamp struct {
	path    string
	modTime time.Time
	size    int64
}

func stampOf(path string, info os.FileInfo) stamp {
	return stamp{path: path, modTime: info.ModTime(), size: info.Size()}
}

func (s stamp) matches(path string, info os.FileInfo) bool {
	return s.path == path && s.size == info.Size() && s.modTime.Equal(info.ModTime())
}

type snapshot[T any] struct {
	// loaded is the version value was parsed from; failed is the newest
	// version that did not parse.
	loaded, failed stamp
	stale          bool
	gen            Generation
	value          T
}

// Cache keeps the parsed form of a file and reparses it when the file's
// modification time or size changes. Readers never block on each other and
// never see a half-built value: a new generation is published with a
// single pointer swap after a complete parse.
//
// When a changed file fails to parse the previous generation stays
// current, and that version of the file is not retried until it changes
// again. A missing file, or one that never parsed, yields the zero value
// of T; errors are logged, never returned.
type Cache[T any] struct {
	load func(path string) (T, error)

	current atomic.Pointer[snapshot[T]]
	// Serializes reloads so a burst of readers parses the file once.
	reload  sync.Mutex
	counter Generation
}

func NewCache[T any](load func(path string) (T, error)) *Cache[T] {
	return &Cache[T]{load: load}
}

// Get returns the current generation for path, loading it on first use.
func (c *Cache[T]) Get(path string) (Generation, T) {
	var zero T

	info, err := os.Stat(path)
	if err != nil {
		appLog.Error("room document unavailable", err, "path", path)
		return 0, zero
	}
	if s := c.current.Load(); s.fresh(path, info) {
		return s.gen, s.value
	}

	c.reload.Lock()
	defer c.reload.Unlock()

	// Another reader may have reloaded while we waited.
	prev := c.current.Load()
	if prev.fresh(path, info) {
		return prev.gen, prev.value
	}

	value, err := c.load(path)
	if err != nil {
		next := &snapshot[T]{failed: stampOf(path, info)}
		if prev != nil && prev.loaded.path == path {
			next.loaded, next.gen, next.value = prev.loaded, prev.gen, prev.value
		}
		c.current.Store(next)
		appLog.Error("loading room document", err, "path", path, "generation", next.gen)
		return next.gen, next.value
	}

	c.counter++
	next := &snapshot[T]{loaded: stampOf(path, info), gen: c.counter, value: value}
	c.current.Store(next)

	appLog.Info("room document loaded", "path", path, "generation", next.gen)
	return next.gen, value
}

// Invalidate forces a reload on the next Get. The current generation is
// still served if that reload fails.
func (c *Cache[T]) Invalidate() {
	c.reload.Lock()
	defer c.reload.Unlock()

	if s := c.current.Load(); s != nil {
		stale := *s
		stale.stale = true
		c.current.Store(&stale)
	}
}

func (s *snapshot[T]) fresh(path string, info os.FileInfo) bool {
	if s == nil || s.stale {
		return false
	}
	return s.loaded.matches(path, info) || s.failed.matches(path, info)
}
