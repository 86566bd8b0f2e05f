// Package filecache keeps small static files in memory, keyed by path and
// validated against the file's modification time and size.
package filecache

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"
)

// ErrIsDir is returned by Load when the path names a directory.
var ErrIsDir = errors.New("filecache: is a directory")

// File is a cached file body and the metadata needed to serve it.
type File struct {
	Data        []byte
	ModTime     time.Time
	Size        int64
	ContentType string

	lastAccess time.Time
}

// Cache is an LRU-by-access-time file cache bounded by total bytes and by
// entry count. Files larger than MaxFileSize are never cached.
type Cache struct {
	mu          sync.Mutex
	files       map[string]*File
	maxSize     int64
	maxItems    int
	currentSize int64

	// MaxFileSize bounds a single cached file. Zero means maxSize.
	MaxFileSize int64
}

// NewCache creates a cache holding at most maxSize bytes in at most
// maxItems files.
func NewCache(maxSize int64, maxItems int) *Cache {
	return &Cache{
		files:    make(map[string]*File),
		maxSize:  maxSize,
		maxItems: maxItems,
	}
}

// Get returns the cached file for path.
func (c *Cache) Get(path string) (*File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.files[path]
	if !ok {
		return nil, false
	}
	f.lastAccess = time.Now()
	return f, true
}

// Set stores data for path, evicting the least recently used entries to
// make room. Files that cannot fit are ignored.
func (c *Cache) Set(path string, data []byte, modTime time.Time, contentType string) {
	size := int64(len(data))
	if size > c.limit() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.files[path]; ok {
		c.currentSize -= old.Size
		delete(c.files, path)
	}
	for len(c.files) > 0 && (c.currentSize+size > c.maxSize || len(c.files) >= c.maxItems) {
		c.evict()
	}
	c.files[path] = &File{
		Data:        data,
		ModTime:     modTime,
		Size:        size,
		ContentType: contentType,
		lastAccess:  time.Now(),
	}
	c.currentSize += size
}

func (c *Cache) limit() int64 {
	if c.MaxFileSize > 0 && c.MaxFileSize < c.maxSize {
		return c.MaxFileSize
	}
	return c.maxSize
}

// evict drops the least recently accessed entry. The caller holds mu.
func (c *Cache) evict() {
	var (
		oldestPath string
		oldest     time.Time
	)
	for p, f := range c.files {
		if oldestPath == "" || f.lastAccess.Before(oldest) {
			oldestPath, oldest = p, f.lastAccess
		}
	}
	if oldestPath != "" {
		c.currentSize -= c.files[oldestPath].Size
		delete(c.files, oldestPath)
	}
}

// Load returns the file at path, reading it from disk when it is not cached
// or changed since it was cached. contentType is recorded on a fresh read.
// A file too large to cache is still returned, just not stored.
func (c *Cache) Load(path, contentType string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Remove(path)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrIsDir
	}

	if f, ok := c.Get(path); ok && !IsModified(f, info) {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c.Set(path, data, info.ModTime(), contentType)
	return &File{
		Data:        data,
		ModTime:     info.ModTime(),
		Size:        int64(len(data)),
		ContentType: contentType,
	}, nil
}

// IsModified reports whether info describes a different version of f.
func IsModified(f *File, info fs.FileInfo) bool {
	return !f.ModTime.Equal(info.ModTime()) || f.Size != info.Size()
}

// Remove drops path from the cache.
func (c *Cache) Remove(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.files[path]; ok {
		c.currentSize -= f.Size
		delete(c.files, path)
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[string]*File)
	c.currentSize = 0
}

// Size returns the cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// Count returns the number of cached files.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// DefaultCache is shared by static handlers that do not bring their own.
var DefaultCache = NewCache(100*1024*1024, 1000)
