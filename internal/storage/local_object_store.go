package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates that no object exists under the requested key.
	ErrNotFound = errors.New("object not found")

	// ErrInvalidKey indicates a key that is empty, absolute, or would
	// escape the storage root.
	ErrInvalidKey = errors.New("invalid object key")
)

// MaxListKeys caps the number of entries a single listing returns.
const MaxListKeys = 1000

// ObjectInfo describes an object without its payload. The ETag here is
// derived from the key and size, not the content; readers that need the
// content hash must fetch the object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// LocalObjectStore stores objects as files under a root directory, with the
// object key used directly as the relative file path. It keeps no state of
// its own beyond the filesystem; concurrent callers race at the file level
// with last-write-wins semantics and no atomic publish.
type LocalObjectStore struct {
	root string
}

// NewLocalObjectStore creates a LocalObjectStore rooted at root.
func NewLocalObjectStore(root string) *LocalObjectStore {
	return &LocalObjectStore{root: root}
}

// objectPath maps a key onto the filesystem, rejecting keys that would
// resolve outside the root.
func (s *LocalObjectStore) objectPath(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	clean := path.Clean(key)
	if clean == "." || clean == ".." || path.IsAbs(clean) || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}

	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

// List enumerates the direct entries of the root that are regular files and
// whose name starts with prefix, accumulating at most maxKeys entries and
// returning them sorted ascending by key. Subdirectories are not descended
// into. The listing is a point-in-time snapshot that may be stale relative
// to concurrent writes.
func (s *LocalObjectStore) List(prefix string, maxKeys int) ([]ObjectInfo, error) {
	if maxKeys <= 0 || maxKeys > MaxListKeys {
		maxKeys = MaxListKeys
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read storage root: %w", err)
	}

	objects := make([]ObjectInfo, 0, min(len(entries), maxKeys))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			slog.Debug("Skipping unstatable entry", "name", name, "err", err)
			continue
		}

		objects = append(objects, ObjectInfo{
			Key:          name,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			ETag:         MetadataETag(name, info.Size()),
		})

		if len(objects) >= maxKeys {
			break
		}
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Get reads the full payload stored under key. Any failure to read the file
// is reported as ErrNotFound. The returned ETag is the hex SHA-256 of the
// content.
func (s *LocalObjectStore) Get(key string) ([]byte, string, error) {
	objPath, err := s.objectPath(key)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(objPath)
	if err != nil {
		return nil, "", ErrNotFound
	}

	return data, ContentETag(data), nil
}

// Put writes the full payload under key, creating intermediate directories
// as needed. Existing content is truncated and overwritten in place, so a
// concurrent reader may observe partial content. It returns the hex SHA-256
// of the content.
func (s *LocalObjectStore) Put(key string, data []byte) (string, error) {
	objPath, err := s.objectPath(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(objPath), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories: %w", err)
	}

	if err := os.WriteFile(objPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}

	return ContentETag(data), nil
}

// Delete removes the object stored under key. Removal of a missing object
// is not an error.
func (s *LocalObjectStore) Delete(key string) error {
	objPath, err := s.objectPath(key)
	if err != nil {
		return err
	}

	if err := os.Remove(objPath); err != nil && !os.IsNotExist(err) {
		slog.Debug("Delete object", "key", key, "err", err)
	}
	return nil
}

// Head returns the metadata view of the object stored under key, with the
// same key/size-derived ETag that List reports.
func (s *LocalObjectStore) Head(key string) (ObjectInfo, error) {
	objPath, err := s.objectPath(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	info, err := os.Stat(objPath)
	if err != nil {
		return ObjectInfo{}, ErrNotFound
	}

	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		LastModified: info.ModTime(),
		ETag:         MetadataETag(key, info.Size()),
	}, nil
}

// ContentETag is the hex SHA-256 of an object's payload, reported by Get
// and Put.
func ContentETag(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// MetadataETag is the hex SHA-256 of "key:size", reported by List and Head.
// It is intentionally computed differently from ContentETag, so the two
// values generally disagree for the same object.
func MetadataETag(key string, size int64) string {
	sum := sha256.Sum256([]byte(key + ":" + strconv.FormatInt(size, 10)))
	return hex.EncodeToString(sum[:])
}
