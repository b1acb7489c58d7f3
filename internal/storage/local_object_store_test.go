package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()

	store := NewLocalObjectStore(t.TempDir())

	payload := []byte("hello object store")

	etag, err := store.Put("docs/nested/file.txt", payload)
	require.NoError(t, err, "Put error")
	require.Equal(t, ContentETag(payload), etag, "Put ETag")

	data, getETag, err := store.Get("docs/nested/file.txt")
	require.NoError(t, err, "Get error")
	require.Equal(t, payload, data, "payload mismatch")
	require.Equal(t, etag, getETag, "Get ETag should match Put ETag")
}

func TestPutOverwritesInPlace(t *testing.T) {
	t.Parallel()

	store := NewLocalObjectStore(t.TempDir())

	_, err := store.Put("file.txt", []byte("first"))
	require.NoError(t, err, "first Put error")

	etag, err := store.Put("file.txt", []byte("second"))
	require.NoError(t, err, "second Put error")
	require.Equal(t, ContentETag([]byte("second")), etag, "overwrite ETag")

	data, _, err := store.Get("file.txt")
	require.NoError(t, err, "Get error")
	require.Equal(t, "second", string(data), "overwritten payload")
}

func TestHeadReportsMetadataETag(t *testing.T) {
	t.Parallel()

	store := NewLocalObjectStore(t.TempDir())

	payload := []byte("hi")
	contentETag, err := store.Put("hello.txt", payload)
	require.NoError(t, err, "Put error")

	info, err := store.Head("hello.txt")
	require.NoError(t, err, "Head error")
	require.Equal(t, "hello.txt", info.Key, "Head key")
	require.Equal(t, int64(len(payload)), info.Size, "Head size")

	// Head derives its ETag from the key and size while Get/Put hash the
	// content; the two values are intentionally different for the same
	// object and both are part of the API surface.
	require.Equal(t, MetadataETag("hello.txt", int64(len(payload))), info.ETag, "Head ETag")
	require.NotEqual(t, contentETag, info.ETag, "metadata and content ETags should differ")
}

func TestHeadMissing(t *testing.T) {
	t.Parallel()

	store := NewLocalObjectStore(t.TempDir())

	_, err := store.Head("absent.txt")
	require.ErrorIs(t, err, ErrNotFound, "Head on missing object")

	_, _, err = store.Get("absent.txt")
	require.ErrorIs(t, err, ErrNotFound, "Get on missing object")
}

func TestDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewLocalObjectStore(t.TempDir())

	_, err := store.Put("file.txt", []byte("data"))
	require.NoError(t, err, "Put error")

	require.NoError(t, store.Delete("file.txt"), "first Delete error")
	require.NoError(t, store.Delete("file.txt"), "second Delete should also succeed")

	_, _, err = store.Get("file.txt")
	require.ErrorIs(t, err, ErrNotFound, "Get after Delete")
}

func TestListFiltersAndSorts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewLocalObjectStore(root)

	for _, name := range []string{"zebra.txt", "apple.txt", "apricot.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(name), 0o644), "seeding %s", name)
	}

	// Entries in subdirectories are not part of the listing.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755), "creating subdir")
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "hidden.txt"), []byte("x"), 0o644), "seeding nested file")

	objects, err := store.List("", 0)
	require.NoError(t, err, "List error")
	require.Len(t, objects, 3, "only direct regular files should be listed")
	require.Equal(t, "apple.txt", objects[0].Key, "ascending order")
	require.Equal(t, "apricot.txt", objects[1].Key, "ascending order")
	require.Equal(t, "zebra.txt", objects[2].Key, "ascending order")

	for _, obj := range objects {
		require.Equal(t, MetadataETag(obj.Key, obj.Size), obj.ETag, "listing ETag for %s", obj.Key)
	}

	filtered, err := store.List("ap", 0)
	require.NoError(t, err, "List with prefix error")
	require.Len(t, filtered, 2, "prefix filter")

	limited, err := store.List("", 2)
	require.NoError(t, err, "List with max keys error")
	require.Len(t, limited, 2, "max keys limit")
}

func TestListMissingRootIsEmpty(t *testing.T) {
	t.Parallel()

	store := NewLocalObjectStore(filepath.Join(t.TempDir(), "does-not-exist"))

	objects, err := store.List("", 0)
	require.NoError(t, err, "List error")
	require.Empty(t, objects, "missing root should list as empty")
}

func TestInvalidKeysRejected(t *testing.T) {
	t.Parallel()

	store := NewLocalObjectStore(t.TempDir())

	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "dot", key: "."},
		{name: "parent", key: ".."},
		{name: "traversal", key: "../escape.txt"},
		{name: "nested traversal", key: "a/../../escape.txt"},
		{name: "absolute", key: "/etc/passwd"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := store.Put(tc.key, []byte("x"))
			require.ErrorIs(t, err, ErrInvalidKey, "Put")

			_, _, err = store.Get(tc.key)
			require.ErrorIs(t, err, ErrInvalidKey, "Get")

			_, err = store.Head(tc.key)
			require.ErrorIs(t, err, ErrInvalidKey, "Head")

			require.ErrorIs(t, store.Delete(tc.key), ErrInvalidKey, "Delete")
		})
	}
}

func TestLegitimateNestedKeysResolve(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewLocalObjectStore(root)

	_, err := store.Put("a/b/c.txt", []byte("nested"))
	require.NoError(t, err, "Put error")

	_, err = os.Stat(filepath.Join(root, "a", "b", "c.txt"))
	require.NoError(t, err, "expected file at key-derived path")
}
