package cask

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"

	"cask/internal/auth"
	"cask/internal/storage"
)

// Config holds the collaborators and bucket identity for a Server.
type Config struct {
	// BucketName is the name reported in listings. The server exposes
	// exactly one bucket, rooted at the store's directory.
	BucketName string

	// Store performs all object operations.
	Store *storage.LocalObjectStore

	// Verifier gates every route.
	Verifier *auth.Verifier
}

// Server exposes a single-bucket S3-compatible HTTP API over a local
// filesystem object store. It holds no mutable state; every request is
// served independently.
type Server struct {
	cfg Config
}

// NewServer returns a new Server for the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store must not be nil")
	}
	if cfg.Verifier == nil {
		return nil, errors.New("verifier must not be nil")
	}
	if cfg.BucketName == "" {
		return nil, errors.New("bucket name must not be empty")
	}

	return &Server{cfg: cfg}, nil
}

// writeS3Error writes a minimal S3-style XML error response.
func writeS3Error(w http.ResponseWriter, code string, message string, resource string, status int) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	_ = xml.NewEncoder(w).Encode(S3Error{
		Code:     code,
		Message:  message,
		Resource: resource,
	})
}

// writeXMLResponse encodes v as XML and writes it with a 200 OK status. The
// document is marshalled up front so a serialization failure can still be
// reported as a server error.
func writeXMLResponse(w http.ResponseWriter, r *http.Request, v any) {
	body, err := xml.Marshal(v)
	if err != nil {
		slog.Error("Encode XML response", "err", err)
		writeS3Error(w, "InternalError", "We encountered an internal error. Please try again.", r.URL.Path, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		slog.Error("Write XML response", "err", err)
	}
}

// createETag formats a hash hex string as an ETag value.
func createETag(hashHex string) string {
	return fmt.Sprintf("\"%s\"", hashHex)
}

// contentTypeForKey guesses a Content-Type from the key's extension.
func contentTypeForKey(key string) string {
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// handleListObjects implements GET / with prefix, marker, and max-keys
// parameters. The marker is echoed back but never used for filtering, and
// IsTruncated is always false, even when max-keys cut the listing short.
func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	prefix := q.Get("prefix")
	marker := q.Get("marker")

	maxKeys := storage.MaxListKeys
	if raw := q.Get("max-keys"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			maxKeys = min(v, storage.MaxListKeys)
		}
	}

	objects, err := s.cfg.Store.List(prefix, maxKeys)
	if err != nil {
		slog.Error("List objects", "prefix", prefix, "err", err)
		writeS3Error(w, "InternalError", "We encountered an internal error. Please try again.", r.URL.Path, http.StatusInternalServerError)
		return
	}

	contents := make([]ObjectSummary, 0, len(objects))
	for _, obj := range objects {
		contents = append(contents, ObjectSummary{
			Key:          obj.Key,
			LastModified: obj.LastModified.UTC().Format(lastModifiedFormat),
			ETag:         createETag(obj.ETag),
			Size:         obj.Size,
			StorageClass: "STANDARD",
		})
	}

	resp := ListBucketResult{
		XMLNS:       s3XMLNamespace,
		Name:        s.cfg.BucketName,
		Prefix:      prefix,
		Marker:      marker,
		MaxKeys:     maxKeys,
		IsTruncated: false,
		Contents:    contents,
	}

	writeXMLResponse(w, r, resp)
}

// handleGetObject implements GET /{key} to fetch an object's full payload.
func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request, key string) {
	data, etag, err := s.cfg.Store.Get(key)
	if err != nil {
		s.writeStoreError(w, r, key, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeForKey(key))
	w.Header().Set("ETag", createETag(etag))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Accept-Ranges", "bytes")

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Error("Stream object", "key", key, "err", err)
	}
}

// handlePutObject implements PUT /{key} to store the full request body as
// an object, overwriting any previous content.
func (s *Server) handlePutObject(w http.ResponseWriter, r *http.Request, key string) {
	defer r.Body.Close()

	data, err := io.ReadAll(r.Body)
	if err != nil {
		slog.Error("Read request body", "key", key, "err", err)
		writeS3Error(w, "InvalidRequest", "Failed to read request body", r.URL.Path, http.StatusBadRequest)
		return
	}

	etag, err := s.cfg.Store.Put(key, data)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			writeS3Error(w, "InvalidObjectName", "The specified key is not valid.", r.URL.Path, http.StatusBadRequest)
			return
		}
		slog.Error("Store object", "key", key, "err", err)
		writeS3Error(w, "InternalError", "We encountered an internal error. Please try again.", r.URL.Path, http.StatusInternalServerError)
		return
	}

	slog.Info("Stored object", "key", key, "size", len(data))

	w.Header().Set("ETag", createETag(etag))
	w.WriteHeader(http.StatusOK)
}

// handleDeleteObject implements DELETE /{key}. Deleting a missing object
// reports success, matching idempotent-delete expectations.
func (s *Server) handleDeleteObject(w http.ResponseWriter, r *http.Request, key string) {
	if err := s.cfg.Store.Delete(key); err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			writeS3Error(w, "InvalidObjectName", "The specified key is not valid.", r.URL.Path, http.StatusBadRequest)
			return
		}
		slog.Error("Delete object", "key", key, "err", err)
		writeS3Error(w, "InternalError", "We encountered an internal error. Please try again.", r.URL.Path, http.StatusInternalServerError)
		return
	}

	slog.Info("Deleted object", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

// handleHeadObject implements HEAD /{key}, returning metadata headers with
// no body. The ETag is derived from the key and size, not the content, so
// it generally differs from the ETag the same object reports on GET.
func (s *Server) handleHeadObject(w http.ResponseWriter, r *http.Request, key string) {
	info, err := s.cfg.Store.Head(key)
	if err != nil {
		s.writeStoreError(w, r, key, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeForKey(key))
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Last-Modified", info.LastModified.UTC().Format(http.TimeFormat))
	w.Header().Set("ETag", createETag(info.ETag))

	w.WriteHeader(http.StatusOK)
}

// writeStoreError translates a store lookup failure into the matching HTTP
// response.
func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, key string, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidKey):
		writeS3Error(w, "InvalidObjectName", "The specified key is not valid.", r.URL.Path, http.StatusBadRequest)
	case errors.Is(err, storage.ErrNotFound):
		writeS3Error(w, "NoSuchKey", "The specified key does not exist.", r.URL.Path, http.StatusNotFound)
	default:
		slog.Error("Object lookup", "key", key, "err", err)
		writeS3Error(w, "InternalError", "We encountered an internal error. Please try again.", r.URL.Path, http.StatusInternalServerError)
	}
}
