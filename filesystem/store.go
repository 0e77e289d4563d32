// Package filesystem provides a read-only file system backend for mediagate.
// Objects are regular files below a sandboxed root. Content type, etag and
// original name come from an optional metadata repository populated by
// `mediagate index`; without a row the store falls back to extension based
// content types and a size/mtime etag.
package filesystem

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/invoicekit/mediagate"
)

// Store serves objects from a directory tree.
type Store struct {
	root *os.Root
	meta mediagate.MetaDataRepo
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
// meta may be nil, in which case object metadata is derived from the files.
func NewFileStorage(root *os.Root, meta mediagate.MetaDataRepo) *Store {
	return &Store{root: root, meta: meta}
}

// MetaData returns the metadata repository backing the store, or nil.
func (s *Store) MetaData() mediagate.MetaDataRepo {
	return s.meta
}

// Head returns the metadata of the file at key. Returns mediagate.ErrNotFound
// if the file does not exist, is a directory, or key does not name a file
// below the root (".." segments, absolute paths, symlinks leading out).
func (s *Store) Head(ctx context.Context, key string) (mediagate.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return mediagate.ObjectInfo{}, err
	}
	if !mediagate.IsValidKey(key) {
		return mediagate.ObjectInfo{}, mediagate.ErrNotFound
	}

	st, err := s.root.Stat(key)
	if err != nil {
		return mediagate.ObjectInfo{}, mapNotExist(err, "stat file")
	}
	if !st.Mode().IsRegular() {
		return mediagate.ObjectInfo{}, mediagate.ErrNotFound
	}

	return s.describe(ctx, key, st)
}

// Get opens the file at key for reading. When opts.Range holds a satisfiable
// single byte range only that slice is returned and Object.Range is set.
// A range starting past the end of the file yields a *mediagate.RangeError.
func (s *Store) Get(ctx context.Context, key string, opts mediagate.GetOptions) (*mediagate.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !mediagate.IsValidKey(key) {
		return nil, mediagate.ErrNotFound
	}

	f, err := s.root.Open(key)
	if err != nil {
		return nil, mapNotExist(err, "open file")
	}

	success := false
	defer func() {
		if !success {
			if closeErr := f.Close(); closeErr != nil {
				slog.Warn("failed to close file", "key", key, "err", closeErr)
			}
		}
	}()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !st.Mode().IsRegular() {
		return nil, mediagate.ErrNotFound
	}

	info, err := s.describe(ctx, key, st)
	if err != nil {
		return nil, err
	}

	r, ok, err := mediagate.ParseByteRange(opts.Range, st.Size())
	if err != nil {
		return nil, err
	}

	obj := &mediagate.Object{ObjectInfo: info}
	var body io.Reader = f
	if ok {
		if _, err := f.Seek(r.Offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek file: %w", err)
		}
		body = io.LimitReader(f, r.Length)
		obj.Range = &r
	}

	obj.Body = &fileBody{Reader: &ctxReader{ctx: ctx, r: body}, f: f}
	success = true

	return obj, nil
}

// describe merges file attributes with the metadata row for key, if any.
func (s *Store) describe(ctx context.Context, key string, st fs.FileInfo) (mediagate.ObjectInfo, error) {
	info := mediagate.ObjectInfo{
		Key:          key,
		Size:         st.Size(),
		ETag:         statETag(st),
		LastModified: st.ModTime().UTC(),
		HTTPMetadata: mediagate.HTTPMetadata{
			ContentType: detectContentType(key),
		},
	}

	if s.meta == nil {
		return info, nil
	}

	md, err := s.meta.Get(ctx, key)
	if errors.Is(err, mediagate.ErrNotFound) {
		return info, nil
	}
	if err != nil {
		return mediagate.ObjectInfo{}, fmt.Errorf("lookup metadata: %w", err)
	}

	if md.OriginalName != "" {
		info.CustomMetadata = map[string]string{mediagate.MetaOriginalName: md.OriginalName}
	}

	// The etag of a row indexed before the file was replaced would lie.
	if md.FileSizeBytes != st.Size() {
		slog.Debug("stale metadata row", "key", key, "row_size", md.FileSizeBytes, "file_size", st.Size())
		return info, nil
	}

	if md.Etag != "" {
		info.ETag = md.Etag
	}
	if md.ContentType != "" {
		info.HTTPMetadata.ContentType = md.ContentType
	}

	return info, nil
}

// List recursively walks the root directory and returns all files with their
// metadata including path, size, SHA256-based etag, and detected content type.
// Paths use forward slashes so they match object keys.
func (s *Store) List(ctx context.Context) ([]mediagate.ObjectEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entries []mediagate.ObjectEntry

	err := s.walkDir(ctx, ".", &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return entries, nil
}

func (s *Store) walkDir(ctx context.Context, dir string, entries *[]mediagate.ObjectEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dirEntries, err := fs.ReadDir(s.root.FS(), dir)
	if err != nil {
		return err
	}

	for _, entry := range dirEntries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := path.Join(dir, entry.Name())

		if entry.IsDir() {
			if err := s.walkDir(ctx, entryPath, entries); err != nil {
				return err
			}
			continue
		}
		if !entry.Type().IsRegular() {
			continue
		}
		if !mediagate.IsValidKey(entryPath) {
			slog.Warn("skipping file with unservable name", "path", entryPath)
			continue
		}

		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		etag, err := s.hashFile(entryPath)
		if err != nil {
			return fmt.Errorf("walk dir: %w", err)
		}

		*entries = append(*entries, mediagate.ObjectEntry{
			Path:        entryPath,
			Size:        info.Size(),
			ETag:        etag,
			ContentType: detectContentType(entryPath),
		})
	}

	return nil
}

func (s *Store) hashFile(name string) (string, error) {
	f, err := s.root.Open(name)
	if err != nil {
		return "", err
	}

	h := sha256.New()
	_, copyErr := io.Copy(h, f)

	if closeErr := f.Close(); closeErr != nil {
		slog.Warn("failed to close file", "path", name, "err", closeErr)
	}

	if copyErr != nil {
		return "", copyErr
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

type fileBody struct {
	io.Reader
	f *os.File
}

func (b *fileBody) Close() error {
	return b.f.Close()
}

// errPathEscapes is the message os.Root uses when a path, possibly through
// a symlink, resolves outside the root. The error value is not exported.
const errPathEscapes = "path escapes from parent"

func mapNotExist(err error, op string) error {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return mediagate.ErrNotFound
	}
	if strings.Contains(err.Error(), errPathEscapes) {
		return mediagate.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// statETag derives a validator from size and modification time.
func statETag(st fs.FileInfo) string {
	return strconv.FormatInt(st.Size(), 16) + "-" + strconv.FormatInt(st.ModTime().UnixNano(), 16)
}

func detectContentType(name string) string {
	ext := filepath.Ext(name)
	contentType := mime.TypeByExtension(ext)

	if contentType == "" {
		return "application/octet-stream"
	}

	return contentType
}
