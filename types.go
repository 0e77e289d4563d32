package mediagate

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MetaOriginalName is the custom metadata key holding the upload-time file name.
const MetaOriginalName = "originalName"

// HTTPMetadata is the subset of an object's stored HTTP headers that is
// replayed on every response for that object.
type HTTPMetadata struct {
	ContentType        string `json:"content_type,omitempty"`
	ContentLanguage    string `json:"content_language,omitempty"`
	ContentEncoding    string `json:"content_encoding,omitempty"`
	ContentDisposition string `json:"content_disposition,omitempty"`
	CacheControl       string `json:"cache_control,omitempty"`
}

// Write copies the non-empty fields onto h.
func (m HTTPMetadata) Write(h http.Header) {
	set := func(k, v string) {
		if v != "" {
			h.Set(k, v)
		}
	}
	set("Content-Type", m.ContentType)
	set("Content-Language", m.ContentLanguage)
	set("Content-Encoding", m.ContentEncoding)
	set("Content-Disposition", m.ContentDisposition)
	set("Cache-Control", m.CacheControl)
}

// ObjectInfo describes a stored object without its body.
type ObjectInfo struct {
	Key            string
	Size           int64
	ETag           string // strong validator, unquoted
	HTTPMetadata   HTTPMetadata
	CustomMetadata map[string]string
	LastModified   time.Time
}

// OriginalName returns the originalName custom metadata value, if any.
// S3 lower-cases user metadata keys, so the lookup ignores case.
func (o ObjectInfo) OriginalName() string {
	if v, ok := o.CustomMetadata[MetaOriginalName]; ok {
		return v
	}
	for k, v := range o.CustomMetadata {
		if strings.EqualFold(k, MetaOriginalName) {
			return v
		}
	}
	return ""
}

// ServedRange is the byte range a store actually returned.
// End is inclusive and Length == End-Offset+1.
type ServedRange struct {
	Offset int64
	End    int64
	Length int64
}

// Object is an object body with its metadata. Range is nil when the full
// object is being served, including when a requested range was ignored.
// The caller must close Body.
type Object struct {
	ObjectInfo
	Body  io.ReadCloser
	Range *ServedRange
}

// GetOptions tunes a store read.
type GetOptions struct {
	// Range is the raw RFC 7233 Range header value; empty reads everything.
	Range string
}

// ObjectStore is a read-only, key-addressed object store with byte-range reads.
// Implementations must be safe for concurrent use.
type ObjectStore interface {
	// Head returns metadata only. ErrNotFound if the key does not exist.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// Get opens the object for streaming. When opts.Range is set the store
	// either honours it (Object.Range != nil), ignores it (full object), or
	// fails with ErrRangeNotSatisfiable. ErrNotFound if the key does not exist.
	Get(ctx context.Context, key string, opts GetOptions) (*Object, error)
}

// MetaData is a metadata sidecar row describing a file in the filesystem store.
type MetaData struct {
	ID            uuid.UUID `json:"id" yaml:"id"`
	Path          string    `json:"path" yaml:"path"`
	ContentType   string    `json:"content_type" yaml:"content_type"`
	Etag          string    `json:"etag" yaml:"etag"`
	FileSizeBytes int64     `json:"file_size_bytes" yaml:"file_size_bytes"`
	OriginalName  string    `json:"original_name,omitempty" yaml:"original_name,omitempty"`
	CreatedAt     time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" yaml:"updated_at"`
}

// ObjectEntry is what a storage scan learns about a file.
type ObjectEntry struct {
	Path        string
	Size        int64
	ETag        string
	ContentType string
}

// MetaDataRepo persists metadata sidecar rows.
//
// Implementations must handle concurrent access safely.
type MetaDataRepo interface {
	// Get returns the row for path, or ErrNotFound.
	Get(ctx context.Context, path string) (MetaData, error)

	// Upsert creates or refreshes the row for entry.Path. OriginalName of an
	// existing row is preserved. The bool reports whether a row was created.
	Upsert(ctx context.Context, entry ObjectEntry) (MetaData, bool, error)

	// SetOriginalName sets the download name for path, or returns ErrNotFound.
	SetOriginalName(ctx context.Context, path, name string) error
}
