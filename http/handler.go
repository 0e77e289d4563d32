package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/invoicekit/mediagate"
)

// DefaultCacheControl is sent with every object response.
const DefaultCacheControl = "private, max-age=3600"

type Service interface {
	Head(ctx context.Context, req mediagate.ViewRequest) (mediagate.ObjectInfo, error)
	Get(ctx context.Context, req mediagate.ViewRequest, rangeHeader string) (*mediagate.Object, error)
}

type HandlerConfig struct {
	CacheControl string
	CORS         CORSConfig
}

// Handler serves media objects over HTTP.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
// Zero values in config fall back to the defaults.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	cfg := *config
	if cfg.CacheControl == "" {
		cfg.CacheControl = DefaultCacheControl
	}
	cfg.CORS = cfg.CORS.withDefaults()

	return &Handler{
		config:  cfg,
		service: service,
	}
}

// Router returns an http.Handler serving GET and HEAD on every path.
// OPTIONS is answered by the CORS policy; any other method gets 405.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(CORSPolicy(h.config.CORS))
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/*", h.handleGet)
	r.Head("/*", h.handleHead)
	r.MethodNotAllowed(h.handleMethodNotAllowed)

	return r
}

func (h *Handler) handleHead(w http.ResponseWriter, r *http.Request) {
	req, err := mediagate.ParseViewPath(r.URL.EscapedPath())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	info, err := h.service.Head(r.Context(), req)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	header := w.Header()
	h.writeObjectHeaders(header, info)
	header.Set("Content-Length", strconv.FormatInt(info.Size, 10))

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	req, err := mediagate.ParseViewPath(r.URL.EscapedPath())
	if err != nil {
		HandleError(w, r, err)
		return
	}

	obj, err := h.service.Get(r.Context(), req, r.Header.Get("Range"))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	defer func() { _ = obj.Body.Close() }()

	header := w.Header()
	h.writeObjectHeaders(header, obj.ObjectInfo)

	status := http.StatusOK
	if obj.Range != nil {
		header.Set("Content-Range", mediagate.FormatContentRange(*obj.Range, obj.Size))
		header.Set("Content-Length", strconv.FormatInt(obj.Range.Length, 10))
		status = http.StatusPartialContent
	} else {
		header.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}

	w.WriteHeader(status)

	if n, err := io.Copy(w, obj.Body); err != nil {
		// Headers are gone; all that is left is to stop streaming.
		slog.Debug("stream aborted", "key", req.Key, "written", n, "err", err)
	}
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", "GET, HEAD, OPTIONS")
	WriteError(w, r, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func (h *Handler) writeObjectHeaders(header http.Header, info mediagate.ObjectInfo) {
	info.HTTPMetadata.Write(header)

	if info.ETag != "" {
		header.Set("ETag", quoteETag(info.ETag))
	}
	header.Set("Accept-Ranges", "bytes")
	header.Set("Cache-Control", h.config.CacheControl)

	if name := info.OriginalName(); name != "" {
		header.Set("Content-Disposition", inlineDisposition(name))
	}
}

func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return `"` + etag + `"`
}

// inlineDisposition renders both the legacy quoted filename and the RFC 5987
// filename* form so that UTF-8 names survive in modern clients.
func inlineDisposition(name string) string {
	legacy := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "").Replace(name)
	encoded := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return `inline; filename="` + legacy + `"; filename*=UTF-8''` + encoded
}

func isClientGone(err error) bool {
	return errors.Is(err, context.Canceled)
}
