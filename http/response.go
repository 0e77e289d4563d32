package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/invoicekit/mediagate"
)

// Fixed bodies for client errors. Only store failures echo an error message.
const (
	msgBadPath           = "Invalid URL format. Expected /view/{token}/{key}"
	msgUnauthorized      = "Unauthorized: Invalid or expired token"
	msgNotFound          = "Object Not Found"
	msgMethodNotAllowed  = "Method Not Allowed"
	msgRangeNotSatisfied = "Range Not Satisfiable"
)

// WriteError writes a plain text error response.
func WriteError(w http.ResponseWriter, r *http.Request, code int, message string) {
	render.Status(r, code)
	render.PlainText(w, r, message)
}

// HandleError writes the response matching err. Authorization failures are
// collapsed into one message; the reason is only logged at debug level.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, mediagate.ErrInvalidInput):
		slog.Debug("bad request path", "err", err)
		WriteError(w, r, http.StatusBadRequest, msgBadPath)

	case errors.Is(err, mediagate.ErrUnauthorized):
		slog.Debug("token rejected", "err", err)
		WriteError(w, r, http.StatusUnauthorized, msgUnauthorized)

	case errors.Is(err, mediagate.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, msgNotFound)

	case errors.Is(err, mediagate.ErrRangeNotSatisfiable):
		var rangeErr *mediagate.RangeError
		if errors.As(err, &rangeErr) && rangeErr.Size >= 0 {
			w.Header().Set("Content-Range", mediagate.FormatUnsatisfiedRange(rangeErr.Size))
		}
		WriteError(w, r, http.StatusRequestedRangeNotSatisfiable, msgRangeNotSatisfied)

	case isClientGone(err):
		slog.Debug("client went away", "err", err)

	default:
		slog.Error("request error", "error", err)
		WriteError(w, r, http.StatusInternalServerError, err.Error())
	}
}
