package v1handler

import (
	"context"
	"errors"
	"net/http"
	"phishvault/internal/scanner"
	"phishvault/pkg/logger"
	"phishvault/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

// Deps groups the services the v1 handlers call into.
type Deps struct {
	Scanner scanner.Scanner
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Register mounts every v1 route on mux behind sec.
func (h *Handler) Register(mux *http.ServeMux, sec *SecHandler) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, sec.Middleware(fn))
	}

	route("POST /v1/scans", h.CreateScan)
	route("GET /v1/scans", h.ListScans)
	route("GET /v1/scans/latest", h.LatestScan)
	route("GET /v1/scans/{id}", h.GetScan)
	route("DELETE /v1/scans/{id}", h.DeleteScan)
	route("GET /v1/summary", h.Summary)
	route("POST /v1/inspections", h.CreateInspection)
}

// ErrorBody is the JSON body of every error response.
type ErrorBody struct {
	Code    string
	Message string
}

// ErrorResponse pairs an error body with its status code.
type ErrorResponse struct {
	StatusCode int
	Response   ErrorBody
}

var defaultMessages = map[serrors.Kind]string{
	serrors.ErrNotFound:     "resource not found",
	serrors.ErrUnauthorized: "unauthorized",
	serrors.ErrForbidden:    "forbidden",
	serrors.ErrBadRequest:   "bad request",
	serrors.ErrConflict:     "conflict",
	serrors.ErrTimeout:      "request timed out",
	serrors.ErrUnavailable:  "service unavailable",
	serrors.ErrRateLimited:  "too many requests",
	serrors.ErrInternal:     "internal error",
}

// NewError maps err to a response. Messages of internal errors never leave
// the server.
func (h Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	kind := serrors.KindOf(err)
	res := &ErrorResponse{
		StatusCode: serrors.HTTPStatus(err),
		Response: ErrorBody{
			Code:    kind.Error(),
			Message: defaultMessages[kind],
		},
	}

	var serr *serrors.Error
	if kind != serrors.ErrInternal && errors.As(err, &serr) && serr.Message() != "" {
		res.Response.Message = serr.Message()
	}

	if res.StatusCode >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err))
	} else {
		logger.Debug(ctx, "request rejected", zap.Error(err))
	}

	return res
}

func (h Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)

	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	encodeError(e, res.Response)
	writeJSON(w, res.StatusCode, e.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respond encodes the value written by fn and sends it with status.
func respond(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)
	writeJSON(w, status, e.Bytes())
}
