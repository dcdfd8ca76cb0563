package v1handler

import (
	"io"
	"net/http"
	"phishvault/internal/scanner"
	"phishvault/pkg/domain"
	"phishvault/pkg/serrors"
	"strconv"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

func (h Handler) readScanRequest(w http.ResponseWriter, r *http.Request) (scanRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return scanRequest{}, serrors.Wrap(serrors.ErrBadRequest, err, "could not read request body")
	}

	req, err := decodeScanRequest(body)
	if err != nil {
		return scanRequest{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body")
	}

	return req, nil
}

func scanIDParam(r *http.Request) (domain.ScanID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return domain.ScanID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid scan id")
	}

	return domain.ScanID(id), nil
}

// timeParam parses an optional RFC3339 query parameter.
func timeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid %s", name)
	}

	return t, nil
}

// CreateScan schedules a new scan of the URL in the request body.
func (h Handler) CreateScan(w http.ResponseWriter, r *http.Request) {
	req, err := h.readScanRequest(w, r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	s, err := h.deps.Scanner.Enqueue(r.Context(), GetUserIDFromContext(r.Context()), req.URL)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	w.Header().Set("Location", "/v1/scans/"+s.ID.String())
	respond(w, http.StatusAccepted, func(e *jx.Encoder) { encodeScan(e, s, false) })
}

// DeleteScan deletes a scan by ID.
func (h Handler) DeleteScan(w http.ResponseWriter, r *http.Request) {
	id, err := scanIDParam(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	if err := h.deps.Scanner.Delete(r.Context(), GetUserIDFromContext(r.Context()), id); err != nil {
		h.writeError(w, r, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetScan returns details of a scan by ID, including the rendered markup.
func (h Handler) GetScan(w http.ResponseWriter, r *http.Request) {
	id, err := scanIDParam(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	s, err := h.deps.Scanner.Result(r.Context(), GetUserIDFromContext(r.Context()), id)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	respond(w, http.StatusOK, func(e *jx.Encoder) { encodeScan(e, s, true) })
}

// LatestScan returns the most recent completed scan of the url query parameter.
func (h Handler) LatestScan(w http.ResponseWriter, r *http.Request) {
	URL := r.URL.Query().Get("url")
	if URL == "" {
		h.writeError(w, r, serrors.With(serrors.ErrBadRequest, "url is required"))

		return
	}

	s, err := h.deps.Scanner.LatestByURL(r.Context(), GetUserIDFromContext(r.Context()), URL)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	respond(w, http.StatusOK, func(e *jx.Encoder) { encodeScan(e, s, false) })
}

// ListScans returns a paginated list of scans.
func (h Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var limit uint64
	if v := q.Get("limit"); v != "" {
		l, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "invalid limit"))

			return
		}
		limit = l
	}

	from, err := timeParam(r, "from")
	if err != nil {
		h.writeError(w, r, err)

		return
	}
	to, err := timeParam(r, "to")
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	status := domain.ScanStatus(q.Get("status"))
	switch status {
	case "", domain.ScanStatusPending, domain.ScanStatusCompleted, domain.ScanStatusFailed:
	default:
		h.writeError(w, r, serrors.With(serrors.ErrBadRequest, "invalid status %q", status))

		return
	}

	scans, nextCursor, err := h.deps.Scanner.UserScans(r.Context(),
		GetUserIDFromContext(r.Context()),
		scanner.Filter{
			Status:  status,
			Verdict: domain.Verdict(q.Get("verdict")),
			From:    from,
			To:      to,
		},
		q.Get("cursor"),
		uint(limit))
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	respond(w, http.StatusOK, func(e *jx.Encoder) { encodeScanList(e, scans, nextCursor) })
}

// Summary returns the user's completed scan counts per verdict.
func (h Handler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := timeParam(r, "from")
	if err != nil {
		h.writeError(w, r, err)

		return
	}
	to, err := timeParam(r, "to")
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	summary, err := h.deps.Scanner.Summary(r.Context(), GetUserIDFromContext(r.Context()), from, to)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	respond(w, http.StatusOK, func(e *jx.Encoder) { encodeSummary(e, summary) })
}

// CreateInspection captures and scores a URL synchronously without storing it.
func (h Handler) CreateInspection(w http.ResponseWriter, r *http.Request) {
	req, err := h.readScanRequest(w, r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	in, err := h.deps.Scanner.Inspect(r.Context(), req.URL)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	respond(w, http.StatusOK, func(e *jx.Encoder) { encodeInspection(e, in) })
}
