package v1handler

import (
	"phishvault/internal/scanner"
	"phishvault/pkg/domain"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// scanRequest is the body of POST /v1/scans and POST /v1/inspections.
type scanRequest struct {
	URL string
}

func decodeScanRequest(body []byte) (scanRequest, error) {
	var req scanRequest
	d := jx.DecodeBytes(body)
	if d.Next() != jx.Object {
		return req, errors.New("request body must be a JSON object")
	}
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "url":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "decode url")
			}
			req.URL = v

			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return req, errors.Wrap(err, "decode request")
	}
	if req.URL == "" {
		return req, errors.New("url is required")
	}

	return req, nil
}

func encodeStrings(e *jx.Encoder, values []string) {
	e.ArrStart()
	for _, v := range values {
		e.Str(v)
	}
	e.ArrEnd()
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

func encodeResult(e *jx.Encoder, r domain.ScoreResult) {
	e.ObjStart()
	e.FieldStart("score")
	e.Int(r.Score)
	e.FieldStart("verdict")
	e.Str(string(r.Verdict))
	e.FieldStart("notes")
	encodeStrings(e, r.Notes)
	e.FieldStart("details")
	e.Str(r.Details())
	e.ObjEnd()
}

func encodeCookie(e *jx.Encoder, c domain.Cookie) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("value")
	e.Str(c.Value)
	e.FieldStart("domain")
	e.Str(c.Domain)
	if c.Path != "" {
		e.FieldStart("path")
		e.Str(c.Path)
	}
	if c.Expires != 0 {
		e.FieldStart("expires")
		e.Float64(c.Expires)
	}
	e.FieldStart("httpOnly")
	e.Bool(c.HTTPOnly)
	e.FieldStart("secure")
	e.Bool(c.Secure)
	if c.SameSite != "" {
		e.FieldStart("sameSite")
		e.Str(c.SameSite)
	}
	e.ObjEnd()
}

// encodeSignals writes the bundle. The rendered markup can be large and is
// only included when withHTML is set.
func encodeSignals(e *jx.Encoder, b domain.SignalBundle, withHTML bool) {
	b = b.Normalized()

	e.ObjStart()
	e.FieldStart("requestedUrl")
	e.Str(b.RequestedURL)
	e.FieldStart("finalUrl")
	e.Str(b.FinalURL)
	e.FieldStart("redirectChain")
	encodeStrings(e, b.RedirectChain)
	e.FieldStart("consoleLogs")
	encodeStrings(e, b.ConsoleLogs)
	e.FieldStart("cookies")
	e.ArrStart()
	for _, c := range b.Cookies {
		encodeCookie(e, c)
	}
	e.ArrEnd()
	if b.ScreenshotRef != "" {
		e.FieldStart("screenshotRef")
		e.Str(b.ScreenshotRef)
	}
	e.FieldStart("captureErrors")
	encodeStrings(e, b.CaptureErrors)
	e.FieldStart("degraded")
	e.Bool(b.Degraded())
	if withHTML {
		e.FieldStart("renderedHtml")
		e.Str(b.RenderedHTML)
	}
	e.ObjEnd()
}

// encodeScan writes a scan. Signals and result are null until the scan completes.
func encodeScan(e *jx.Encoder, s *domain.Scan, withHTML bool) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID.String())
	e.FieldStart("url")
	e.Str(s.URL)
	e.FieldStart("status")
	e.Str(string(s.Status))
	e.FieldStart("attempts")
	e.UInt(s.Attempts)

	e.FieldStart("result")
	if s.Status == domain.ScanStatusCompleted {
		encodeResult(e, s.Result)
	} else {
		e.Null()
	}
	e.FieldStart("signals")
	if s.Status == domain.ScanStatusCompleted {
		encodeSignals(e, s.Signals, withHTML)
	} else {
		e.Null()
	}
	if s.Fingerprint != "" {
		e.FieldStart("fingerprint")
		e.Str(s.Fingerprint)
	}

	e.FieldStart("createdAt")
	encodeTime(e, s.CreatedAt)
	e.FieldStart("updatedAt")
	if s.UpdatedAt.IsZero() {
		e.Null()
	} else {
		encodeTime(e, s.UpdatedAt)
	}
	e.ObjEnd()
}

func encodeScanList(e *jx.Encoder, scans []domain.Scan, nextCursor string) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for i := range scans {
		encodeScan(e, &scans[i], false)
	}
	e.ArrEnd()
	e.FieldStart("nextCursor")
	if nextCursor == "" {
		e.Null()
	} else {
		e.Str(nextCursor)
	}
	e.ObjEnd()
}

func encodeSummary(e *jx.Encoder, s domain.VerdictSummary) {
	e.ObjStart()
	e.FieldStart("total")
	e.Int64(s.Total)
	e.FieldStart("safe")
	e.Int64(s.Safe)
	e.FieldStart("suspicious")
	e.Int64(s.Suspicious)
	e.FieldStart("malicious")
	e.Int64(s.Malicious)
	e.ObjEnd()
}

func encodeInspection(e *jx.Encoder, in *scanner.Inspection) {
	e.ObjStart()
	e.FieldStart("url")
	e.Str(in.URL)
	e.FieldStart("fingerprint")
	e.Str(in.Fingerprint)
	e.FieldStart("result")
	encodeResult(e, in.Result)
	e.FieldStart("signals")
	encodeSignals(e, in.Signals, true)
	e.ObjEnd()
}

func encodeError(e *jx.Encoder, body ErrorBody) {
	e.ObjStart()
	e.FieldStart("code")
	e.Str(body.Code)
	e.FieldStart("message")
	e.Str(body.Message)
	e.ObjEnd()
}
