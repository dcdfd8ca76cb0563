package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"phishvault/pkg/domain"
	"time"

	"github.com/google/uuid"
)

type PgScan struct {
	ID     uuid.UUID `db:"id"      goqu:"skipinsert"`
	UserID uuid.UUID `db:"user_id"`

	URL         string          `db:"url"`
	Status      string          `db:"status"`
	Verdict     sql.NullString  `db:"verdict"`
	Score       int             `db:"score"`
	Fingerprint sql.NullString  `db:"fingerprint"`
	Signals     json.RawMessage `db:"signals"`
	Result      json.RawMessage `db:"result"`

	Attempts  uint           `db:"attempts"   goqu:"skipinsert"`
	LastError sql.NullString `db:"last_error" goqu:"skipinsert"`

	CreatedAt time.Time    `db:"created_at" goqu:"skipinsert"`
	UpdatedAt sql.NullTime `db:"updated_at" goqu:"skipinsert"`
	DeletedAt sql.NullTime `db:"deleted_at" goqu:"skipinsert"`
}

func (p *PgScan) ToDomain() (*domain.Scan, error) {
	var signals domain.SignalBundle
	if len(p.Signals) > 0 {
		if err := json.Unmarshal(p.Signals, &signals); err != nil {
			return nil, fmt.Errorf("could not unmarshal scan signals: %w", err)
		}
	}

	var result domain.ScoreResult
	if len(p.Result) > 0 {
		if err := json.Unmarshal(p.Result, &result); err != nil {
			return nil, fmt.Errorf("could not unmarshal scan result: %w", err)
		}
	}
	if result.Notes == nil {
		result.Notes = []string{}
	}

	return &domain.Scan{
		ID:          domain.ScanID(p.ID),
		UserID:      domain.UserID(p.UserID),
		URL:         p.URL,
		Status:      domain.ScanStatus(p.Status),
		Signals:     signals.Normalized(),
		Result:      result,
		Fingerprint: p.Fingerprint.String,
		Attempts:    p.Attempts,
		LastError:   p.LastError.String,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt.Time,
		DeletedAt:   p.DeletedAt.Time,
	}, nil
}

func (p *PgScan) FromDomain(scan domain.Scan) error {
	signals, err := json.Marshal(scan.Signals.Normalized())
	if err != nil {
		return fmt.Errorf("could not marshal scan signals: %w", err)
	}

	result, err := json.Marshal(scan.Result)
	if err != nil {
		return fmt.Errorf("could not marshal scan result: %w", err)
	}

	*p = PgScan{
		ID:      uuid.UUID(scan.ID),
		UserID:  uuid.UUID(scan.UserID),
		URL:     scan.URL,
		Status:  string(scan.Status),
		Verdict: nullString(string(scan.Result.Verdict)),
		Score:   scan.Result.Score,
		Fingerprint: sql.NullString{
			String: scan.Fingerprint,
			Valid:  scan.Fingerprint != "",
		},
		Signals:   signals,
		Result:    result,
		Attempts:  scan.Attempts,
		LastError: nullString(scan.LastError),
		CreatedAt: scan.CreatedAt,
		UpdatedAt: sql.NullTime{
			Time:  scan.UpdatedAt,
			Valid: !scan.UpdatedAt.IsZero(),
		},
		DeletedAt: sql.NullTime{
			Time:  scan.DeletedAt,
			Valid: !scan.DeletedAt.IsZero(),
		},
	}

	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func domainScansToPg(scans []domain.Scan) ([]PgScan, error) {
	out := make([]PgScan, len(scans))
	for i := range out {
		if err := out[i].FromDomain(scans[i]); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func pgScansToDomain(scans []PgScan) ([]domain.Scan, error) {
	out := make([]domain.Scan, 0, len(scans))
	for _, scan := range scans {
		d, err := scan.ToDomain()
		if err != nil {
			return nil, err
		}

		out = append(out, *d)
	}

	return out, nil
}

// verdictCount is one row of the per-verdict summary query.
type verdictCount struct {
	Verdict sql.NullString `db:"verdict"`
	Count   int64          `db:"count"`
}
