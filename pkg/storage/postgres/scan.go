package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"phishvault/pkg/domain"
	"phishvault/pkg/storage"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
)

const (
	scansTable = "scans"
)

func (p *PgSQL) StoreScans(ctx context.Context, scans ...domain.Scan) ([]domain.Scan, error) {
	if len(scans) == 0 {
		return nil, nil
	}

	pgScans, err := domainScansToPg(scans)
	if err != nil {
		return nil, err
	}

	var result []PgScan
	if err := p.Builder.Insert(scansTable).
		Rows(pgScans).
		Returning(&PgScan{}).
		Executor().ScanStructsContext(ctx, &result); err != nil {
		return nil, fmt.Errorf("could not store scans into pg: %w", err)
	}

	return pgScansToDomain(result)
}

// PendingScan looks a scan up by id regardless of owner; nil when it is
// deleted or no longer pending.
func (p *PgSQL) PendingScan(ctx context.Context, id domain.ScanID) (*domain.Scan, error) {
	var row PgScan
	found, err := p.Builder.From(scansTable).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("status").Eq(string(domain.ScanStatusPending)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch pending scan: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// UpdatePendingScan applies the non-nil fields of updates to a pending scan,
// bumping attempts and updated_at. A nil scan means it left PENDING meanwhile.
func (p *PgSQL) UpdatePendingScan(ctx context.Context,
	id domain.ScanID,
	updates storage.ScanUpdates) (*domain.Scan, error) {
	rec := goqu.Record{
		"updated_at": goqu.L("CURRENT_TIMESTAMP"),
		"attempts":   goqu.L("attempts + 1"),
		"status":     string(updates.Status),
	}
	if updates.Status == domain.ScanStatusFailed && updates.MaxAttempts > 0 {
		// stay pending until the last attempt
		rec["status"] = goqu.Case().
			When(goqu.L("attempts + 1 >= ?", updates.MaxAttempts), string(domain.ScanStatusFailed)).
			Else(string(domain.ScanStatusPending))
	}
	if updates.Signals != nil {
		b, err := json.Marshal(updates.Signals.Normalized())
		if err != nil {
			return nil, fmt.Errorf("could not marshal signals: %w", err)
		}

		rec["signals"] = b
	}
	if updates.Result != nil {
		b, err := json.Marshal(updates.Result)
		if err != nil {
			return nil, fmt.Errorf("could not marshal result: %w", err)
		}

		rec["result"] = b
		rec["score"] = updates.Result.Score
		rec["verdict"] = nullString(string(updates.Result.Verdict))
	}
	if updates.Fingerprint != nil {
		rec["fingerprint"] = nullString(*updates.Fingerprint)
	}
	if updates.LastError != nil {
		if *updates.LastError == "" {
			// set to NULL when empty string provided
			rec["last_error"] = goqu.L("NULL")
		} else {
			rec["last_error"] = *updates.LastError
		}
	}

	var row PgScan
	found, err := p.Builder.Update(scansTable).
		Set(rec).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("status").Eq(string(domain.ScanStatusPending)),
		goqu.I("deleted_at").IsNull(),
	).Returning(&PgScan{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not update pending scan in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// DeleteScan stamps deleted_at on the user's scan and returns it as it was
// deleted. Queued jobs for it find nothing to process afterwards.
func (p *PgSQL) DeleteScan(ctx context.Context, userID domain.UserID, id domain.ScanID) (*domain.Scan, error) {
	var row PgScan
	found, err := p.Builder.Update(scansTable).
		Set(goqu.Record{
			"deleted_at": goqu.L("CURRENT_TIMESTAMP"),
		}).Where(
		goqu.I("id").Eq(uuid.UUID(id)),
		goqu.I("user_id").Eq(uuid.UUID(userID)),
		goqu.I("deleted_at").IsNull(),
	).Returning(&PgScan{}).Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not delete scan in pg: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

func userScope(userID domain.UserID, from, to time.Time) []exp.Expression {
	w := []exp.Expression{
		goqu.I("user_id").Eq(uuid.UUID(userID)),
		goqu.I("deleted_at").IsNull(),
	}
	if !from.IsZero() {
		w = append(w, goqu.I("created_at").Gte(from))
	}
	if !to.IsZero() {
		w = append(w, goqu.I("created_at").Lte(to))
	}

	return w
}

// UserScans pages through the user's scans newest first. The next cursor is
// the created_at of the last row when more rows follow.
func (p *PgSQL) UserScans(ctx context.Context,
	userID domain.UserID,
	filter storage.ScanFilter) (storage.UserScans, error) {
	w := userScope(userID, filter.From, filter.To)
	if filter.Status != "" {
		w = append(w, goqu.I("status").Eq(string(filter.Status)))
	}
	if filter.Verdict != "" {
		w = append(w,
			goqu.I("status").Eq(string(domain.ScanStatusCompleted)),
			goqu.I("verdict").Eq(string(filter.Verdict)))
	}
	if !filter.Cursor.IsZero() {
		w = append(w, goqu.I("created_at").Lt(filter.Cursor))
	}

	// fetch one extra to determine if there is a next page
	fetch := filter.Limit + 1
	ds := p.Builder.From(scansTable).
		Where(w...).
		Order(goqu.I("created_at").Desc(), goqu.I("id").Desc()).
		Limit(fetch)

	var rows []PgScan
	if err := ds.Executor().ScanStructsContext(ctx, &rows); err != nil {
		return storage.UserScans{}, fmt.Errorf("could not fetch user scans from pg: %w", err)
	}

	// if we fetched more than the limit, there is a next page
	var nextCursor *time.Time
	if uint(len(rows)) > filter.Limit {
		trimmed := rows[:filter.Limit]
		if len(trimmed) > 0 {
			nextCursor = &trimmed[len(trimmed)-1].CreatedAt
		}
		rows = trimmed
	}

	domainRows, err := pgScansToDomain(rows)
	if err != nil {
		return storage.UserScans{}, err
	}

	return storage.UserScans{
		Scans:      domainRows,
		NextCursor: nextCursor,
	}, nil
}

// ScanByID returns the user's scan, or nil when it is missing or deleted.
func (p *PgSQL) ScanByID(ctx context.Context, userID domain.UserID, id domain.ScanID) (*domain.Scan, error) {
	var row PgScan
	found, err := p.Builder.From(scansTable).
		Where(
			goqu.I("id").Eq(uuid.UUID(id)),
			goqu.I("user_id").Eq(uuid.UUID(userID)),
			goqu.I("deleted_at").IsNull(),
		).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch scan by id: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// LastCompletedScanByURL returns the newest completed scan of URL owned by the user.
func (p *PgSQL) LastCompletedScanByURL(ctx context.Context, userID domain.UserID, URL string) (*domain.Scan, error) {
	var row PgScan
	found, err := p.Builder.From(scansTable).
		Where(append(userScope(userID, time.Time{}, time.Time{}),
			goqu.I("url").Eq(URL),
			goqu.I("status").Eq(string(domain.ScanStatusCompleted)),
		)...).
		Order(goqu.I("updated_at").Desc(), goqu.I("id").Desc()).
		Limit(1).
		Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return nil, fmt.Errorf("could not fetch last completed scan by url: %w", err)
	}
	if !found {
		return nil, nil
	}

	return row.ToDomain()
}

// VerdictSummary counts completed scans of the user grouped by verdict.
func (p *PgSQL) VerdictSummary(ctx context.Context,
	userID domain.UserID,
	from, to time.Time) (domain.VerdictSummary, error) {
	var rows []verdictCount
	err := p.Builder.From(scansTable).
		Select(goqu.I("verdict"), goqu.COUNT(goqu.Star()).As("count")).
		Where(append(userScope(userID, from, to),
			goqu.I("status").Eq(string(domain.ScanStatusCompleted)),
		)...).
		GroupBy(goqu.I("verdict")).
		Executor().ScanStructsContext(ctx, &rows)
	if err != nil {
		return domain.VerdictSummary{}, fmt.Errorf("could not summarize verdicts: %w", err)
	}

	var summary domain.VerdictSummary
	for _, row := range rows {
		summary.Total += row.Count
		switch domain.Verdict(row.Verdict.String) {
		case domain.VerdictSafe:
			summary.Safe += row.Count
		case domain.VerdictSuspicious:
			summary.Suspicious += row.Count
		case domain.VerdictMalicious:
			summary.Malicious += row.Count
		}
	}

	return summary, nil
}
