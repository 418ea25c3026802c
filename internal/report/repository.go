package report

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finport/finport/internal/metrics"
	"github.com/finport/finport/internal/shared"
)

// Repository abstracts report persistence. The store keeps line items as
// a JSON document so absent fields survive the round trip as absent, not
// as zero.
type Repository interface {
	Get(ctx context.Context, key Key) (Report, error)
	Create(ctx context.Context, r Report) (Report, error)
	// Update persists the record only when the stored version still
	// matches r.Version; shared.ErrConflict signals a lost race.
	Update(ctx context.Context, r Report) (Report, error)
	ListForPeriod(ctx context.Context, year, month int, statuses []Status) ([]Report, error)
	BudgetLineItems(ctx context.Context, key Key) (metrics.LineItemSet, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const reportColumns = `id, company_id, year, month, status, line_items, rejection_reason,
submitted_at, reviewed_at, submitter_id, submitter_name, reviewer_id, reviewer_name,
version, created_at, updated_at`

func scanReport(row pgx.Row) (Report, error) {
	var r Report
	var items []byte
	err := row.Scan(&r.ID, &r.CompanyID, &r.Year, &r.Month, &r.Status, &items, &r.RejectionReason,
		&r.SubmittedAt, &r.ReviewedAt, &r.SubmitterID, &r.SubmitterName, &r.ReviewerID, &r.ReviewerName,
		&r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return Report{}, err
	}
	if len(items) > 0 {
		var li LineItems
		if err := json.Unmarshal(items, &li); err != nil {
			return Report{}, err
		}
		r.LineItems = &li
	}
	return r, nil
}

func marshalItems(li *LineItems) ([]byte, error) {
	if li == nil {
		return nil, nil
	}
	return json.Marshal(li)
}

func (repo *repository) Get(ctx context.Context, key Key) (Report, error) {
	row := repo.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports
WHERE company_id=$1 AND year=$2 AND month=$3`, key.CompanyID, key.Year, key.Month)
	r, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Report{}, ErrNotFound
	}
	return r, err
}

func (repo *repository) Create(ctx context.Context, r Report) (Report, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now()
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1
	items, err := marshalItems(r.LineItems)
	if err != nil {
		return Report{}, err
	}
	_, err = repo.pool.Exec(ctx, `INSERT INTO reports (`+reportColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		r.ID, r.CompanyID, r.Year, r.Month, r.Status, items, r.RejectionReason,
		r.SubmittedAt, r.ReviewedAt, r.SubmitterID, r.SubmitterName, r.ReviewerID, r.ReviewerName,
		r.Version, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return Report{}, mapCreateError(err)
	}
	return r, nil
}

// mapCreateError turns a duplicate-period unique violation into
// shared.ErrConflict; anything else passes through.
func mapCreateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_reports_company_period" {
		return shared.ErrConflict
	}
	return err
}

func (repo *repository) Update(ctx context.Context, r Report) (Report, error) {
	items, err := marshalItems(r.LineItems)
	if err != nil {
		return Report{}, err
	}
	tag, err := repo.pool.Exec(ctx, `UPDATE reports SET status=$1, line_items=$2, rejection_reason=$3,
submitted_at=$4, reviewed_at=$5, submitter_id=$6, submitter_name=$7, reviewer_id=$8, reviewer_name=$9,
version=version+1, updated_at=$10
WHERE id=$11 AND version=$12`,
		r.Status, items, r.RejectionReason,
		r.SubmittedAt, r.ReviewedAt, r.SubmitterID, r.SubmitterName, r.ReviewerID, r.ReviewerName,
		r.UpdatedAt, r.ID, r.Version)
	if err != nil {
		return Report{}, err
	}
	if tag.RowsAffected() == 0 {
		return Report{}, shared.ErrConflict
	}
	r.Version++
	return r, nil
}

func (repo *repository) ListForPeriod(ctx context.Context, year, month int, statuses []Status) ([]Report, error) {
	values := make([]string, 0, len(statuses))
	for _, s := range statuses {
		values = append(values, string(s))
	}
	rows, err := repo.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports
WHERE year=$1 AND month=$2 AND status = ANY($3) ORDER BY company_id`, year, month, values)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var reports []Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// BudgetLineItems loads the pre-loaded budget figures; the budget is
// owned by an upstream planning system and read-only here.
func (repo *repository) BudgetLineItems(ctx context.Context, key Key) (metrics.LineItemSet, error) {
	var items []byte
	err := repo.pool.QueryRow(ctx, `SELECT items FROM budget_line_items
WHERE company_id=$1 AND year=$2 AND month=$3`, key.CompanyID, key.Year, key.Month).Scan(&items)
	if errors.Is(err, pgx.ErrNoRows) {
		return metrics.LineItemSet{}, shared.ErrNotFound
	}
	if err != nil {
		return metrics.LineItemSet{}, err
	}
	var set metrics.LineItemSet
	if err := json.Unmarshal(items, &set); err != nil {
		return metrics.LineItemSet{}, err
	}
	set.CompanyID = key.CompanyID
	set.Year = key.Year
	set.Month = key.Month
	set.Scenario = metrics.ScenarioBudget
	return set, nil
}
