package masterdata

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finport/finport/internal/shared"
)

// ListFilters narrows company listings.
type ListFilters struct {
	Search    string
	ClusterID int64
	Page      int
	Limit     int
}

// Repository provides tree lookups and company maintenance.
type Repository interface {
	Tree(ctx context.Context) (Tree, error)
	ListCompanies(ctx context.Context, filters ListFilters) ([]Company, int, error)
	GetCompany(ctx context.Context, id int64) (Company, error)
	CreateCompany(ctx context.Context, c Company) (Company, error)
	UpdateCompany(ctx context.Context, c Company) error
	ListClusters(ctx context.Context) ([]Cluster, error)
	GetCluster(ctx context.Context, id int64) (Cluster, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const companyColumns = `id, code, name, cluster_id, fiscal_year_start, created_at, updated_at`

func scanCompany(row pgx.Row) (Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.ClusterID, &c.FiscalYearStart, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// Tree loads the full hierarchy in one round trip per level; the tree is
// small enough to snapshot whole.
func (r *repository) Tree(ctx context.Context) (Tree, error) {
	clusters, err := r.ListClusters(ctx)
	if err != nil {
		return Tree{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY cluster_id, name`)
	if err != nil {
		return Tree{}, err
	}
	defer rows.Close()
	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return Tree{}, err
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return Tree{}, err
	}
	return Tree{Clusters: clusters, Companies: companies}, nil
}

func (r *repository) ListCompanies(ctx context.Context, filters ListFilters) ([]Company, int, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM companies WHERE 1=1`
	args := []interface{}{}
	countArgs := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		clause := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}
	if filters.ClusterID > 0 {
		argCount++
		clause := ` AND cluster_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filters.ClusterID)
		countArgs = append(countArgs, filters.ClusterID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var companies []Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	return companies, total, rows.Err()
}

func (r *repository) GetCompany(ctx context.Context, id int64) (Company, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Company{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) CreateCompany(ctx context.Context, c Company) (Company, error) {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	err := r.pool.QueryRow(ctx, `INSERT INTO companies (code, name, cluster_id, fiscal_year_start, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING id`,
		c.Code, c.Name, c.ClusterID, c.FiscalYearStart, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return Company{}, err
	}
	return c, nil
}

func (r *repository) UpdateCompany(ctx context.Context, c Company) error {
	tag, err := r.pool.Exec(ctx, `UPDATE companies SET code=$1, name=$2, cluster_id=$3, fiscal_year_start=$4, updated_at=$5
WHERE id=$6`, c.Code, c.Name, c.ClusterID, c.FiscalYearStart, time.Now(), c.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) ListClusters(ctx context.Context) ([]Cluster, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, created_at, updated_at FROM clusters ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var clusters []Cluster
	for rows.Next() {
		var cl Cluster
		if err := rows.Scan(&cl.ID, &cl.Code, &cl.Name, &cl.CreatedAt, &cl.UpdatedAt); err != nil {
			return nil, err
		}
		clusters = append(clusters, cl)
	}
	return clusters, rows.Err()
}

func (r *repository) GetCluster(ctx context.Context, id int64) (Cluster, error) {
	var cl Cluster
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, created_at, updated_at FROM clusters WHERE id=$1`, id).
		Scan(&cl.ID, &cl.Code, &cl.Name, &cl.CreatedAt, &cl.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cluster{}, shared.ErrNotFound
	}
	return cl, err
}
