package masterdata

import (
	"context"

	"github.com/finport/finport/internal/shared"
)

// Service is a thin layer over the repository; validation lives here so
// handlers and jobs share it.
type Service struct {
	repo Repository
}

// NewService constructs the service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Tree(ctx context.Context) (Tree, error) {
	return s.repo.Tree(ctx)
}

func (s *Service) ListCompanies(ctx context.Context, filters ListFilters) ([]Company, shared.Pagination, error) {
	if filters.Limit <= 0 || filters.Limit > 200 {
		filters.Limit = 50
	}
	if filters.Page <= 0 {
		filters.Page = 1
	}
	companies, total, err := s.repo.ListCompanies(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return companies, shared.NewPagination(filters.Page, filters.Limit, total), nil
}

func (s *Service) GetCompany(ctx context.Context, id int64) (Company, error) {
	return s.repo.GetCompany(ctx, id)
}

func (s *Service) CreateCompany(ctx context.Context, c Company) (Company, error) {
	if err := c.Validate(); err != nil {
		return Company{}, err
	}
	if _, err := s.repo.GetCluster(ctx, c.ClusterID); err != nil {
		return Company{}, err
	}
	return s.repo.CreateCompany(ctx, c)
}

func (s *Service) UpdateCompany(ctx context.Context, c Company) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.GetCluster(ctx, c.ClusterID); err != nil {
		return err
	}
	return s.repo.UpdateCompany(ctx, c)
}

func (s *Service) ListClusters(ctx context.Context) ([]Cluster, error) {
	return s.repo.ListClusters(ctx)
}

func (s *Service) GetCluster(ctx context.Context, id int64) (Cluster, error) {
	return s.repo.GetCluster(ctx, id)
}
