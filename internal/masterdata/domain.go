package masterdata

import (
	"errors"
	"time"
)

// Company is a leaf of the reporting tree. FiscalYearStart is the month
// (1-12) the company's fiscal year begins in and anchors its YTD window.
type Company struct {
	ID              int64     `json:"id"`
	Code            string    `json:"code"`
	Name            string    `json:"name"`
	ClusterID       int64     `json:"cluster_id"`
	FiscalYearStart int       `json:"fiscal_year_start"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Cluster groups companies under the single implicit group root. It
// carries no metrics of its own.
type Cluster struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tree is an in-memory snapshot of the Company/Cluster hierarchy, the
// shape aggregation works against.
type Tree struct {
	Clusters  []Cluster
	Companies []Company
}

// ByCluster returns the companies of one cluster.
func (t Tree) ByCluster(clusterID int64) []Company {
	var out []Company
	for _, c := range t.Companies {
		if c.ClusterID == clusterID {
			out = append(out, c)
		}
	}
	return out
}

// Company returns the company with the given id.
func (t Tree) Company(id int64) (Company, bool) {
	for _, c := range t.Companies {
		if c.ID == id {
			return c, true
		}
	}
	return Company{}, false
}

// Validate checks the fields that matter downstream.
func (c Company) Validate() error {
	if c.Name == "" {
		return errors.New("masterdata: company name required")
	}
	if c.ClusterID <= 0 {
		return errors.New("masterdata: company must belong to a cluster")
	}
	if c.FiscalYearStart < 1 || c.FiscalYearStart > 12 {
		return errors.New("masterdata: fiscal year start must be 1-12")
	}
	return nil
}
