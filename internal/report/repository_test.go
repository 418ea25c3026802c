package report

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/finport/finport/internal/shared"
)

func TestMapCreateErrorDuplicatePeriod(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "uq_reports_company_period"}
	if got := mapCreateError(pgErr); !errors.Is(got, shared.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate period got %v", got)
	}

	// pgx wraps driver errors; the mapping must see through the chain.
	wrapped := fmt.Errorf("exec insert: %w", pgErr)
	if got := mapCreateError(wrapped); !errors.Is(got, shared.ErrConflict) {
		t.Fatalf("expected ErrConflict for wrapped violation got %v", got)
	}
}

func TestMapCreateErrorPassesOthersThrough(t *testing.T) {
	other := &pgconn.PgError{Code: "23503", ConstraintName: "fk_reports_company"}
	if got := mapCreateError(other); !errors.Is(got, other) {
		t.Fatalf("foreign key violation must pass through, got %v", got)
	}

	plain := errors.New("connection reset")
	if got := mapCreateError(plain); got != plain {
		t.Fatalf("non-pg error must pass through, got %v", got)
	}
}
