package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditEntry is one immutable lifecycle transition record. Entries are
// append-only: nothing in the portal edits or deletes them.
type AuditEntry struct {
	ID         int64     `json:"id"`
	ReportID   uuid.UUID `json:"report_id"`
	ActorID    int64     `json:"actor_id"`
	ActorName  string    `json:"actor_name"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Note       string    `json:"note,omitempty"`
	At         time.Time `json:"at"`
}

// AuditLogger persists transition history into report_audit.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, logger: logger}
}

// Record appends the entry.
func (l *AuditLogger) Record(ctx context.Context, entry AuditEntry) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if entry.ReportID == uuid.Nil {
		return errors.New("audit entry requires report id")
	}
	if entry.ActorID == 0 {
		return errors.New("audit entry requires actor")
	}
	if entry.FromStatus == "" || entry.ToStatus == "" {
		return errors.New("audit entry requires from/to status")
	}
	_, err := l.pool.Exec(ctx, `INSERT INTO report_audit (report_id, actor_id, actor_name, from_status, to_status, note, at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))`,
		entry.ReportID, entry.ActorID, entry.ActorName, entry.FromStatus, entry.ToStatus, entry.Note, entry.At)
	if err != nil {
		l.logger.Error("record audit entry", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns entries for one report, oldest first.
func (l *AuditLogger) List(ctx context.Context, reportID uuid.UUID) ([]AuditEntry, error) {
	if l == nil {
		return nil, errors.New("audit logger not initialised")
	}
	rows, err := l.pool.Query(ctx, `SELECT id, report_id, actor_id, actor_name, from_status, to_status, note, at
FROM report_audit WHERE report_id=$1 ORDER BY at ASC, id ASC`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.ReportID, &e.ActorID, &e.ActorName, &e.FromStatus, &e.ToStatus, &e.Note, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
