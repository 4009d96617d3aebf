package repository

import (
	"database/sql"
	"time"

	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// EngagementRepository records send/open/click events and aggregates them into
// per-user snapshots on demand.
type EngagementRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewEngagementRepository(db *sql.DB, clock core.Clock) *EngagementRepository {
	return &EngagementRepository{db: db, clock: clock}
}

func (r *EngagementRepository) Save(e *domain.EngagementEvent) (int64, error) {
	base := `
		INSERT INTO engagement_events (user_id, kind, message_key, occurred_at)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)`
	vals := []interface{}{e.UserID, e.Kind, e.MessageKey, formatDateInDatabase(e.OccurredAt)}

	var err error
	if supportsReturning() {
		query := base + " RETURNING id"
		err = r.db.QueryRow(query, vals...).Scan(&e.ID)
	} else {
		res, e2 := r.db.Exec(base, vals...)
		if e2 != nil {
			err = e2
		} else {
			id, e3 := res.LastInsertId()
			if e3 != nil {
				err = e3
			} else {
				e.ID = id
			}
		}
	}
	return e.ID, err
}

// Snapshot aggregates a user's engagement history. LastEngagementAt only
// counts opens and clicks, a send alone is not engagement.
func (r *EngagementRepository) Snapshot(userID string) (*domain.EngagementSnapshot, error) {
	query := `
		SELECT
		    SUM(CASE WHEN kind = 'sent' THEN 1 ELSE 0 END) AS sent_count,
		    SUM(CASE WHEN kind = 'opened' THEN 1 ELSE 0 END) AS opened_count,
		    SUM(CASE WHEN kind = 'clicked' THEN 1 ELSE 0 END) AS click_count,
		    MAX(CASE WHEN kind IN ('opened', 'clicked') THEN occurred_at END) AS last_engagement_at
		FROM engagement_events
		WHERE user_id = ` + placeholder(1) + `
	`
	snap := domain.EngagementSnapshot{UserID: userID}
	var sent, opened, clicked sql.NullInt64
	var last any
	err := r.db.QueryRow(query, userID).Scan(&sent, &opened, &clicked, &last)
	if err != nil {
		return nil, err
	}
	snap.SentCount = int(sent.Int64)
	snap.OpenedCount = int(opened.Int64)
	snap.ClickCount = int(clicked.Int64)
	snap.LastEngagementAt = scanAggregateTime(last)
	return &snap, nil
}

// scanAggregateTime converts the value behind MAX(occurred_at). SQLite drops
// the column type on aggregate expressions and hands back the raw text, so a
// plain sql.NullTime scan would fail there.
func scanAggregateTime(v any) sql.NullTime {
	switch t := v.(type) {
	case time.Time:
		return sql.NullTime{Time: t, Valid: true}
	case []byte:
		return parseDatabaseTime(string(t))
	case string:
		return parseDatabaseTime(t)
	}
	return sql.NullTime{}
}

func parseDatabaseTime(s string) sql.NullTime {
	for _, layout := range []string{
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05.000000",
		"2006-01-02 15:04:05",
		time.RFC3339Nano,
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t.UTC(), Valid: true}
		}
	}
	return sql.NullTime{}
}
