package repository

import (
	"database/sql"
	"log/slog"

	"github.com/dripware/dripflow/pkg/dripflow/core"
	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// DeliveryRepository persists the per-send audit log.
type DeliveryRepository struct {
	db    *sql.DB
	clock core.Clock
}

func NewDeliveryRepository(db *sql.DB, clock core.Clock) *DeliveryRepository {
	return &DeliveryRepository{db: db, clock: clock}
}

// Save inserts a new delivery record and returns its ID.
func (r *DeliveryRepository) Save(d *domain.Delivery) (int64, error) {
	base := `
		INSERT INTO deliveries (
			subscription_id, workflow_id, step_number, variant, recipient, idempotency_key, status, detail, date_time
		) VALUES (
			` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `, ` + placeholder(5) + `, ` + placeholder(6) + `, ` + placeholder(7) + `, ` + placeholder(8) + `, ` + placeholder(9) + `
		)`
	vals := []interface{}{
		d.SubscriptionID,
		d.WorkflowID,
		d.StepNumber,
		d.Variant,
		d.Recipient,
		d.IdempotencyKey,
		d.Status,
		d.Detail,
		formatDateInDatabase(d.DateTime),
	}
	var err error
	if supportsReturning() {
		query := base + " RETURNING id"
		err = r.db.QueryRow(query, vals...).Scan(&d.ID)
	} else {
		res, e := r.db.Exec(base, vals...)
		if e != nil {
			err = e
		} else {
			id, e2 := res.LastInsertId()
			if e2 != nil {
				err = e2
			} else {
				d.ID = id
			}
		}
	}

	if err != nil {
		slog.Error("Failed to save delivery", "error", err)
	}

	return d.ID, err
}

// FindAllBySubscriptionID returns all deliveries for a subscription, newest first.
func (r *DeliveryRepository) FindAllBySubscriptionID(subscriptionID int64) (*[]domain.Delivery, error) {
	query := `
		SELECT id, subscription_id, workflow_id, step_number, variant, recipient, idempotency_key, status, detail, date_time
		FROM deliveries
		WHERE subscription_id = ` + placeholder(1) + `
		ORDER BY id DESC
	`
	rows, err := r.db.Query(query, subscriptionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deliveries []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		if err := rows.Scan(
			&d.ID,
			&d.SubscriptionID,
			&d.WorkflowID,
			&d.StepNumber,
			&d.Variant,
			&d.Recipient,
			&d.IdempotencyKey,
			&d.Status,
			&d.Detail,
			&d.DateTime,
		); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return &deliveries, rows.Err()
}
