package repository

import (
	"database/sql"
	"time"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// ApiClientRepository provides persistence for API clients. Keys are stored as
// bcrypt hashes, so lookup iterates the enabled clients and lets the caller
// compare.
type ApiClientRepository struct {
	db *sql.DB
}

func NewApiClientRepository(db *sql.DB) *ApiClientRepository {
	return &ApiClientRepository{db: db}
}

func (r *ApiClientRepository) Save(c *domain.ApiClient) (int64, error) {
	created := c.Created
	if created.IsZero() {
		created = time.Now()
	}
	base := `INSERT INTO api_clients (name, key_hash, enabled, created) VALUES (` +
		placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, ` + placeholder(4) + `)`
	vals := []interface{}{c.Name, c.KeyHash, c.Enabled, formatDateInDatabase(created)}
	if supportsReturning() {
		query := base + " RETURNING id"
		if err := r.db.QueryRow(query, vals...).Scan(&c.ID); err != nil {
			return 0, err
		}
	} else {
		res, err := r.db.Exec(base, vals...)
		if err != nil {
			return 0, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		c.ID = id
	}
	c.Created = created
	return c.ID, nil
}

func (r *ApiClientRepository) FindEnabled() ([]*domain.ApiClient, error) {
	query := `
		SELECT id, name, key_hash, enabled, created
		FROM api_clients
		WHERE enabled = ` + placeholder(1) + `
		ORDER BY id
	`
	rows, err := r.db.Query(query, true)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*domain.ApiClient
	for rows.Next() {
		var c domain.ApiClient
		if err := rows.Scan(&c.ID, &c.Name, &c.KeyHash, &c.Enabled, &c.Created); err != nil {
			return nil, err
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}
