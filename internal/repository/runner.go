package repository

import (
	"database/sql"
	"strings"
	"time"

	"github.com/dripware/dripflow/pkg/dripflow/domain"
)

// RunnerRepository provides persistence for the runners table.
type RunnerRepository struct {
	db *sql.DB
}

func NewRunnerRepository(db *sql.DB) *RunnerRepository {
	return &RunnerRepository{db: db}
}

// Save inserts a new runner row and returns its ID.
func (r *RunnerRepository) Save(runner *domain.Runner) (int64, error) {
	started := runner.Started
	if started.IsZero() {
		started = time.Now()
	}
	lastActive := runner.LastActive
	if lastActive.IsZero() {
		lastActive = started
	}
	vals := []interface{}{runner.Name, formatDateInDatabase(started), formatDateInDatabase(lastActive)}
	pps := []string{placeholder(1), placeholder(2), placeholder(3)}
	base := `INSERT INTO runners (name, started, last_active) VALUES (` + strings.Join(pps, ", ") + `)`
	if supportsReturning() {
		query := base + " RETURNING id"
		if err := r.db.QueryRow(query, vals...).Scan(&runner.ID); err != nil {
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
		runner.ID = id
	}
	runner.Started = started
	runner.LastActive = lastActive
	return runner.ID, nil
}

// UpdateLastActive sets last_active for the runner id to the provided timestamp.
func (r *RunnerRepository) UpdateLastActive(id int64, ts time.Time) error {
	query := `UPDATE runners SET last_active = ` + placeholder(1) + ` WHERE id = ` + placeholder(2)
	_, err := r.db.Exec(query, formatDateInDatabase(ts), id)
	return err
}

func (r *RunnerRepository) GetRunnersByLastActive(limit int) ([]*domain.Runner, error) {
	query := `
		SELECT id, name, started, last_active
		FROM runners
		ORDER BY last_active DESC
		LIMIT ` + placeholder(1) + `
	`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runners []*domain.Runner
	for rows.Next() {
		var runner domain.Runner
		if err := rows.Scan(&runner.ID, &runner.Name, &runner.Started, &runner.LastActive); err != nil {
			return nil, err
		}
		runners = append(runners, &runner)
	}
	return runners, rows.Err()
}
