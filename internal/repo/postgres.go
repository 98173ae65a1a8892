package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// Open connects to Postgres. A DSN without sslmode gets sslmode=require.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		dsn = "user=postgres dbname=postgres password=password sslmode=disable"
	}
	db, err := sql.Open("postgres", normalizeDSN(dsn))
	if err != nil {
		return nil, fmt.Errorf("configure database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database not responding: %w", err)
	}
	return db, nil
}

func normalizeDSN(dsn string) string {
	if strings.Contains(dsn, "sslmode=") {
		return dsn
	}
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&sslmode=require"
		}
		return dsn + "?sslmode=require"
	}
	return dsn + " sslmode=require"
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		login TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		material TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS project_conductors (
		id SERIAL PRIMARY KEY,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		insulation TEXT NOT NULL,
		gauge TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS project_conductors_project_idx ON project_conductors (project_id, position)`,
}

// Migrate creates the tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type PostgresProjectRepository struct {
	db *sql.DB
}

func NewPostgresProjectDB(db *sql.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{db: db}
}

func (r *PostgresProjectRepository) CreateProject(ctx context.Context, userID int, name, material string, conductors []StoredConductor) (Project, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return Project{}, err
	}
	defer tx.Rollback()

	p := Project{UserID: userID, Name: name, Material: material, Conductors: []StoredConductor{}}
	query := "INSERT INTO projects (user_id, name, material) VALUES ($1, $2, $3) RETURNING id, created_at"
	if err := tx.QueryRowContext(ctx, query, userID, name, material).Scan(&p.ID, &p.CreatedAt); err != nil {
		return Project{}, err
	}
	for i, c := range conductors {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO project_conductors (project_id, position, insulation, gauge, quantity) VALUES ($1, $2, $3, $4, $5)",
			p.ID, i, c.Insulation, c.Gauge, c.Quantity)
		if err != nil {
			return Project{}, fmt.Errorf("conductor %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Project{}, err
	}
	p.Conductors = append(p.Conductors, conductors...)
	return p, nil
}

// ListProjects returns the user's projects, newest first, without conductors.
func (r *PostgresProjectRepository) ListProjects(ctx context.Context, userID int) ([]Project, error) {
	query := "SELECT id, name, material, created_at FROM projects WHERE user_id=$1 ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p := Project{UserID: userID}
		if err := rows.Scan(&p.ID, &p.Name, &p.Material, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *PostgresProjectRepository) GetProject(ctx context.Context, userID, id int) (Project, error) {
	p := Project{UserID: userID}
	query := "SELECT id, name, material, created_at FROM projects WHERE id=$1 AND user_id=$2"
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(&p.ID, &p.Name, &p.Material, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Project{}, ErrNotFound
	}
	if err != nil {
		return Project{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT insulation, gauge, quantity FROM project_conductors WHERE project_id=$1 ORDER BY position, id", id)
	if err != nil {
		return Project{}, err
	}
	defer rows.Close()

	p.Conductors = []StoredConductor{}
	for rows.Next() {
		var c StoredConductor
		if err := rows.Scan(&c.Insulation, &c.Gauge, &c.Quantity); err != nil {
			return Project{}, err
		}
		p.Conductors = append(p.Conductors, c)
	}
	return p, rows.Err()
}

func (r *PostgresProjectRepository) DeleteProject(ctx context.Context, userID, id int) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM projects WHERE id=$1 AND user_id=$2", id, userID)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PostgresProjectRepository) AddConductor(ctx context.Context, userID, projectID int, c StoredConductor) error {
	query := `INSERT INTO project_conductors (project_id, position, insulation, gauge, quantity)
		SELECT p.id, COALESCE((SELECT MAX(position) + 1 FROM project_conductors WHERE project_id = p.id), 0), $3, $4, $5
		FROM projects p WHERE p.id=$1 AND p.user_id=$2`
	res, err := r.db.ExecContext(ctx, query, projectID, userID, c.Insulation, c.Gauge, c.Quantity)
	if err != nil {
		return err
	}
	return expectRow(res)
}

// RemoveConductor deletes the conductor at 0-based index in project order.
func (r *PostgresProjectRepository) RemoveConductor(ctx context.Context, userID, projectID, index int) error {
	if index < 0 {
		return ErrNotFound
	}
	query := `DELETE FROM project_conductors WHERE id = (
		SELECT c.id FROM project_conductors c JOIN projects p ON p.id = c.project_id
		WHERE p.id=$1 AND p.user_id=$2 ORDER BY c.position, c.id OFFSET $3 LIMIT 1)`
	res, err := r.db.ExecContext(ctx, query, projectID, userID, index)
	if err != nil {
		return err
	}
	return expectRow(res)
}

func (r *PostgresProjectRepository) ClearConductors(ctx context.Context, userID, projectID int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx, "SELECT id FROM projects WHERE id=$1 AND user_id=$2", projectID, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM project_conductors WHERE project_id=$1", id); err != nil {
		return err
	}
	return tx.Commit()
}

func expectRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
