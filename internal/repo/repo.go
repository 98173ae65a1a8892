// Package repo stores users and saved conductor projects in Postgres.
package repo

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrUserExists = errors.New("user already exists")
)

type Repository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	GetByLogin(ctx context.Context, login string) (int, string, error)
}

// StoredConductor is a conductor line as the caller entered it. It is
// validated again against the tables when a project is calculated.
type StoredConductor struct {
	Insulation string `json:"insulation"`
	Gauge      string `json:"gauge"`
	Quantity   int    `json:"quantity"`
}

type Project struct {
	ID         int               `json:"id"`
	UserID     int               `json:"-"`
	Name       string            `json:"name"`
	Material   string            `json:"material"`
	CreatedAt  time.Time         `json:"created_at"`
	Conductors []StoredConductor `json:"conductors"`
}

// ProjectStore keeps each user's conductor collections. Every call is scoped
// to userID; a project owned by someone else is ErrNotFound.
type ProjectStore interface {
	// CreateProject stores the project and its initial conductors atomically.
	CreateProject(ctx context.Context, userID int, name, material string, conductors []StoredConductor) (Project, error)
	ListProjects(ctx context.Context, userID int) ([]Project, error)
	GetProject(ctx context.Context, userID, id int) (Project, error)
	DeleteProject(ctx context.Context, userID, id int) error
	AddConductor(ctx context.Context, userID, projectID int, c StoredConductor) error
	RemoveConductor(ctx context.Context, userID, projectID, index int) error
	ClearConductors(ctx context.Context, userID, projectID int) error
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserDB(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, password).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrUserExists
	}
	return id, err
}

// GetByLogin returns the id and password hash, or ErrNotFound.
func (r *PostgresUserRepository) GetByLogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", ErrNotFound
		}
		return 0, "", err
	}
	return id, hash, nil
}
