package main

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const queryTimeout = 5 * time.Second

func openDB(cfg config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.db.maxOpenConnections)
	db.SetMaxIdleConns(cfg.db.maxIdleConnections)
	db.SetConnMaxIdleTime(cfg.db.maxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	err = db.PingContext(ctx)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

type storage struct {
	db *sql.DB
}

func newStorage(db *sql.DB) *storage {
	return &storage{db: db}
}

func (s *storage) getUserByEmail(ctx context.Context, email string) (*user, error) {
	query := `SELECT id, email, password_hash, created_at, updated_at
			  FROM users
			  WHERE email = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, email)
	var u user
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) getUserByID(ctx context.Context, id int) (*user, error) {
	query := `SELECT id, email, password_hash, created_at, updated_at
			  FROM users
			  WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id)
	var u user
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &u, nil
}

func (s *storage) insertUser(ctx context.Context, u *user) error {
	query := `INSERT INTO users (email, password_hash)
			  VALUES ($1, $2)
			  RETURNING id, created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, u.Email, u.PasswordHash)
	err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return errDuplicateUser
	}
	return err
}

func (s *storage) insertTask(ctx context.Context, t *task) error {
	query := `INSERT INTO tasks (user_id, title, description, is_completed)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id, created_at, updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.UserID, t.Title, t.Description, t.IsCompleted)
	return row.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (s *storage) getTask(ctx context.Context, id, userID int) (*task, error) {
	query := `SELECT id, user_id, title, description, is_completed, created_at, updated_at
			  FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, id, userID)
	var t task
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, nil
		default:
			return nil, err
		}
	}
	return &t, nil
}

func (s *storage) getTasks(ctx context.Context, userID int, completed *bool, limit, offset int) ([]task, error) {
	query := `SELECT id, user_id, title, description, is_completed, created_at, updated_at
			  FROM tasks
			  WHERE user_id = $1 AND ($2::boolean IS NULL OR is_completed = $2)
			  ORDER BY id
			  LIMIT $3 OFFSET $4`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, query, userID, completed, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []task{}
	for rows.Next() {
		var t task
		err := rows.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &t.IsCompleted, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *storage) countTasks(ctx context.Context, userID int, completed *bool) (int, error) {
	query := `SELECT count(*)
			  FROM tasks
			  WHERE user_id = $1 AND ($2::boolean IS NULL OR is_completed = $2)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	var total int
	err := s.db.QueryRowContext(ctx, query, userID, completed).Scan(&total)
	return total, err
}

func (s *storage) updateTask(ctx context.Context, t *task) error {
	query := `UPDATE tasks SET title = $1, description = $2, is_completed = $3, updated_at = now()
			  WHERE id = $4 AND user_id = $5
			  RETURNING updated_at`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, query, t.Title, t.Description, t.IsCompleted, t.ID, t.UserID)
	return row.Scan(&t.UpdatedAt)
}

func (s *storage) deleteTask(ctx context.Context, id, userID int) (bool, error) {
	query := `DELETE FROM tasks
			  WHERE id = $1 AND user_id = $2`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	result, err := s.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
