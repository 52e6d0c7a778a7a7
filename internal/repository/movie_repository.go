package repository

import (
	"context"
	"database/sql"
	"errors"
)

// Movie mirrors the 'movies' table.
type Movie struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DurationMin int    `json:"duration_min"`
}

// ErrMovieNotFound is returned when a movie lookup yields no rows.
var ErrMovieNotFound = errors.New("movie not found")

// MovieRepo encapsulates database operations for movies.
type MovieRepo struct {
	db *sql.DB
}

func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

// Create inserts a movie and returns its ID.
func (r *MovieRepo) Create(ctx context.Context, title, description string, durationMin int) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO movies (title, description, duration_min) VALUES (?,?,?)",
		title, description, durationMin)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// List returns all movies, newest first.
func (r *MovieRepo) List(ctx context.Context) ([]Movie, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, title, description, duration_min FROM movies ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]Movie, 0)
	for rows.Next() {
		var m Movie
		var desc sql.NullString
		if err := rows.Scan(&m.ID, &m.Title, &desc, &m.DurationMin); err != nil {
			return nil, err
		}
		m.Description = desc.String
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Exists reports whether a movie with the given id is present.
func (r *MovieRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id=? LIMIT 1", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
