package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/junai/internal/model"
)

type SQLite struct {
	db *sql.DB
}

func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS tools (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT ''
);
`); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  id TEXT PRIMARY KEY,
  tool_id INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL,
  status TEXT NOT NULL,
  input_name TEXT NOT NULL,
  job_dir TEXT NOT NULL,
  answer TEXT,
  artifact_paths TEXT,
  error_message TEXT
);
`); err != nil {
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error { return s.db.Close() }

// SeedDefaultTool inserts a tool when the table is empty so a fresh install
// has something to submit jobs against.
func (s *SQLite) SeedDefaultTool(ctx context.Context, name, description string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tools`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO tools (name, description) VALUES (?, ?)`, name, description)
	return err
}

func (s *SQLite) ListTools(ctx context.Context) ([]model.Tool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description FROM tools ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tool
	for rows.Next() {
		var t model.Tool
		if err := rows.Scan(&t.ID, &t.Name, &t.Description); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLite) GetTool(ctx context.Context, id int64) (model.Tool, error) {
	var t model.Tool
	err := s.db.QueryRowContext(ctx, `SELECT id, name, description FROM tools WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Tool{}, model.ErrNotFound
	}
	return t, err
}

func (s *SQLite) CreateJob(ctx context.Context, job model.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, tool_id, created_at, updated_at, status, input_name, job_dir)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.ToolID,
		job.CreatedAt.UnixMilli(),
		job.UpdatedAt.UnixMilli(),
		string(job.Status),
		job.InputName,
		job.JobDir,
	)
	return err
}

func (s *SQLite) GetJob(ctx context.Context, id string) (model.Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tool_id, created_at, updated_at, status, input_name, job_dir, answer, artifact_paths, error_message
       FROM jobs WHERE id = ?`, id,
	)
	job, err := scanJob(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Job{}, model.ErrNotFound
		}
		return model.Job{}, err
	}
	return job, nil
}

func (s *SQLite) ListJobs(ctx context.Context, toolID *int64, limit int) ([]model.Job, error) {
	if limit <= 0 {
		limit = 25
	}

	query := `SELECT id, tool_id, created_at, updated_at, status, input_name, job_dir, answer, artifact_paths, error_message
       FROM jobs`
	args := []any{}
	if toolID != nil {
		query += " WHERE tool_id = ?"
		args = append(args, *toolID)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Job
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (s *SQLite) UpdateJob(ctx context.Context, id string, patch model.JobPatch) error {
	var pathsJSON any
	if patch.ArtifactPaths != nil {
		encoded, err := json.Marshal(patch.ArtifactPaths)
		if err != nil {
			return err
		}
		pathsJSON = string(encoded)
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE jobs
         SET updated_at = ?,
             status = COALESCE(?, status),
             answer = COALESCE(?, answer),
             artifact_paths = COALESCE(?, artifact_paths),
             error_message = COALESCE(?, error_message)
         WHERE id = ?`,
		time.Now().UnixMilli(),
		nullableString(patch.Status),
		nullableString(patch.Answer),
		pathsJSON,
		nullableString(patch.Error),
		id,
	)
	return err
}

func scanJob(scan func(dest ...any) error) (model.Job, error) {
	var (
		id, statusStr, inputName, jobDir string
		toolID                           int64
		createdMs, updatedMs             int64
		answer, pathsJSON, errorMsg      sql.NullString
	)
	if err := scan(&id, &toolID, &createdMs, &updatedMs, &statusStr, &inputName, &jobDir, &answer, &pathsJSON, &errorMsg); err != nil {
		return model.Job{}, err
	}
	job := model.Job{
		ID:        id,
		ToolID:    toolID,
		CreatedAt: time.UnixMilli(createdMs),
		UpdatedAt: time.UnixMilli(updatedMs),
		Status:    model.JobStatus(statusStr),
		InputName: inputName,
		JobDir:    jobDir,
	}
	if answer.Valid {
		job.Answer = answer.String
	}
	if errorMsg.Valid {
		job.Error = errorMsg.String
	}
	if pathsJSON.Valid && pathsJSON.String != "" {
		if err := json.Unmarshal([]byte(pathsJSON.String), &job.ArtifactPaths); err != nil {
			return model.Job{}, err
		}
	}
	return job, nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
