//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/wizardbeard/tpg/internal/model"
)

// runPayload holds the RunRecord fields not worth their own indexed
// column: the mutation config a run was seeded with and its per-
// generation elite root lineage.
type runPayload struct {
	MutationConfig         model.MutationConfigSnapshot `json:"mutation_config"`
	EliteRootsByGeneration []model.EliteGeneration      `json:"elite_roots_by_generation"`
}

// SQLiteStore is the optional build-tag-gated backend, grounded
// directly on the teacher's internal/storage/sqlite.go: same
// ON CONFLICT DO UPDATE upsert shape, same errors.Is(sql.ErrNoRows)
// not-found convention.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("storage: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			generation INTEGER NOT NULL,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS generation_diagnostics (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS lineage (
			run_id TEXT PRIMARY KEY,
			payload BLOB NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("storage: sqlite store not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run model.RunRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(runPayload{MutationConfig: run.MutationConfig, EliteRootsByGeneration: run.EliteRootsByGeneration})
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, schema_version, codec_version, seed, generation, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			seed = excluded.seed,
			generation = excluded.generation,
			payload = excluded.payload
	`, run.ID, run.SchemaVersion, run.CodecVersion, run.Seed, run.Generation, payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (model.RunRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	var payload []byte
	run.ID = id
	err = db.QueryRowContext(ctx, `SELECT schema_version, codec_version, seed, generation, payload FROM runs WHERE id = ?`, id).
		Scan(&run.SchemaVersion, &run.CodecVersion, &run.Seed, &run.Generation, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var p runPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return model.RunRecord{}, false, err
	}
	run.MutationConfig = p.MutationConfig
	run.EliteRootsByGeneration = p.EliteRootsByGeneration
	return run, true, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	query := `SELECT id, schema_version, codec_version, seed, generation, payload FROM runs ORDER BY id`
	if limit > 0 {
		query += " LIMIT ?"
	}
	var rows *sql.Rows
	if limit > 0 {
		rows, err = db.QueryContext(ctx, query, limit)
	} else {
		rows, err = db.QueryContext(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RunRecord
	for rows.Next() {
		var r model.RunRecord
		var payload []byte
		if err := rows.Scan(&r.ID, &r.SchemaVersion, &r.CodecVersion, &r.Seed, &r.Generation, &payload); err != nil {
			return nil, err
		}
		var p runPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		r.MutationConfig = p.MutationConfig
		r.EliteRootsByGeneration = p.EliteRootsByGeneration
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveGenerationDiagnostics(ctx context.Context, runID string, diagnostics []model.GenerationDiagnostics) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeGenerationDiagnostics(diagnostics)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO generation_diagnostics (run_id, payload) VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) GetGenerationDiagnostics(ctx context.Context, runID string) ([]model.GenerationDiagnostics, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM generation_diagnostics WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	diagnostics, err := DecodeGenerationDiagnostics(payload)
	if err != nil {
		return nil, false, err
	}
	return diagnostics, true, nil
}

func (s *SQLiteStore) SaveLineage(ctx context.Context, runID string, lineage []model.LineageRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeLineage(lineage)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `
		INSERT INTO lineage (run_id, payload) VALUES (?, ?)
		ON CONFLICT(run_id) DO UPDATE SET payload = excluded.payload
	`, runID, payload)
	return err
}

func (s *SQLiteStore) GetLineage(ctx context.Context, runID string) ([]model.LineageRecord, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}
	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM lineage WHERE run_id = ?`, runID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	lineage, err := DecodeLineage(payload)
	if err != nil {
		return nil, false, err
	}
	return lineage, true, nil
}

func newSQLiteStore(path string) (Store, error) {
	s := NewSQLiteStore(path)
	return s, nil
}
