package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"dcf_builder/pkg/core/model"
)

// ErrCaseNotFound is returned when no case is stored under an id.
var ErrCaseNotFound = errors.New("case not found")

var validID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// ValidCaseID reports whether id can name a case: letters, digits, '_' and
// '-', at most 128 characters.
func ValidCaseID(id string) bool {
	return validID.MatchString(id)
}

// CaseRecord is a stored valuation case.
type CaseRecord struct {
	ID        string             `json:"id"`
	State     model.BuilderState `json:"state"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// CaseStore persists valuation inputs by id.
// Postgres is used when a pool is configured, JSON files under a directory
// otherwise.
type CaseStore struct {
	pool    *pgxpool.Pool
	fileDir string
	now     func() time.Time
}

// NewCaseStore creates a store. If pool is nil, cases go to dir (default
// .cache/cases).
func NewCaseStore(pool *pgxpool.Pool, dir string) *CaseStore {
	if pool == nil {
		if dir == "" {
			dir = filepath.Join(".cache", "cases")
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("case directory not writable")
		}
		log.Info().Str("dir", dir).Msg("case store using file backend")
	}
	return &CaseStore{pool: pool, fileDir: dir, now: time.Now}
}

// Backend names the active storage backend.
func (s *CaseStore) Backend() string {
	if s.pool != nil {
		return "postgres"
	}
	return "file"
}

// Save upserts a case. The state is checked before it is written.
func (s *CaseStore) Save(ctx context.Context, id string, state model.BuilderState) (CaseRecord, error) {
	if !validID.MatchString(id) {
		return CaseRecord{}, fmt.Errorf("invalid case id %q", id)
	}
	if err := state.Check(); err != nil {
		return CaseRecord{}, fmt.Errorf("invalid case: %w", err)
	}
	rec := CaseRecord{ID: id, State: state, UpdatedAt: s.now().UTC()}

	if s.pool != nil {
		payload, err := json.Marshal(state)
		if err != nil {
			return CaseRecord{}, fmt.Errorf("failed to marshal case: %w", err)
		}
		query := `
			INSERT INTO valuation_cases (id, payload, updated_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (id)
			DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
		`
		if _, err := s.pool.Exec(ctx, query, id, payload, rec.UpdatedAt); err != nil {
			return CaseRecord{}, fmt.Errorf("failed to save case %s: %w", id, err)
		}
		return rec, nil
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return CaseRecord{}, fmt.Errorf("failed to marshal case: %w", err)
	}
	// write then rename so readers never see a partial file
	tmp := s.casePath(id) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return CaseRecord{}, fmt.Errorf("failed to write case %s: %w", id, err)
	}
	if err := os.Rename(tmp, s.casePath(id)); err != nil {
		return CaseRecord{}, fmt.Errorf("failed to write case %s: %w", id, err)
	}
	return rec, nil
}

// Get loads a case by id.
func (s *CaseStore) Get(ctx context.Context, id string) (CaseRecord, error) {
	if !validID.MatchString(id) {
		return CaseRecord{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}

	if s.pool != nil {
		query := `SELECT payload, updated_at FROM valuation_cases WHERE id = $1`
		var payload []byte
		rec := CaseRecord{ID: id}
		err := s.pool.QueryRow(ctx, query, id).Scan(&payload, &rec.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return CaseRecord{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
		}
		if err != nil {
			return CaseRecord{}, fmt.Errorf("failed to load case %s: %w", id, err)
		}
		if err := json.Unmarshal(payload, &rec.State); err != nil {
			return CaseRecord{}, fmt.Errorf("failed to unmarshal case %s: %w", id, err)
		}
		return rec, nil
	}

	data, err := os.ReadFile(s.casePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return CaseRecord{}, fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}
	if err != nil {
		return CaseRecord{}, fmt.Errorf("failed to read case %s: %w", id, err)
	}
	var rec CaseRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return CaseRecord{}, fmt.Errorf("failed to unmarshal case %s: %w", id, err)
	}
	return rec, nil
}

// List returns stored case ids, most recently updated first.
func (s *CaseStore) List(ctx context.Context) ([]string, error) {
	if s.pool != nil {
		rows, err := s.pool.Query(ctx, `SELECT id FROM valuation_cases ORDER BY updated_at DESC`)
		if err != nil {
			return nil, fmt.Errorf("failed to list cases: %w", err)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("failed to list cases: %w", err)
		}
		return ids, nil
	}

	entries, err := os.ReadDir(s.fileDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list cases: %w", err)
	}
	type stamped struct {
		id  string
		mod time.Time
	}
	var found []stamped
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, stamped{id: strings.TrimSuffix(e.Name(), ".json"), mod: info.ModTime()})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].mod.After(found[j].mod) })
	ids := make([]string, len(found))
	for i, f := range found {
		ids[i] = f.id
	}
	return ids, nil
}

// Delete removes a case. Deleting a missing case returns ErrCaseNotFound.
func (s *CaseStore) Delete(ctx context.Context, id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}
	if s.pool != nil {
		tag, err := s.pool.Exec(ctx, `DELETE FROM valuation_cases WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete case %s: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s", ErrCaseNotFound, id)
		}
		return nil
	}
	err := os.Remove(s.casePath(id))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrCaseNotFound, id)
	}
	return err
}

func (s *CaseStore) casePath(id string) string {
	return filepath.Join(s.fileDir, id+".json")
}
