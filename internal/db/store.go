package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ward-resolver/internal/engine"
)

const (
	searchWardsSQL = `
		SELECT ward_number, ward_name, score
		FROM search_ward_phonetic($1, $2)`

	searchMohallasSQL = `
		SELECT mohalla_name, ward_id, score
		FROM fuzzy_search_mohallas($1, $2)`

	wardByIDSQL = `
		SELECT id, ward_number, ward_name, city
		FROM wards
		WHERE id = $1`
)

// Store is the PostgreSQL reference store. It borrows the pool owned by the
// caller and never closes it.
type Store struct {
	db *sql.DB
}

var _ engine.ReferenceStore = (*Store)(nil)

// NewStore creates a store over an open database handle
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// SearchWardsPhonetic runs the phonetic ward-name search for one query
func (s *Store) SearchWardsPhonetic(ctx context.Context, query, city string) ([]engine.WardCandidate, error) {
	rows, err := s.db.QueryContext(ctx, searchWardsSQL, query, cityArg(city))
	if err != nil {
		return nil, fmt.Errorf("search_ward_phonetic: %w", err)
	}
	defer rows.Close()

	var out []engine.WardCandidate
	for rows.Next() {
		var c engine.WardCandidate
		if err := rows.Scan(&c.Number, &c.Name, &c.Score); err != nil {
			return nil, fmt.Errorf("scan ward candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ward candidates: %w", err)
	}
	return out, nil
}

// SearchMohallasFuzzy runs the trigram mohalla search for one query
func (s *Store) SearchMohallasFuzzy(ctx context.Context, query, city string) ([]engine.MohallaCandidate, error) {
	rows, err := s.db.QueryContext(ctx, searchMohallasSQL, query, cityArg(city))
	if err != nil {
		return nil, fmt.Errorf("fuzzy_search_mohallas: %w", err)
	}
	defer rows.Close()

	var out []engine.MohallaCandidate
	for rows.Next() {
		var c engine.MohallaCandidate
		if err := rows.Scan(&c.Name, &c.WardID, &c.Score); err != nil {
			return nil, fmt.Errorf("scan mohalla candidate: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mohalla candidates: %w", err)
	}
	return out, nil
}

// GetWardByID loads the canonical ward row
func (s *Store) GetWardByID(ctx context.Context, id int64) (engine.Ward, bool, error) {
	var w engine.Ward
	err := s.db.QueryRowContext(ctx, wardByIDSQL, id).Scan(&w.ID, &w.Number, &w.Name, &w.City)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.Ward{}, false, nil
	}
	if err != nil {
		return engine.Ward{}, false, fmt.Errorf("get ward %d: %w", id, err)
	}
	return w, true, nil
}

// Ping checks that the store is reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Counts reports how many wards and mohallas a city holds
func (s *Store) Counts(ctx context.Context, city string) (wards, mohallas int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM wards w WHERE $1::text IS NULL OR w.city = $1),
			(SELECT COUNT(*) FROM mohallas m JOIN wards w ON w.id = m.ward_id
			 WHERE $1::text IS NULL OR w.city = $1)`, cityArg(city)).Scan(&wards, &mohallas)
	if err != nil {
		return 0, 0, fmt.Errorf("count reference rows: %w", err)
	}
	return wards, mohallas, nil
}

// cityArg maps an empty city to SQL NULL, which disables the city filter
func cityArg(city string) sql.NullString {
	return sql.NullString{String: city, Valid: city != ""}
}
