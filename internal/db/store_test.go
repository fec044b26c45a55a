package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ward-resolver/internal/engine"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db), mock
}

func TestSearchWardsPhonetic(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM search_ward_phonetic\(\$1, \$2\)`).
		WithArgs("ramganj", "lucknow").
		WillReturnRows(sqlmock.NewRows([]string{"ward_number", "ward_name", "score"}).
			AddRow(int64(12), "Ramganj Ward", 0.8).
			AddRow(int64(31), "Rajajipuram", 0.41))

	got, err := store.SearchWardsPhonetic(context.Background(), "ramganj", "lucknow")
	require.NoError(t, err)
	assert.Equal(t, []engine.WardCandidate{
		{Number: 12, Name: "Ramganj Ward", Score: 0.8},
		{Number: 31, Name: "Rajajipuram", Score: 0.41},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchWithoutCityPassesNull(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM fuzzy_search_mohallas\(\$1, \$2\)`).
		WithArgs("ramganj", nil).
		WillReturnRows(sqlmock.NewRows([]string{"mohalla_name", "ward_id", "score"}))

	got, err := store.SearchMohallasFuzzy(context.Background(), "ramganj", "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchMohallasFuzzy(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM fuzzy_search_mohallas`).
		WithArgs("hussainabad", "lucknow").
		WillReturnRows(sqlmock.NewRows([]string{"mohalla_name", "ward_id", "score"}).
			AddRow("Hussainabad", int64(7), 0.91))

	got, err := store.SearchMohallasFuzzy(context.Background(), "hussainabad", "lucknow")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, engine.MohallaCandidate{Name: "Hussainabad", WardID: 7, Score: 0.91}, got[0])
}

func TestSearchQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`FROM search_ward_phonetic`).WillReturnError(boom)

	_, err := store.SearchWardsPhonetic(context.Background(), "ramganj", "lucknow")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestSearchRowError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("stream broken")

	mock.ExpectQuery(`FROM fuzzy_search_mohallas`).
		WillReturnRows(sqlmock.NewRows([]string{"mohalla_name", "ward_id", "score"}).
			AddRow("Chowk", int64(3), 0.5).
			RowError(0, boom))

	_, err := store.SearchMohallasFuzzy(context.Background(), "chowk", "lucknow")
	assert.ErrorIs(t, err, boom)
}

func TestGetWardByID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM wards\s+WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "ward_number", "ward_name", "city"}).
			AddRow(int64(7), int64(12), "Ramganj Ward", "lucknow"))

	w, found, err := store.GetWardByID(context.Background(), 7)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, engine.Ward{ID: 7, Number: 12, Name: "Ramganj Ward", City: "lucknow"}, w)
}

func TestGetWardByIDMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM wards`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, found, err := store.GetWardByID(context.Background(), 404)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetWardByIDError(t *testing.T) {
	store, mock := newMockStore(t)
	boom := errors.New("timeout")

	mock.ExpectQuery(`FROM wards`).WillReturnError(boom)

	_, found, err := store.GetWardByID(context.Background(), 1)
	assert.False(t, found)
	assert.ErrorIs(t, err, boom)
}

func TestCounts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM wards`).
		WithArgs("lucknow").
		WillReturnRows(sqlmock.NewRows([]string{"wards", "mohallas"}).AddRow(int64(110), int64(1450)))

	wards, mohallas, err := store.Counts(context.Background(), "lucknow")
	require.NoError(t, err)
	assert.Equal(t, 110, wards)
	assert.Equal(t, 1450, mohallas)
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).
		WithArgs(schemaLockID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE EXTENSION IF NOT EXISTS pg_trgm`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	conn := &Connection{DB: db}
	require.NoError(t, conn.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE EXTENSION`).WillReturnError(errors.New("permission denied to create extension"))
	mock.ExpectRollback()

	conn := &Connection{DB: db}
	err = conn.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute schema ddl")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDefinesSearchFunctions(t *testing.T) {
	assert.Contains(t, schemaSQL, "FUNCTION search_ward_phonetic(p_query TEXT, p_city TEXT DEFAULT NULL)")
	assert.Contains(t, schemaSQL, "FUNCTION fuzzy_search_mohallas(p_query TEXT, p_city TEXT DEFAULT NULL)")
	assert.Contains(t, schemaSQL, "UNIQUE (city, ward_number)")
	assert.Contains(t, schemaSQL, "dmetaphone(p_query) <> ''")
}
