package import_pkg

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

const (
	upsertWardSQL = `
		INSERT INTO wards (city, ward_number, ward_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (city, ward_number)
		DO UPDATE SET ward_name = EXCLUDED.ward_name, updated_at = now()
		RETURNING id`

	insertMohallaSQL = `
		INSERT INTO mohallas (ward_id, mohalla_name)
		SELECT $1::bigint, $2::text
		WHERE NOT EXISTS (
			SELECT 1 FROM mohallas WHERE ward_id = $1 AND mohalla_name = $2
		)`

	clearMohallasSQL = `
		DELETE FROM mohallas
		WHERE ward_id IN (SELECT id FROM wards WHERE city = $1)`

	clearWardsSQL = `DELETE FROM wards WHERE city = $1`
)

// Options controls one ingestion run
type Options struct {
	// Replace clears the city before writing, inside the same transaction.
	Replace bool
	// Progress receives a progress bar when non-nil.
	Progress io.Writer
}

// Summary reports what an ingestion run wrote
type Summary struct {
	City            string
	Wards           int
	Mohallas        int
	SkippedMohallas int // already present for the ward
	Cleared         ClearSummary
}

// ClearSummary reports what a clear removed
type ClearSummary struct {
	Wards    int64
	Mohallas int64
}

// Importer writes parsed ward tables into the reference store
type Importer struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewImporter creates a new importer
func NewImporter(db *sql.DB, logger zerolog.Logger) *Importer {
	return &Importer{db: db, logger: logger.With().Str("component", "importer").Logger()}
}

// Import upserts wards keyed by (city, ward_number) and inserts their
// mohallas. The run is atomic: any failure leaves the store untouched.
func (im *Importer) Import(ctx context.Context, city string, wards []WardRow, opts Options) (Summary, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return Summary{}, fmt.Errorf("city is required")
	}
	summary := Summary{City: city}

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if opts.Replace {
		cleared, err := clearCity(ctx, tx, city)
		if err != nil {
			return summary, err
		}
		summary.Cleared = cleared
		im.logger.Info().
			Str("city", city).
			Int64("wards", cleared.Wards).
			Int64("mohallas", cleared.Mohallas).
			Msg("cleared existing reference data")
	}

	bar := newProgressBar(opts.Progress, len(wards))

	for _, w := range wards {
		var wardID int64
		if err := tx.QueryRowContext(ctx, upsertWardSQL, city, w.Number, w.Name).Scan(&wardID); err != nil {
			return summary, fmt.Errorf("upsert ward %d: %w", w.Number, err)
		}
		summary.Wards++

		for _, name := range w.Mohallas {
			res, err := tx.ExecContext(ctx, insertMohallaSQL, wardID, name)
			if err != nil {
				return summary, fmt.Errorf("insert mohalla %q of ward %d: %w", name, w.Number, err)
			}
			if n, err := res.RowsAffected(); err == nil && n == 0 {
				summary.SkippedMohallas++
				continue
			}
			summary.Mohallas++
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("commit import tx: %w", err)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	im.logger.Info().
		Str("city", city).
		Int("wards", summary.Wards).
		Int("mohallas", summary.Mohallas).
		Int("skipped_mohallas", summary.SkippedMohallas).
		Msg("import complete")
	return summary, nil
}

// ClearCity deletes a city's mohallas and then its wards in one transaction
func (im *Importer) ClearCity(ctx context.Context, city string) (ClearSummary, error) {
	city = strings.ToLower(strings.TrimSpace(city))
	if city == "" {
		return ClearSummary{}, fmt.Errorf("city is required")
	}

	tx, err := im.db.BeginTx(ctx, nil)
	if err != nil {
		return ClearSummary{}, fmt.Errorf("begin clear tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	cleared, err := clearCity(ctx, tx, city)
	if err != nil {
		return ClearSummary{}, err
	}
	if err := tx.Commit(); err != nil {
		return ClearSummary{}, fmt.Errorf("commit clear tx: %w", err)
	}
	return cleared, nil
}

func clearCity(ctx context.Context, tx *sql.Tx, city string) (ClearSummary, error) {
	var cleared ClearSummary

	// Mohallas reference wards, so they go first.
	res, err := tx.ExecContext(ctx, clearMohallasSQL, city)
	if err != nil {
		return cleared, fmt.Errorf("clear mohallas of %s: %w", city, err)
	}
	cleared.Mohallas, _ = res.RowsAffected()

	res, err = tx.ExecContext(ctx, clearWardsSQL, city)
	if err != nil {
		return cleared, fmt.Errorf("clear wards of %s: %w", city, err)
	}
	cleared.Wards, _ = res.RowsAffected()
	return cleared, nil
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil || total == 0 {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("ingesting wards"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("wards"),
		progressbar.OptionShowIts(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}
