// Package lookup keeps the tabulated model predictions (masses, widths,
// cross-sections and branching ratios on an (m_A, tan β) grid) in sqlite and
// interpolates them for an animation's scan.
package lookup

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/san-kum/higgsanim/internal/resonance"
)

// Store is a lookup grid database.
type Store struct {
	db     *sql.DB
	logger *log.Logger
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, logger: logger}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Entry is one grid point of a dataset.
type Entry struct {
	Dataset string
	MA      float64
	TanBeta float64
	Value   float64
}

// Put inserts or replaces entries in one transaction.
func (s *Store) Put(ctx context.Context, entries []Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO grid (dataset, ma, tanb, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Dataset, e.MA, e.TanBeta, e.Value); err != nil {
			return fmt.Errorf("insert %s(%g, %g): %w", e.Dataset, e.MA, e.TanBeta, err)
		}
	}
	return tx.Commit()
}

// Import reads dataset,ma,tanb,value rows from r. A header row is skipped.
// It returns the number of entries stored.
func (s *Store) Import(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var entries []Entry
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, resonance.Configf("grid csv: %v", err)
		}
		if line == 1 && strings.EqualFold(record[0], "dataset") {
			continue
		}

		e := Entry{Dataset: strings.TrimSpace(record[0])}
		if e.Dataset == "" {
			return 0, resonance.Configf("grid csv line %d: empty dataset name", line)
		}
		nums := [3]*float64{&e.MA, &e.TanBeta, &e.Value}
		for j, dst := range nums {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[j+1]), 64)
			if err != nil {
				return 0, resonance.Configf("grid csv line %d: %v", line, err)
			}
			*dst = v
		}
		entries = append(entries, e)
	}

	if err := s.Put(ctx, entries); err != nil {
		return 0, err
	}
	s.logger.Printf("[lookup] imported %d grid points", len(entries))
	return len(entries), nil
}

// DatasetInfo describes the extent of one dataset.
type DatasetInfo struct {
	Name       string
	Points     int
	MAMin      float64
	MAMax      float64
	TanBetaMin float64
	TanBetaMax float64
}

// Datasets lists every dataset in name order.
func (s *Store) Datasets(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dataset, COUNT(*), MIN(ma), MAX(ma), MIN(tanb), MAX(tanb)
		FROM grid GROUP BY dataset ORDER BY dataset`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DatasetInfo
	for rows.Next() {
		var d DatasetInfo
		if err := rows.Scan(&d.Name, &d.Points, &d.MAMin, &d.MAMax, &d.TanBetaMin, &d.TanBetaMax); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Has reports whether dataset has any grid points.
func (s *Store) Has(ctx context.Context, dataset string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM grid WHERE dataset = ?`, dataset).Scan(&n)
	return n > 0, err
}

// Grid loads a dataset for interpolation.
func (s *Store) Grid(ctx context.Context, dataset string) (*Grid, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ma, tanb, value FROM grid WHERE dataset = ? ORDER BY tanb, ma`, dataset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pts []gridPoint
	for rows.Next() {
		var p gridPoint
		if err := rows.Scan(&p.ma, &p.tanb, &p.value); err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(pts) == 0 {
		return nil, resonance.Configf("unknown dataset %q", dataset)
	}
	return newGrid(dataset, pts)
}

// Value interpolates dataset at (ma, tanb).
func (s *Store) Value(ctx context.Context, dataset string, ma, tanb float64) (float64, error) {
	g, err := s.Grid(ctx, dataset)
	if err != nil {
		return 0, err
	}
	return g.At(ma, tanb)
}
