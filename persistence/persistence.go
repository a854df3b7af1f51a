// SPDX-License-Identifier: GPL-3.0-or-later
package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/log"
	"github.com/CrawX/go-mbox-jobsort/persistence/migrations"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"
)

const (
	tableRaw     = "raw_results"
	tableDeduped = "deduped_results"
)

// Persistence exports results into a SQLite file. Every export replaces the result tables and adds a row to runs.
type Persistence struct {
	db *sqlx.DB
	l  *logrus.Logger

	now func() time.Time
}

type resultRow struct {
	RunId          string `db:"run_id"`
	Source         string `db:"source"`
	Date           string `db:"date"`
	Company        string `db:"company"`
	Sender         string `db:"sender"`
	Subject        string `db:"subject"`
	Category       string `db:"category"`
	MatchedKeyword string `db:"matched_keyword"`
	BodyPreview    string `db:"body_preview"`
}

type Run struct {
	Id           string    `db:"id"`
	FinishedAt   time.Time `db:"finished_at"`
	RawCount     int       `db:"raw_count"`
	DedupedCount int       `db:"deduped_count"`
}

func NewPersistence(datasource string) (*Persistence, error) {
	db, err := sqlx.Connect("sqlite3", datasource)
	if err != nil {
		return nil, fmt.Errorf("could not open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	l := log.Logger(log.LOG_PERSISTENCE)
	l.WithField("file", datasource).Info("Connected")

	_, err = db.Exec(`PRAGMA journal_mode=WAL`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set journal mode: %w", err)
	}
	_, err = db.Exec(`PRAGMA synchronous=normal`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not set synchronous mode: %w", err)
	}

	appliedMigrations, err := migrate.Exec(db.DB, "sqlite3", migrations.Source(), migrate.Up)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not migrate to newest version: %w", err)
	}

	l.WithField("migrations", appliedMigrations).Debug("Executed migrations")

	return &Persistence{
		db:  db,
		l:   l,
		now: time.Now,
	}, nil
}

func (p *Persistence) Close() error {
	err := p.db.Close()
	if err != nil {
		return fmt.Errorf("could not close db: %w", err)
	}
	p.l.Info("Disconnected")
	return nil
}

func (p *Persistence) Export(raw []domain.ClassificationResult, deduped []domain.ClassificationResult) error {
	runId := uuid.NewString()

	tx, err := p.db.BeginTxx(context.TODO(), nil)
	if err != nil {
		return fmt.Errorf("could not start transaction: %w", err)
	}

	for _, table := range []struct {
		name    string
		results []domain.ClassificationResult
	}{
		{tableRaw, raw},
		{tableDeduped, deduped},
	} {
		err = replaceResults(tx, table.name, runId, table.results)
		if err != nil {
			return txEnd(tx, err)
		}
	}

	_, err = tx.NamedExec(
		"INSERT INTO runs (id, finished_at, raw_count, deduped_count) VALUES (:id, :finished_at, :raw_count, :deduped_count)",
		&Run{
			Id:           runId,
			FinishedAt:   p.now().UTC(),
			RawCount:     len(raw),
			DedupedCount: len(deduped),
		},
	)
	if err != nil {
		return txEnd(tx, fmt.Errorf("could not save run: %w", err))
	}

	err = txEnd(tx, nil)
	if err != nil {
		return err
	}

	p.l.WithFields(logrus.Fields{"run": runId, "raw": len(raw), "deduped": len(deduped)}).Info("Persisted results")
	return nil
}

func replaceResults(tx *sqlx.Tx, table string, runId string, results []domain.ClassificationResult) error {
	_, err := tx.Exec("DELETE FROM " + table)
	if err != nil {
		return fmt.Errorf("could not clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareNamed(
		"INSERT INTO " + table + " (run_id, source, date, company, sender, subject, category, matched_keyword, body_preview) " +
			"VALUES (:run_id, :source, :date, :company, :sender, :subject, :category, :matched_keyword, :body_preview)",
	)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		_, err = stmt.Exec(resultRow{
			RunId:          runId,
			Source:         r.Source,
			Date:           r.Date,
			Company:        r.Company,
			Sender:         r.Sender,
			Subject:        r.Subject,
			Category:       r.Category.String(),
			MatchedKeyword: r.MatchedKeyword,
			BodyPreview:    r.BodyPreview,
		})
		if err != nil {
			return fmt.Errorf("could not save result into %s: %w", table, err)
		}
	}

	return nil
}

// LastRun returns the most recent export, nil if nothing has been exported yet.
func (p *Persistence) LastRun() (*Run, error) {
	runs := []Run{}
	err := p.db.Select(&runs, "SELECT id, finished_at, raw_count, deduped_count FROM runs ORDER BY finished_at DESC LIMIT 1")
	if err != nil {
		return nil, fmt.Errorf("could not query db: %w", err)
	}
	if len(runs) == 0 {
		return nil, nil
	}

	return &runs[0], nil
}

func txEnd(tx *sqlx.Tx, err error) error {
	if err == nil {
		err = tx.Commit()
		if err != nil {
			return fmt.Errorf("could not commit tx: %w", err)
		}
	} else {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			errStr := err.Error()
			return fmt.Errorf("%s, could not rollback tx: %w", errStr, rollbackErr)
		} else {
			return err
		}
	}

	return nil
}
