// SPDX-License-Identifier: GPL-3.0-or-later
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/log"

	"github.com/sirupsen/logrus"
)

var Header = []string{"source", "date", "company", "from", "subject", "category", "matched_keyword", "body_preview"}

// CSV writes the raw and the deduplicated results into two files, replacing them if they exist.
type CSV struct {
	rawPath     string
	dedupedPath string

	l *logrus.Logger
}

func NewCSV(rawPath, dedupedPath string) *CSV {
	return &CSV{
		rawPath:     rawPath,
		dedupedPath: dedupedPath,
		l:           log.Logger(log.LOG_EXPORT),
	}
}

func (c *CSV) Export(raw []domain.ClassificationResult, deduped []domain.ClassificationResult) error {
	err := c.writeFile(c.rawPath, raw)
	if err != nil {
		return err
	}

	return c.writeFile(c.dedupedPath, deduped)
}

func (c *CSV) writeFile(path string, results []domain.ClassificationResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create %s: %w", path, err)
	}

	err = WriteResults(f, results)
	if err != nil {
		f.Close()
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	err = f.Close()
	if err != nil {
		return fmt.Errorf("could not close %s: %w", path, err)
	}

	c.l.WithFields(logrus.Fields{"file": path, "rows": len(results)}).Info("Wrote results")
	return nil
}

func WriteResults(w io.Writer, results []domain.ClassificationResult) error {
	cw := csv.NewWriter(w)
	err := cw.Write(Header)
	if err != nil {
		return fmt.Errorf("could not write header: %w", err)
	}

	for _, r := range results {
		err = cw.Write(Row(r))
		if err != nil {
			return fmt.Errorf("could not write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Row returns the columns of r in the order of Header.
func Row(r domain.ClassificationResult) []string {
	return []string{
		r.Source,
		r.Date,
		r.Company,
		r.Sender,
		r.Subject,
		r.Category.String(),
		r.MatchedKeyword,
		r.BodyPreview,
	}
}
