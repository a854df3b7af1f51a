// SPDX-License-Identifier: GPL-3.0-or-later
package jobsort

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/CrawX/go-mbox-jobsort/classifier"
	"github.com/CrawX/go-mbox-jobsort/company"
	"github.com/CrawX/go-mbox-jobsort/dedupe"
	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/filter"
	"github.com/CrawX/go-mbox-jobsort/log"
	"github.com/CrawX/go-mbox-jobsort/mail"
	"github.com/CrawX/go-mbox-jobsort/rules"

	"github.com/sirupsen/logrus"
)

// SourceTally holds the counters of a single source.
type SourceTally struct {
	Source string
	Tally  dedupe.Tally

	Messages  int
	Filtered  int
	Dropped   int
	Malformed int
}

type Report struct {
	Raw     []domain.ClassificationResult
	Deduped []domain.ClassificationResult

	PerSource []SourceTally
	Total     dedupe.Tally

	// Filtered by the sender filter, Dropped by the classifier
	Filtered  int
	Dropped   int
	Malformed int

	// Labels of sources that could not be opened
	Skipped []string
}

type JobSort struct {
	senderFilter *filter.SenderFilter
	classifier   *classifier.Classifier

	configuration *configuration

	l *logrus.Logger
}

func NewJobSort(r rules.Rules, configFunc ...ConfigFunc) (*JobSort, error) {
	config := defaultConfiguration()
	for _, f := range configFunc {
		err := f(config)
		if err != nil {
			return nil, fmt.Errorf("error applying configuration: %w", err)
		}
	}

	return &JobSort{
		senderFilter:  filter.NewSenderFilter(r.Blocklists),
		classifier:    classifier.New(r),
		configuration: config,
		l:             log.Logger(log.LOG_JOBSORT),
	}, nil
}

type outcome int

const (
	matched outcome = iota
	filtered
	dropped
)

// Run classifies all messages of all sources, one source after another. Sources that cannot be opened and items
// that cannot be read are logged and skipped, Run itself only fails on programming errors.
func (js *JobSort) Run(sources []domain.MessageSource) (*Report, error) {
	report := &Report{
		Raw:       []domain.ClassificationResult{},
		PerSource: []SourceTally{},
		Skipped:   []string{},
	}

	for _, source := range sources {
		if source == nil {
			return nil, fmt.Errorf("source list contains nil source")
		}

		tally, results, err := js.runSource(source)
		if err != nil {
			js.l.WithFields(logrus.Fields{"source": source.Label(), "error": err}).Warn("Skipping source")
			report.Skipped = append(report.Skipped, source.Label())
			continue
		}

		report.Raw = append(report.Raw, results...)
		report.PerSource = append(report.PerSource, tally)
		report.Filtered += tally.Filtered
		report.Dropped += tally.Dropped
		report.Malformed += tally.Malformed
	}

	report.Deduped = dedupe.Deduplicate(report.Raw, js.configuration.DedupePolicy)
	report.Total = dedupe.Tally{
		Raw:     dedupe.Count(report.Raw),
		Deduped: dedupe.Count(report.Deduped),
	}

	js.l.WithFields(logrus.Fields{
		"sources":  len(report.PerSource),
		"skipped":  len(report.Skipped),
		"raw":      len(report.Raw),
		"deduped":  len(report.Deduped),
		"filtered": report.Filtered,
		"dropped":  report.Dropped,
	}).Info("Classified all sources")

	return report, nil
}

// runSource only returns an error if the source could not be opened.
func (js *JobSort) runSource(source domain.MessageSource) (SourceTally, []domain.ClassificationResult, error) {
	label := source.Label()
	tally := SourceTally{Source: label}
	results := []domain.ClassificationResult{}

	err := source.Open()
	if err != nil {
		var missing *domain.MissingSourceError
		if errors.As(err, &missing) {
			return tally, nil, err
		}
		return tally, nil, fmt.Errorf("could not open source: %w", err)
	}
	defer func() {
		if err := source.Close(); err != nil {
			js.l.WithFields(logrus.Fields{"source": label, "error": err}).Warn("Could not close source")
		}
	}()

	baseLogger := js.l.WithFields(logrus.Fields{"source": label})
	start := time.Now()
	for {
		msg, err := source.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var malformed *domain.MalformedMessageError
			if errors.As(err, &malformed) {
				baseLogger.WithFields(logrus.Fields{"error": err}).Warn("Skipping malformed message")
				tally.Malformed++
				continue
			}

			// the source cannot make progress anymore, keep what has been read so far
			baseLogger.WithFields(logrus.Fields{"error": err}).Warn("Could not read from source, stopping early")
			break
		}

		tally.Messages++
		if js.configuration.ProgressEvery > 0 && tally.Messages%js.configuration.ProgressEvery == 0 {
			baseLogger.WithFields(logrus.Fields{"messages": tally.Messages, "matched": len(results), "duration": time.Since(start)}).Debug("Progress")
		}

		result, o := js.classify(label, msg)
		switch o {
		case filtered:
			tally.Filtered++
		case dropped:
			tally.Dropped++
		case matched:
			results = append(results, *result)
		}
	}

	tally.Tally = dedupe.NewTally(results, js.configuration.DedupePolicy)
	baseLogger.WithFields(logrus.Fields{
		"messages":  tally.Messages,
		"matched":   len(results),
		"filtered":  tally.Filtered,
		"dropped":   tally.Dropped,
		"malformed": tally.Malformed,
		"duration":  time.Since(start),
	}).Info("Classified source")

	return tally, results, nil
}

func (js *JobSort) classify(source string, msg *domain.RawMessage) (*domain.ClassificationResult, outcome) {
	msgLogger := js.l.WithFields(logrus.Fields{"source": source, "subject": mail.ShortSubject(msg.Subject)})

	ok, reason := js.senderFilter.Check(msg.Sender, msg.Subject)
	if !ok {
		msgLogger.WithFields(logrus.Fields{"reason": reason}).Trace("Filtered by sender rules")
		return nil, filtered
	}

	body, decodeErrs := mail.ExtractBody(msg)
	for _, err := range decodeErrs {
		msgLogger.WithFields(logrus.Fields{"error": err}).Debug("Dropped undecodable body part")
	}

	category, keyword := js.classifier.Classify(mail.NormalizedText(msg.Subject, body))
	if category == domain.None {
		return nil, dropped
	}

	result := &domain.ClassificationResult{
		Source:         source,
		Date:           msg.Date,
		Sender:         msg.Sender,
		Company:        company.Normalize(msg.Sender),
		Subject:        msg.Subject,
		Category:       category,
		MatchedKeyword: keyword,
		BodyPreview:    mail.Preview(body, js.configuration.PreviewLength),
	}
	msgLogger.WithFields(logrus.Fields{"category": category, "keyword": keyword, "company": result.Company}).Debug("Classified message")

	return result, matched
}

// Export hands the report to every exporter. A failing exporter does not stop the others, all errors are returned
// joined.
func (js *JobSort) Export(report *Report, exporters ...domain.ResultExporter) error {
	var errs []error
	for _, e := range exporters {
		err := e.Export(report.Raw, report.Deduped)
		if err != nil {
			js.l.WithFields(logrus.Fields{"error": err}).Error("Export failed")
			errs = append(errs, fmt.Errorf("could not export results: %w", err))
		}
	}

	return errors.Join(errs...)
}
