// SPDX-License-Identifier: GPL-3.0-or-later
package main

import (
	"fmt"

	"github.com/CrawX/go-mbox-jobsort/config"
	"github.com/CrawX/go-mbox-jobsort/domain"
	"github.com/CrawX/go-mbox-jobsort/export"
	"github.com/CrawX/go-mbox-jobsort/imapconnection"
	"github.com/CrawX/go-mbox-jobsort/jobsort"
	"github.com/CrawX/go-mbox-jobsort/log"
	"github.com/CrawX/go-mbox-jobsort/mbox"
	"github.com/CrawX/go-mbox-jobsort/persistence"
	"github.com/CrawX/go-mbox-jobsort/report"
	"github.com/CrawX/go-mbox-jobsort/rules"

	"github.com/sirupsen/logrus"
)

const progressEvery = 500

func main() {
	log.InitLogging("info")
	logger := log.Logger(log.LOG_MAIN)

	err := config.LoadDotEnv()
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load environment")
	}

	conf, err := config.ReadConfig(config.ConfigFile())
	if err != nil {
		logger.WithField("error", err).Fatal("Could not load config")
	}

	if conf.Loglevel != nil {
		err = log.SetLogLevel(*conf.Loglevel)
		if err != nil {
			logger.WithField("error", err).Fatal("Could not set log level")
		}
	}

	r := rules.Default()
	if conf.RulesFile != "" {
		r, err = rules.LoadFile(conf.RulesFile)
		if err != nil {
			logger.WithField("error", err).Fatal("Could not load rules")
		}
		logger.WithField("file", conf.RulesFile).Info("Loaded rules")
	}

	exporters := []domain.ResultExporter{export.NewCSV(conf.RawOutput, conf.DedupedOutput)}
	if conf.Database != "" {
		p, err := persistence.NewPersistence(conf.Database)
		if err != nil {
			logger.WithField("error", err).Fatal("Could not connect to database")
		}
		defer p.Close()
		exporters = append(exporters, p)
	}

	js, err := jobsort.NewJobSort(
		r,
		jobsort.WithDedupePolicy(conf.DedupePolicy),
		jobsort.WithPreviewLength(conf.PreviewLength),
		jobsort.WithProgressEvery(progressEvery),
	)
	if err != nil {
		logger.WithField("error", err).Fatal("Could not start classifier")
	}

	sources := []domain.MessageSource{}
	for _, s := range conf.Sources {
		switch s.Type {
		case config.SourceMbox:
			sources = append(sources, mbox.NewSource(s.Label, s.Path))
		case config.SourceImap:
			sources = append(sources, imapconnection.NewSource(s.Label, s.ImapHost, s.User, s.Password, s.Folders, s.Recursive))
		}
	}

	logger.WithFields(logrus.Fields{"sources": len(sources), "policy": conf.DedupePolicy}).Info("Classifying mails")
	result, err := js.Run(sources)
	if err != nil {
		logger.WithField("error", err).Fatal("Classifying mails failed")
	}

	err = js.Export(result, exporters...)
	if err != nil {
		logger.WithField("error", err).Fatal("Exporting results failed")
	}

	fmt.Print(report.Summary(result))
}
