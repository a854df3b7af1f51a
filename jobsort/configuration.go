// SPDX-License-Identifier: GPL-3.0-or-later
package jobsort

import (
	"fmt"

	"github.com/CrawX/go-mbox-jobsort/dedupe"
)

const DefaultPreviewLength = 200

type ConfigFunc func(c *configuration) error

func WithDedupePolicy(policy string) ConfigFunc {
	return func(c *configuration) error {
		p, err := dedupe.ParsePolicy(policy)
		if err != nil {
			return err
		}

		c.DedupePolicy = p
		return nil
	}
}

func WithPreviewLength(length int) ConfigFunc {
	return func(c *configuration) error {
		if length <= 0 {
			return fmt.Errorf("PreviewLength must be positive, got %d", length)
		}

		c.PreviewLength = length
		return nil
	}
}

// WithProgressEvery logs a debug line every n messages read from a source.
func WithProgressEvery(n int) ConfigFunc {
	return func(c *configuration) error {
		if n <= 0 {
			return fmt.Errorf("ProgressEvery must be positive, got %d", n)
		}

		c.ProgressEvery = n
		return nil
	}
}

type configuration struct {
	DedupePolicy  dedupe.Policy
	PreviewLength int

	// 0 disables progress logging
	ProgressEvery int
}

func defaultConfiguration() *configuration {
	return &configuration{
		DedupePolicy:  dedupe.LastWins,
		PreviewLength: DefaultPreviewLength,
	}
}
