package client

import (
	"strings"

	"github.com/crashteamdev/ke-data-scrapper/internal/domain"
)

// ErrorClass is the crawl taxonomy for upstream search errors.
type ErrorClass int

const (
	// ClassTransientAdvance: unknown error, advance past the page and retry.
	ClassTransientAdvance ErrorClass = iota
	// ClassExhausted: the requested offset is beyond available results, the
	// normal end-of-results condition.
	ClassExhausted
	// ClassRateLimited: upstream throttling, retry the same offset after
	// backoff.
	ClassRateLimited
)

// Classifier pattern-matches upstream error messages. The markers track the
// upstream API's error wording, which is version-dependent; keeping them here
// means revising the strings never touches the cursor/retry algorithm.
type Classifier struct {
	ExhaustedMarkers   []string
	RateLimitedMarkers []string
}

func NewClassifier() *Classifier {
	return &Classifier{
		ExhaustedMarkers:   []string{"offset"},
		RateLimitedMarkers: []string{"429"},
	}
}

func (c *Classifier) Classify(gqlErr domain.GQLError) ErrorClass {
	for _, marker := range c.ExhaustedMarkers {
		if strings.Contains(gqlErr.Message, marker) {
			return ClassExhausted
		}
	}
	for _, marker := range c.RateLimitedMarkers {
		if strings.Contains(gqlErr.Message, marker) {
			return ClassRateLimited
		}
	}
	return ClassTransientAdvance
}
