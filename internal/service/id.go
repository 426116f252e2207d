package service

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9]+`)
	validID = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
)

// Slugify lowercases name and collapses every run of other characters into a single underscore.
func Slugify(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "prd"
	}
	return s
}

// IDGenerator derives document identifiers as <slug>_<unix micros>. Suffixes handed out by one
// generator are strictly increasing, so a single process never repeats an identifier.
type IDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewIDGenerator returns a generator reading the wall clock.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns a new identifier for name.
func (g *IDGenerator) Next(name string) string {
	return fmt.Sprintf("%s_%d", Slugify(name), g.nextSuffix())
}

func (g *IDGenerator) nextSuffix() int64 {
	for {
		last := g.last.Load()
		next := g.now().UnixMicro()
		if next <= last {
			next = last + 1
		}
		if g.last.CompareAndSwap(last, next) {
			return next
		}
	}
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: prd_id is required", ErrValidation)
	}
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: invalid prd_id %q", ErrValidation, id)
	}
	return nil
}
