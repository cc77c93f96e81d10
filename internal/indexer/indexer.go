// Package indexer groups news records under their nearest inflection point.
package indexer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"InflectionTracker/internal/model"
)

// ErrNoInflections is returned under PolicyError when there is nothing to
// match a record against.
var ErrNoInflections = errors.New("no inflection points to associate with")

// UnmatchedPolicy decides what happens to a record when no inflection
// points exist.
type UnmatchedPolicy string

const (
	PolicyDrop  UnmatchedPolicy = "drop"
	PolicyError UnmatchedPolicy = "error"
)

// ParsePolicy maps a config string to a policy. Empty means PolicyDrop.
func ParsePolicy(s string) (UnmatchedPolicy, error) {
	switch UnmatchedPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicyDrop:
		return PolicyDrop, nil
	case PolicyError:
		return PolicyError, nil
	}
	return "", fmt.Errorf("unknown unmatched policy %q", s)
}

// DateParseError reports a record whose date does not start with YYYY-MM-DD.
type DateParseError struct {
	Position int
	Value    string
	Err      error
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("news record %d: parse date %q: %v", e.Position, e.Value, e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// ParseDate parses the first 10 characters of s as YYYY-MM-DD.
func ParseDate(s string) (time.Time, error) {
	if len(s) < len(model.DateLayout) {
		return time.Time{}, fmt.Errorf("date %q shorter than %d characters", s, len(model.DateLayout))
	}
	return time.Parse(model.DateLayout, s[:len(model.DateLayout)])
}

// Associator assigns news records to their nearest inflection date.
type Associator struct {
	Policy UnmatchedPolicy
}

// NewAssociator returns an Associator using policy.
func NewAssociator(policy UnmatchedPolicy) *Associator {
	return &Associator{Policy: policy}
}

// Associate builds a fresh grouping. Records keep their input order within a
// group, and a group's inflection is taken from its first record's match.
func (a *Associator) Associate(news []model.NewsRecord, points []model.InflectionPoint) (model.Grouping, error) {
	groups := make(model.Grouping)
	for i, rec := range news {
		date, err := ParseDate(rec.PublishedDate)
		if err != nil {
			return nil, &DateParseError{Position: i, Value: rec.PublishedDate, Err: err}
		}
		closest, ok := Closest(date, points)
		if !ok {
			if a.Policy == PolicyError {
				return nil, fmt.Errorf("news record %d (%s): %w", i, rec.PublishedDate, ErrNoInflections)
			}
			continue
		}
		key := closest.DateString()
		grp, exists := groups[key]
		if !exists {
			p := closest
			grp = &model.InflectionGroup{Inflection: &p}
			groups[key] = grp
		}
		grp.News = append(grp.News, rec)
	}
	return groups, nil
}

// Closest returns the point with the smallest absolute day difference to date.
// The first point wins an exact tie.
func Closest(date time.Time, points []model.InflectionPoint) (model.InflectionPoint, bool) {
	var (
		best    model.InflectionPoint
		bestGap = -1
	)
	for _, p := range points {
		gap := dayGap(date, p.Date)
		if bestGap < 0 || gap < bestGap {
			best, bestGap = p, gap
		}
	}
	return best, bestGap >= 0
}

// dayGap counts whole calendar days between a and b, ignoring time of day.
func dayGap(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	days := int((da.Unix() - db.Unix()) / 86400)
	if days < 0 {
		return -days
	}
	return days
}
