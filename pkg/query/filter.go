package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const dateLayout = "2006-01-02"

// Builder accumulates predicates for a single list request. The first
// malformed input is remembered and reported by Build.
type Builder struct {
	preds bson.M
	ors   []bson.A
	err   error
}

func NewFilter() *Builder {
	return &Builder{preds: bson.M{}}
}

// Eq adds an equality predicate. Empty values are ignored.
func (b *Builder) Eq(field, value string) *Builder {
	value = strings.TrimSpace(value)
	if value != "" {
		b.preds[field] = value
	}
	return b
}

// EqValue adds an equality predicate for a non-string value. Nil is ignored.
func (b *Builder) EqValue(field string, value interface{}) *Builder {
	if value != nil {
		b.preds[field] = value
	}
	return b
}

// ID adds an equality predicate on a normalized identifier.
func (b *Builder) ID(field string, id string) *Builder {
	if v := NormalizeID(id); v != nil {
		b.preds[field] = v
	}
	return b
}

// In adds a set membership predicate. An empty set is ignored.
func (b *Builder) In(field string, values ...string) *Builder {
	var set bson.A
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set = append(set, v)
		}
	}
	if len(set) > 0 {
		b.preds[field] = bson.M{"$in": set}
	}
	return b
}

// DateRange adds $gte/$lte bounds on field from raw date strings. Either bound
// may be empty. Date-only upper bounds include the whole day.
func (b *Builder) DateRange(field, start, end string) *Builder {
	var from, to *time.Time
	if start = strings.TrimSpace(start); start != "" {
		t, err := ParseDate(start, false)
		if err != nil {
			b.setErr(fmt.Errorf("invalid startDate: %w", err))
			return b
		}
		from = &t
	}
	if end = strings.TrimSpace(end); end != "" {
		t, err := ParseDate(end, true)
		if err != nil {
			b.setErr(fmt.Errorf("invalid endDate: %w", err))
			return b
		}
		to = &t
	}
	if from != nil && to != nil && to.Before(*from) {
		b.setErr(fmt.Errorf("endDate is before startDate"))
		return b
	}
	return b.Between(field, from, to)
}

// Between adds bounds on field from already parsed times.
func (b *Builder) Between(field string, from, to *time.Time) *Builder {
	rng := bson.M{}
	if from != nil {
		rng["$gte"] = *from
	}
	if to != nil {
		rng["$lte"] = *to
	}
	if len(rng) > 0 {
		b.preds[field] = rng
	}
	return b
}

// Search matches term as a case-insensitive substring of any of fields.
func (b *Builder) Search(term string, fields ...string) *Builder {
	term = strings.TrimSpace(term)
	if term == "" || len(fields) == 0 {
		return b
	}
	rx := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: rx})
	}
	b.ors = append(b.ors, or)
	return b
}

// Merge copies predicates from f, overwriting fields already set.
func (b *Builder) Merge(f bson.M) *Builder {
	for k, v := range f {
		b.preds[k] = v
	}
	return b
}

// Err returns the first malformed input seen so far.
func (b *Builder) Err() error {
	return b.err
}

// Build returns the filter document. With no predicates it matches everything.
func (b *Builder) Build() (bson.M, error) {
	if b.err != nil {
		return nil, b.err
	}
	out := bson.M{}
	for k, v := range b.preds {
		out[k] = v
	}
	switch len(b.ors) {
	case 0:
	case 1:
		out["$or"] = b.ors[0]
	default:
		and := make(bson.A, 0, len(b.ors))
		for _, or := range b.ors {
			and = append(and, bson.M{"$or": or})
		}
		out["$and"] = and
	}
	return out, nil
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// ParseDate accepts RFC 3339 timestamps and YYYY-MM-DD dates. When endOfDay
// is set a date-only value resolves to the last instant of that day.
func ParseDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not an ISO date", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

// ParsePeriod reads a look-back window such as "30d" or "12h". An empty value
// yields fallback.
func ParsePeriod(raw string, fallback time.Duration) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	if len(raw) < 2 {
		return 0, fmt.Errorf("invalid period %q", raw)
	}
	n, err := strconv.Atoi(raw[:len(raw)-1])
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid period %q", raw)
	}
	switch raw[len(raw)-1] {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid period %q", raw)
	}
}
