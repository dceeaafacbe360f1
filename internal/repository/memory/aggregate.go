package memory

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func runPipeline(docs []bson.M, pipeline []bson.M) ([]bson.M, error) {
	for i, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("pipeline stage %d must have exactly one operator", i)
		}
		for op, arg := range stage {
			var err error
			switch op {
			case "$match":
				f, ok := asMap(arg)
				if !ok {
					return nil, fmt.Errorf("$match requires a document")
				}
				docs, err = filterDocs(docs, f)
			case "$group":
				spec, ok := asMap(arg)
				if !ok {
					return nil, fmt.Errorf("$group requires a document")
				}
				docs, err = group(docs, spec)
			case "$sort":
				keys, kerr := sortKeys(arg)
				if kerr != nil {
					return nil, kerr
				}
				sortDocs(docs, keys)
			case "$limit":
				n, ok := number(arg)
				if !ok || n < 0 {
					return nil, fmt.Errorf("$limit requires a non-negative number")
				}
				if int(n) < len(docs) {
					docs = docs[:int(n)]
				}
			case "$skip":
				n, ok := number(arg)
				if !ok || n < 0 {
					return nil, fmt.Errorf("$skip requires a non-negative number")
				}
				if int(n) >= len(docs) {
					docs = nil
				} else {
					docs = docs[int(n):]
				}
			case "$count":
				name, ok := arg.(string)
				if !ok || name == "" {
					return nil, fmt.Errorf("$count requires a field name")
				}
				if len(docs) == 0 {
					docs = nil
				} else {
					docs = []bson.M{{name: int64(len(docs))}}
				}
			default:
				return nil, fmt.Errorf("unsupported pipeline stage %s", op)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return docs, nil
}

func filterDocs(docs []bson.M, filter bson.M) ([]bson.M, error) {
	out := make([]bson.M, 0, len(docs))
	for _, d := range docs {
		ok, err := matches(d, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, d)
		}
	}
	return out, nil
}

type accumulator struct {
	op     string
	expr   interface{}
	sum    float64
	allInt bool
	n      int64
	val    interface{}
	set    []interface{}
	seen   bool
}

func group(docs []bson.M, spec bson.M) ([]bson.M, error) {
	idExpr, ok := spec["_id"]
	if !ok {
		return nil, fmt.Errorf("$group requires an _id expression")
	}

	type bucket struct {
		id   interface{}
		accs map[string]*accumulator
	}
	var order []string
	buckets := map[string]*bucket{}

	for _, d := range docs {
		id, err := eval(d, idExpr)
		if err != nil {
			return nil, err
		}
		key, err := groupKey(id)
		if err != nil {
			return nil, err
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{id: id, accs: map[string]*accumulator{}}
			for field, raw := range spec {
				if field == "_id" {
					continue
				}
				acc, err := newAccumulator(field, raw)
				if err != nil {
					return nil, err
				}
				b.accs[field] = acc
			}
			buckets[key] = b
			order = append(order, key)
		}
		for _, acc := range b.accs {
			if err := acc.add(d); err != nil {
				return nil, err
			}
		}
	}

	out := make([]bson.M, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		row := bson.M{"_id": b.id}
		for field, acc := range b.accs {
			row[field] = acc.result()
		}
		out = append(out, row)
	}
	return out, nil
}

func newAccumulator(field string, raw interface{}) (*accumulator, error) {
	m, ok := asMap(raw)
	if !ok || len(m) != 1 {
		return nil, fmt.Errorf("$group field %s must be a single accumulator", field)
	}
	for op, expr := range m {
		switch op {
		case "$sum", "$avg", "$min", "$max", "$first", "$addToSet", "$push":
			return &accumulator{op: op, expr: expr, allInt: true}, nil
		}
		return nil, fmt.Errorf("unsupported accumulator %s", op)
	}
	return nil, nil
}

func (a *accumulator) add(doc bson.M) error {
	v, err := eval(doc, a.expr)
	if err != nil {
		return err
	}
	switch a.op {
	case "$sum", "$avg":
		if f, ok := number(v); ok {
			a.sum += f
			a.n++
			if !isInteger(v) {
				a.allInt = false
			}
		}
	case "$min", "$max":
		if v == nil {
			return nil
		}
		if !a.seen {
			a.val, a.seen = v, true
			return nil
		}
		c := sortCompare(v, a.val)
		if (a.op == "$min" && c < 0) || (a.op == "$max" && c > 0) {
			a.val = v
		}
	case "$first":
		if !a.seen {
			a.val, a.seen = v, true
		}
	case "$addToSet":
		for _, existing := range a.set {
			if equal(existing, v) {
				return nil
			}
		}
		a.set = append(a.set, v)
	case "$push":
		a.set = append(a.set, v)
	}
	return nil
}

func (a *accumulator) result() interface{} {
	switch a.op {
	case "$sum":
		if a.allInt {
			return int64(a.sum)
		}
		return a.sum
	case "$avg":
		if a.n == 0 {
			return nil
		}
		return a.sum / float64(a.n)
	case "$addToSet", "$push":
		return bson.A(a.set)
	default:
		return a.val
	}
}

// eval resolves an aggregation expression against doc.
func eval(doc bson.M, expr interface{}) (interface{}, error) {
	switch e := expr.(type) {
	case string:
		if strings.HasPrefix(e, "$") {
			v, _ := lookup(doc, e[1:])
			return v, nil
		}
		return e, nil
	case bson.M, map[string]interface{}, bson.D:
		m, _ := asMap(e)
		if ops, isOp := operatorDoc(m); isOp && len(ops) == 1 {
			for op, arg := range ops {
				return evalOperator(doc, op, arg)
			}
		}
		out := bson.M{}
		for k, sub := range m {
			v, err := eval(doc, sub)
			if err != nil {
				return nil, err
			}
			out[k] = v
		}
		return out, nil
	default:
		return expr, nil
	}
}

func evalOperator(doc bson.M, op string, arg interface{}) (interface{}, error) {
	switch op {
	case "$dateToString":
		spec, ok := asMap(arg)
		if !ok {
			return nil, fmt.Errorf("$dateToString requires a document")
		}
		format, _ := spec["format"].(string)
		if format == "" {
			format = "%Y-%m-%dT%H:%M:%S.%LZ"
		}
		v, err := eval(doc, spec["date"])
		if err != nil {
			return nil, err
		}
		t, ok := scalar(v).(time.Time)
		if !ok {
			return nil, nil
		}
		return formatDate(t, format), nil
	case "$year", "$month", "$dayOfMonth":
		v, err := eval(doc, arg)
		if err != nil {
			return nil, err
		}
		t, ok := scalar(v).(time.Time)
		if !ok {
			return nil, nil
		}
		switch op {
		case "$year":
			return int32(t.Year()), nil
		case "$month":
			return int32(t.Month()), nil
		default:
			return int32(t.Day()), nil
		}
	case "$literal":
		return arg, nil
	}
	return nil, fmt.Errorf("unsupported expression operator %s", op)
}

var dateDirectives = strings.NewReplacer(
	"%Y", "2006",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%M", "04",
	"%S", "05",
	"%L", "000",
	"%%", "%",
)

func formatDate(t time.Time, format string) string {
	return t.UTC().Format(dateDirectives.Replace(format))
}

func groupKey(id interface{}) (string, error) {
	raw, err := bson.Marshal(bson.M{"k": normalizeKey(id)})
	if err != nil {
		return "", fmt.Errorf("invalid group key: %w", err)
	}
	return string(raw), nil
}

// normalizeKey makes numerically equal keys of different widths collide.
func normalizeKey(v interface{}) interface{} {
	if m, ok := asMap(v); ok {
		d := bson.D{}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			d = append(d, bson.E{Key: k, Value: normalizeKey(m[k])})
		}
		return d
	}
	return scalar(v)
}
