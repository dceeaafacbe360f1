package memory

import (
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// matches evaluates a query filter against doc.
func matches(doc bson.M, filter bson.M) (bool, error) {
	for key, cond := range filter {
		switch key {
		case "$or", "$and", "$nor":
			subs, ok := asSlice(cond)
			if !ok {
				return false, fmt.Errorf("%s requires an array", key)
			}
			ok, err := logical(doc, key, subs)
			if err != nil || !ok {
				return false, err
			}
			continue
		}
		if strings.HasPrefix(key, "$") {
			return false, fmt.Errorf("unsupported top-level operator %s", key)
		}
		val, exists := lookup(doc, key)
		ok, err := matchField(val, exists, cond)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func logical(doc bson.M, op string, subs []interface{}) (bool, error) {
	for _, s := range subs {
		sub, ok := asMap(s)
		if !ok {
			return false, fmt.Errorf("%s entries must be documents", op)
		}
		hit, err := matches(doc, sub)
		if err != nil {
			return false, err
		}
		switch {
		case op == "$or" && hit:
			return true, nil
		case op == "$and" && !hit:
			return false, nil
		case op == "$nor" && hit:
			return false, nil
		}
	}
	return op != "$or", nil
}

func matchField(val interface{}, exists bool, cond interface{}) (bool, error) {
	if rx, ok := cond.(primitive.Regex); ok {
		return matchRegex(val, rx.Pattern, rx.Options)
	}
	if ops, ok := operatorDoc(cond); ok {
		for op, arg := range ops {
			hit, err := applyOperator(val, exists, op, arg, ops)
			if err != nil || !hit {
				return false, err
			}
		}
		return true, nil
	}
	if cond == nil {
		return !exists || val == nil, nil
	}
	return equalOrContains(val, cond), nil
}

// operatorDoc reports whether cond is a document of $-operators.
func operatorDoc(cond interface{}) (bson.M, bool) {
	m, ok := asMap(cond)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for k := range m {
		if !strings.HasPrefix(k, "$") {
			return nil, false
		}
	}
	return m, true
}

func applyOperator(val interface{}, exists bool, op string, arg interface{}, ops bson.M) (bool, error) {
	switch op {
	case "$eq":
		if arg == nil {
			return !exists || val == nil, nil
		}
		return equalOrContains(val, arg), nil
	case "$ne":
		if arg == nil {
			return exists && val != nil, nil
		}
		return !equalOrContains(val, arg), nil
	case "$gt", "$gte", "$lt", "$lte":
		if !exists {
			return false, nil
		}
		c, ok := compare(val, arg)
		if !ok {
			return false, nil
		}
		switch op {
		case "$gt":
			return c > 0, nil
		case "$gte":
			return c >= 0, nil
		case "$lt":
			return c < 0, nil
		default:
			return c <= 0, nil
		}
	case "$in", "$nin":
		set, ok := asSlice(arg)
		if !ok {
			return false, fmt.Errorf("%s requires an array", op)
		}
		hit := false
		for _, want := range set {
			if rx, ok := want.(primitive.Regex); ok {
				if m, _ := matchRegex(val, rx.Pattern, rx.Options); m {
					hit = true
					break
				}
				continue
			}
			if (want == nil && (!exists || val == nil)) || equalOrContains(val, want) {
				hit = true
				break
			}
		}
		if op == "$in" {
			return hit, nil
		}
		return !hit, nil
	case "$exists":
		want, _ := arg.(bool)
		return exists == want, nil
	case "$regex":
		opts, _ := ops["$options"].(string)
		switch p := arg.(type) {
		case string:
			return matchRegex(val, p, opts)
		case primitive.Regex:
			if opts == "" {
				opts = p.Options
			}
			return matchRegex(val, p.Pattern, opts)
		}
		return false, fmt.Errorf("$regex requires a string pattern")
	case "$options":
		return true, nil
	case "$not":
		inner, ok := operatorDoc(arg)
		if !ok {
			return false, fmt.Errorf("$not requires an operator document")
		}
		hit, err := matchField(val, exists, inner)
		return !hit, err
	}
	return false, fmt.Errorf("unsupported operator %s", op)
}

func equalOrContains(val, want interface{}) bool {
	if equal(val, want) {
		return true
	}
	if arr, ok := asSlice(val); ok {
		for _, el := range arr {
			if equal(el, want) {
				return true
			}
		}
	}
	return false
}

func matchRegex(val interface{}, pattern, options string) (bool, error) {
	flags := ""
	for _, o := range options {
		switch o {
		case 'i', 'm', 's':
			flags += string(o)
		}
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	rx, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Errorf("invalid regex: %w", err)
	}
	if arr, ok := asSlice(val); ok {
		for _, el := range arr {
			if s, ok := el.(string); ok && rx.MatchString(s) {
				return true, nil
			}
		}
		return false, nil
	}
	s, ok := val.(string)
	return ok && rx.MatchString(s), nil
}
