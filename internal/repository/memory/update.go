package memory

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// applyUpdate mutates doc with an operator update. $setOnInsert only applies
// when inserting.
func applyUpdate(doc bson.M, update bson.M, inserting bool) error {
	for op, arg := range update {
		if !strings.HasPrefix(op, "$") {
			return fmt.Errorf("update document must contain only operators, got %q", op)
		}
		fields, ok := asMap(arg)
		if !ok {
			return fmt.Errorf("%s requires a document", op)
		}
		switch op {
		case "$set":
			for k, v := range fields {
				setPath(doc, k, v)
			}
		case "$setOnInsert":
			if inserting {
				for k, v := range fields {
					setPath(doc, k, v)
				}
			}
		case "$unset":
			for k := range fields {
				unsetPath(doc, k)
			}
		case "$inc":
			for k, v := range fields {
				if err := increment(doc, k, v); err != nil {
					return err
				}
			}
		case "$push":
			for k, v := range fields {
				cur, _ := lookup(doc, k)
				arr, _ := asSlice(cur)
				if cur != nil && arr == nil {
					return fmt.Errorf("$push target %s is not an array", k)
				}
				setPath(doc, k, append(bson.A(arr), v))
			}
		default:
			return fmt.Errorf("unsupported update operator %s", op)
		}
	}
	return nil
}

func increment(doc bson.M, path string, by interface{}) error {
	delta, ok := number(by)
	if !ok {
		return fmt.Errorf("$inc value for %s is not numeric", path)
	}
	cur, exists := lookup(doc, path)
	base := 0.0
	if exists && cur != nil {
		if base, ok = number(cur); !ok {
			return fmt.Errorf("$inc target %s is not numeric", path)
		}
	}
	sum := base + delta
	if isInteger(cur) && isInteger(by) {
		setPath(doc, path, int64(sum))
		return nil
	}
	setPath(doc, path, sum)
	return nil
}

func isInteger(v interface{}) bool {
	switch v.(type) {
	case nil, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

// seedFromFilter builds the initial document of an upsert from the filter's
// plain equality conditions.
func seedFromFilter(filter bson.M) bson.M {
	doc := bson.M{}
	for k, v := range filter {
		if strings.HasPrefix(k, "$") {
			continue
		}
		if ops, isOp := operatorDoc(v); isOp {
			if eq, ok := ops["$eq"]; ok {
				setPath(doc, k, eq)
			}
			continue
		}
		if _, isRegex := v.(primitive.Regex); isRegex {
			continue
		}
		setPath(doc, k, v)
	}
	return doc
}
