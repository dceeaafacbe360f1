package query

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NormalizeID converts an identifier to its native ObjectID form when it can.
// Empty input yields nil. Values that are neither ObjectIDs nor well-formed
// hex strings are returned unchanged so the store rejects them as no match.
func NormalizeID(id interface{}) interface{} {
	switch v := id.(type) {
	case nil:
		return nil
	case primitive.ObjectID:
		if v.IsZero() {
			return nil
		}
		return v
	case *primitive.ObjectID:
		if v == nil || v.IsZero() {
			return nil
		}
		return *v
	case string:
		if v == "" {
			return nil
		}
		if oid, err := primitive.ObjectIDFromHex(v); err == nil {
			return oid
		}
		return v
	default:
		return id
	}
}

// StringifyID is the inverse of NormalizeID. Nil yields "".
func StringifyID(id interface{}) string {
	switch v := id.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		if v.IsZero() {
			return ""
		}
		return v.Hex()
	case *primitive.ObjectID:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ObjectID normalizes id and reports whether the result is a native ObjectID.
func ObjectID(id interface{}) (primitive.ObjectID, bool) {
	oid, ok := NormalizeID(id).(primitive.ObjectID)
	return oid, ok
}
