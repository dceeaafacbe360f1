package repository

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"
)

// ToDocument encodes a record into a generic document.
func ToDocument(v interface{}) (bson.M, error) {
	if m, ok := v.(bson.M); ok {
		return CloneDocument(m)
	}
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return decodeRaw(raw)
}

// FromDocument decodes a generic document into v. Embedded documents held in
// interface fields come back as bson.M.
func FromDocument(m bson.M, v interface{}) error {
	raw, err := bson.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	dec.DefaultDocumentM()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to decode document: %w", err)
	}
	return nil
}

// CloneDocument returns a deep copy of m with store-native value types.
func CloneDocument(m bson.M) (bson.M, error) {
	raw, err := bson.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return decodeRaw(raw)
}

func decodeRaw(raw []byte) (bson.M, error) {
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	dec.DefaultDocumentM()
	out := bson.M{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return out, nil
}

// SetFields turns a patch struct into a $set document, dropping fields the
// struct omits.
func SetFields(patch interface{}) (bson.M, error) {
	m, err := ToDocument(patch)
	if err != nil {
		return nil, err
	}
	delete(m, "_id")
	delete(m, "createdAt")
	return m, nil
}
