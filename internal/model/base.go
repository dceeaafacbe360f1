package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Base contains common fields for all documents
type Base struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Count is one bucket of a grouped count.
type Count struct {
	Key   string `json:"key" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}

// DailyCount is one day of a time series.
type DailyCount struct {
	Date   string  `json:"date" bson:"_id"`
	Count  int64   `json:"count" bson:"count"`
	Amount float64 `json:"amount,omitempty" bson:"amount,omitempty"`
}

// Counter is a named sequence in the counters collection.
type Counter struct {
	Name string `json:"name" bson:"_id"`
	Seq  int64  `json:"seq" bson:"seq"`
}
