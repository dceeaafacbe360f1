package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jwalitptl/backoffice-api/internal/model"
)

// DayFormat buckets timestamps by calendar day.
const DayFormat = "%Y-%m-%d"

// CountBy groups the documents matching match by field, largest bucket
// first. A positive limit keeps only the top buckets.
func CountBy(match bson.M, field string, limit int) []bson.M {
	pipeline := []bson.M{
		{"$match": orEmpty(match)},
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}},
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.M{"$limit": limit})
	}
	return pipeline
}

// Daily groups the documents matching match by the day of dateField in
// ascending order. When amountField is set each day also sums it.
func Daily(match bson.M, dateField, amountField string) []bson.M {
	grp := bson.M{
		"_id":   bson.M{"$dateToString": bson.M{"format": DayFormat, "date": "$" + dateField}},
		"count": bson.M{"$sum": 1},
	}
	if amountField != "" {
		grp["amount"] = bson.M{"$sum": "$" + amountField}
	}
	return []bson.M{
		{"$match": orEmpty(match)},
		{"$group": grp},
		{"$sort": bson.M{"_id": 1}},
	}
}

// Sum adds up field over the documents matching match.
func Sum(match bson.M, field string) []bson.M {
	return []bson.M{
		{"$match": orEmpty(match)},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$" + field}, "count": bson.M{"$sum": 1}}},
	}
}

// Distinct counts the distinct non-empty values of field over the documents
// matching match.
func Distinct(match bson.M, field string) []bson.M {
	m := bson.M{field: bson.M{"$nin": bson.A{nil, ""}}}
	for k, v := range match {
		if k != field {
			m[k] = v
		}
	}
	return []bson.M{
		{"$match": m},
		{"$group": bson.M{"_id": "$" + field}},
		{"$count": "count"},
	}
}

// Total is the single row produced by Sum.
type Total struct {
	Total float64 `bson:"total"`
	Count int64   `bson:"count"`
}

// Counts runs CountBy on f.
func Counts[T any](ctx context.Context, f *Facade[T], match bson.M, field string, limit int) ([]model.Count, error) {
	return AggregateAs[model.Count](ctx, f, CountBy(match, field, limit))
}

// DailyCounts runs Daily on f.
func DailyCounts[T any](ctx context.Context, f *Facade[T], match bson.M, dateField, amountField string) ([]model.DailyCount, error) {
	return AggregateAs[model.DailyCount](ctx, f, Daily(match, dateField, amountField))
}

// SumOf runs Sum on f. No matching documents yields a zero Total.
func SumOf[T any](ctx context.Context, f *Facade[T], match bson.M, field string) (Total, error) {
	rows, err := AggregateAs[Total](ctx, f, Sum(match, field))
	if err != nil || len(rows) == 0 {
		return Total{}, err
	}
	return rows[0], nil
}

// DistinctCount runs Distinct on f.
func DistinctCount[T any](ctx context.Context, f *Facade[T], match bson.M, field string) (int64, error) {
	rows, err := AggregateAs[struct {
		Count int64 `bson:"count"`
	}](ctx, f, Distinct(match, field))
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Count, nil
}
