package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/backoffice-api/internal/repository"
)

func desc(field string) mongo.IndexModel {
	return mongo.IndexModel{Keys: bson.D{{Key: field, Value: -1}}}
}

func unique(fields ...string) mongo.IndexModel {
	keys := bson.D{}
	for _, f := range fields {
		keys = append(keys, bson.E{Key: f, Value: 1})
	}
	return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
}

// indexes lists the indexes backing the list sorts and lookups. Unique
// indexes come from repository.UniqueKeys.
var indexes = map[string][]mongo.IndexModel{
	repository.CollAuditLogs:      {desc("timestamp"), {Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}}},
	repository.CollSecurityEvents: {desc("timestamp")},
	repository.CollUserActivities: {{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}}}},
	repository.CollBookings: {
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "scheduledAt", Value: -1}}},
		{Keys: bson.D{{Key: "mechanicId", Value: 1}, {Key: "scheduledAt", Value: -1}}},
	},
	repository.CollPayments:        {{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}}},
	repository.CollAlerts:          {desc("timestamp")},
	repository.CollChatMessages:    {{Keys: bson.D{{Key: "channelId", Value: 1}, {Key: "timestamp", Value: -1}}}},
	repository.CollChatChannels:    {desc("lastActivity")},
	repository.CollJobApplications: {desc("createdAt")},
}

// models returns every index of the named collection.
func models(name string) []mongo.IndexModel {
	out := append([]mongo.IndexModel(nil), indexes[name]...)
	for _, fields := range repository.UniqueKeys[name] {
		out = append(out, unique(fields...))
	}
	return out
}

// EnsureIndexes creates the indexes the repository queries rely on. Existing
// indexes with the same keys are left untouched.
func (d *DB) EnsureIndexes(ctx context.Context) error {
	names := map[string]bool{}
	for name := range indexes {
		names[name] = true
	}
	for name := range repository.UniqueKeys {
		names[name] = true
	}
	for name := range names {
		if _, err := d.db.Collection(name).Indexes().CreateMany(ctx, models(name)); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}
