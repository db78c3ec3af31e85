package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the queries below rely on. Creating an
// existing index is a no-op.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "checkNewDay.timezone", Value: 1}, {Key: "checkNewDay.lastChecked", Value: 1}}},
			{Keys: bson.D{{Key: "enableLeaderboard", Value: 1}, {Key: "points", Value: -1}}},
		},
		PuzzlesCollection: {
			{Keys: bson.D{{Key: "creator.id", Value: 1}, {Key: "_id", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "isDaily", Value: 1}}},
		},
		ChallengesCollection: {
			{Keys: bson.D{{Key: "isDaily", Value: 1}}},
		},
		SessionsCollection: {
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		AdminsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for name, models := range specs {
		if _, err := database.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
