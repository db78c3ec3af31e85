package db

import (
	"context"

	"brainquest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BadgeRepository struct {
	coll *mongo.Collection
}

func NewBadgeRepository(database *mongo.Database) *BadgeRepository {
	return &BadgeRepository{coll: database.Collection(BadgesCollection)}
}

func (r *BadgeRepository) ListBadges(ctx context.Context) ([]models.Badge, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	badges := []models.Badge{}
	if err := cursor.All(ctx, &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// UpsertByCondition seeds a badge keyed by its condition; the document id
// stays stable so earned badges keep pointing at it.
func (r *BadgeRepository) UpsertByCondition(ctx context.Context, b models.Badge) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"condition": b.Condition},
		bson.M{"$set": bson.M{"icon": b.Icon, "title": b.Title, "description": b.Description}},
		options.Update().SetUpsert(true),
	)
	return err
}
