package db

import (
	"context"
	"time"

	"brainquest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AdminRepository struct {
	coll *mongo.Collection
}

func NewAdminRepository(database *mongo.Database) *AdminRepository {
	return &AdminRepository{coll: database.Collection(AdminsCollection)}
}

func (r *AdminRepository) FindByUserID(ctx context.Context, userID string) (*models.Admin, error) {
	var a models.Admin
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&a); err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

// Grant creates or updates the admin entry for userID.
func (r *AdminRepository) Grant(ctx context.Context, userID, role string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{
			"$set":         bson.M{"role": role},
			"$setOnInsert": bson.M{"createdAt": time.Now()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
