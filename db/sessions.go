package db

import (
	"context"
	"time"

	"brainquest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SessionRepository struct {
	coll *mongo.Collection
}

func NewSessionRepository(database *mongo.Database) *SessionRepository {
	return &SessionRepository{coll: database.Collection(SessionsCollection)}
}

func (r *SessionRepository) CreateSession(ctx context.Context, s *models.TrainingSession) error {
	res, err := r.coll.InsertOne(ctx, s)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		s.ID = id
	}
	return nil
}

func (r *SessionRepository) BestPointsSince(ctx context.Context, userID string, since time.Time) (int, bool, error) {
	var s models.TrainingSession
	err := r.coll.FindOne(ctx,
		bson.M{"user": userID, "createdAt": bson.M{"$gte": since}},
		options.FindOne().SetSort(bson.D{{Key: "pointsEarned", Value: -1}}),
	).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return s.PointsEarned, true, nil
}

// ListSessions returns the user's sessions, newest first.
func (r *SessionRepository) ListSessions(ctx context.Context, userID string) ([]models.TrainingSession, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"user": userID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	sessions := []models.TrainingSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *SessionRepository) DeleteSession(ctx context.Context, id primitive.ObjectID, userID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "user": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *SessionRepository) ClearSessions(ctx context.Context, userID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
