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

type ChallengeRepository struct {
	coll *mongo.Collection
}

func NewChallengeRepository(database *mongo.Database) *ChallengeRepository {
	return &ChallengeRepository{coll: database.Collection(ChallengesCollection)}
}

func (r *ChallengeRepository) ListDaily(ctx context.Context) ([]models.Challenge, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"isDaily": true}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	challenges := []models.Challenge{}
	if err := cursor.All(ctx, &challenges); err != nil {
		return nil, err
	}
	return challenges, nil
}

// RecordProgress stores the user's progress. An open entry is updated in
// place; a missing entry is pushed; a completed entry is left alone. The
// result is true only for the write that completed the challenge.
func (r *ChallengeRepository) RecordProgress(ctx context.Context, id primitive.ObjectID, entry models.UserProgress) (bool, error) {
	// two rounds cover a concurrent push of the first entry
	for round := 0; round < 2; round++ {
		res, err := r.coll.UpdateOne(ctx,
			openEntryFilter(id, entry.User),
			bson.M{"$set": bson.M{
				"usersComplete.$.progress":    entry.Progress,
				"usersComplete.$.isCompleted": entry.IsCompleted,
				"usersComplete.$.timezone":    entry.Timezone,
				"usersComplete.$.updatedAt":   entry.UpdatedAt,
			}},
		)
		if err != nil {
			return false, err
		}
		if res.MatchedCount > 0 {
			return entry.IsCompleted, nil
		}

		res, err = r.coll.UpdateOne(ctx,
			absentEntryFilter(id, entry.User),
			bson.M{"$push": bson.M{"usersComplete": entry}},
		)
		if err != nil {
			return false, err
		}
		if res.MatchedCount > 0 {
			return entry.IsCompleted, nil
		}

		completed, err := r.coll.CountDocuments(ctx, bson.M{
			"_id":           id,
			"usersComplete": bson.M{"$elemMatch": bson.M{"user": entry.User, "isCompleted": true}},
		})
		if err != nil {
			return false, err
		}
		if completed > 0 {
			return false, nil
		}
	}
	return false, nil
}

// openEntryFilter matches the challenge only while the user's entry is not
// completed, so a finished entry is never written again.
func openEntryFilter(id primitive.ObjectID, userID string) bson.M {
	return bson.M{
		"_id":           id,
		"usersComplete": bson.M{"$elemMatch": bson.M{"user": userID, "isCompleted": false}},
	}
}

func absentEntryFilter(id primitive.ObjectID, userID string) bson.M {
	return bson.M{"_id": id, "usersComplete.user": bson.M{"$ne": userID}}
}

// ResetProgressForTimezone clears daily progress of users in timezone that
// was recorded before boundary. The entry's updatedAt moves to boundary so a
// second run matches nothing.
func (r *ChallengeRepository) ResetProgressForTimezone(ctx context.Context, timezone string, boundary time.Time) error {
	stale := bson.M{"timezone": timezone, "updatedAt": bson.M{"$lt": boundary}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"e.timezone": timezone, "e.updatedAt": bson.M{"$lt": boundary}}},
	})
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"usersComplete": bson.M{"$elemMatch": stale}},
		bson.M{"$set": bson.M{
			"usersComplete.$[e].progress":    0,
			"usersComplete.$[e].isCompleted": false,
			"usersComplete.$[e].updatedAt":   boundary,
		}},
		opts,
	)
	return err
}

func (r *ChallengeRepository) ClearDaily(ctx context.Context) error {
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"isDaily": true},
		bson.M{"$set": bson.M{"isDaily": false, "usersComplete": []models.UserProgress{}}},
	)
	return err
}

func (r *ChallengeRepository) SampleDaily(ctx context.Context, n int) (int, error) {
	return flagSample(ctx, r.coll, n)
}

// UpsertByCondition seeds a challenge definition keyed by its condition
// without touching progress.
func (r *ChallengeRepository) UpsertByCondition(ctx context.Context, c models.Challenge) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"condition": c.Condition},
		bson.M{
			"$set": bson.M{
				"title":  c.Title,
				"task":   c.Task,
				"reward": c.Reward,
				"final":  c.Final,
			},
			"$setOnInsert": bson.M{"isDaily": false, "usersComplete": []models.UserProgress{}},
		},
		options.Update().SetUpsert(true),
	)
	return err
}
