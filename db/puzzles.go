package db

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"brainquest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// dailyEpoch anchors the fallback daily puzzle index
var dailyEpoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type PuzzleRepository struct {
	coll *mongo.Collection
}

func NewPuzzleRepository(database *mongo.Database) *PuzzleRepository {
	return &PuzzleRepository{coll: database.Collection(PuzzlesCollection)}
}

func (r *PuzzleRepository) FindPuzzle(ctx context.Context, id primitive.ObjectID) (*models.Puzzle, error) {
	var p models.Puzzle
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PuzzleRepository) CreatePuzzle(ctx context.Context, p *models.Puzzle) error {
	now := time.Now()
	p.CreatedAt, p.UpdatedAt = now, now
	for _, list := range []*[]string{&p.Likes, &p.Dislikes, &p.Attempts, &p.Successes, &p.DailyAttempts, &p.DailySuccesses} {
		if *list == nil {
			*list = []string{}
		}
	}
	if p.Comments == nil {
		p.Comments = []models.PuzzleComment{}
	}
	res, err := r.coll.InsertOne(ctx, p)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		p.ID = id
	}
	return nil
}

// DeletePuzzle removes a puzzle owned by ownerID and returns the removed
// document so its image can be released.
func (r *PuzzleRepository) DeletePuzzle(ctx context.Context, id primitive.ObjectID, ownerID string) (*models.Puzzle, error) {
	p, err := r.FindPuzzle(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Creator.ID != ownerID {
		return nil, models.ErrForbidden
	}
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "creator.id": ownerID}); err != nil {
		return nil, err
	}
	return p, nil
}

func buildPuzzleQuery(f models.PuzzleFilter) bson.M {
	query := bson.M{}
	switch {
	case f.CreatorID != "":
		query["creator.id"] = f.CreatorID
	case f.ExcludeCreatorID != "":
		query["creator.id"] = bson.M{"$ne": f.ExcludeCreatorID}
	}
	if len(f.Categories) > 0 {
		query["category"] = bson.M{"$in": f.Categories}
	}
	if len(f.Difficulties) > 0 {
		query["difficulty"] = bson.M{"$in": f.Difficulties}
	}
	if f.Search != "" {
		query["question"] = bson.M{"$regex": regexp.QuoteMeta(f.Search), "$options": "i"}
	}
	return query
}

func (r *PuzzleRepository) find(ctx context.Context, query bson.M, opts *options.FindOptions) ([]models.Puzzle, error) {
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	puzzles := []models.Puzzle{}
	if err := cursor.All(ctx, &puzzles); err != nil {
		return nil, err
	}
	return puzzles, nil
}

func (r *PuzzleRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.Puzzle, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	puzzles := []models.Puzzle{}
	if err := cursor.All(ctx, &puzzles); err != nil {
		return nil, err
	}
	return puzzles, nil
}

// ListPuzzles returns every puzzle matching the filter.
func (r *PuzzleRepository) ListPuzzles(ctx context.Context, f models.PuzzleFilter) ([]models.Puzzle, error) {
	return r.find(ctx, buildPuzzleQuery(f), options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}))
}

// Page returns one newest-first page of the matching puzzles.
func (r *PuzzleRepository) Page(ctx context.Context, f models.PuzzleFilter, skip, limit int64) ([]models.Puzzle, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	return r.find(ctx, buildPuzzleQuery(f), opts)
}

func (r *PuzzleRepository) Count(ctx context.Context, f models.PuzzleFilter) (int64, error) {
	return r.coll.CountDocuments(ctx, buildPuzzleQuery(f))
}

// Popular ranks other users' puzzles by attempt count, newest first on ties.
func (r *PuzzleRepository) Popular(ctx context.Context, excludeCreatorID string, limit int64) ([]models.Puzzle, error) {
	return r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"creator.id": bson.M{"$ne": excludeCreatorID}}}},
		{{Key: "$addFields", Value: bson.M{"attemptCount": bson.M{"$size": bson.M{"$ifNull": bson.A{"$attempts", bson.A{}}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "attemptCount", Value: -1}, {Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	})
}

// Sample draws random puzzles matching the filter.
func (r *PuzzleRepository) Sample(ctx context.Context, f models.PuzzleFilter, size int) ([]models.Puzzle, error) {
	return r.aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: buildPuzzleQuery(f)}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
	})
}

// DailyPuzzle returns the flagged daily puzzle. Before the first rotation it
// falls back to a deterministic pick by days since a fixed epoch.
func (r *PuzzleRepository) DailyPuzzle(ctx context.Context, now time.Time) (*models.Puzzle, error) {
	var p models.Puzzle
	err := r.coll.FindOne(ctx, bson.M{"isDaily": true}).Decode(&p)
	if err == nil {
		return &p, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, models.ErrNotFound
	}
	days := int64(now.Sub(dailyEpoch) / (24 * time.Hour))
	if days < 0 {
		days = -days
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(days % total)
	if err := r.coll.FindOne(ctx, bson.M{}, opts).Decode(&p); err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PuzzleRepository) updateByID(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *PuzzleRepository) AddComment(ctx context.Context, id primitive.ObjectID, c models.PuzzleComment) error {
	return r.updateByID(ctx, id, bson.M{
		"$push": bson.M{"comments": c},
		"$set":  bson.M{"updatedAt": time.Now()},
	})
}

// SetReaction records a like or dislike, clearing the opposite one. With
// undo set it only withdraws the reaction.
func (r *PuzzleRepository) SetReaction(ctx context.Context, id primitive.ObjectID, userID string, like, undo bool) error {
	field, opposite := "likes", "dislikes"
	if !like {
		field, opposite = opposite, field
	}
	if undo {
		return r.updateByID(ctx, id, bson.M{"$pull": bson.M{field: userID}})
	}
	return r.updateByID(ctx, id, bson.M{
		"$addToSet": bson.M{field: userID},
		"$pull":     bson.M{opposite: userID},
	})
}

// RecordAttempt claims the user's attempt on the puzzle, adding the user to
// the success set too when correct. Daily answers go to the daily sets. It
// reports false when the user was already in the attempt set, so only one
// of several concurrent submissions wins.
func (r *PuzzleRepository) RecordAttempt(ctx context.Context, id primitive.ObjectID, userID string, daily, correct bool) (bool, error) {
	filter, update := attemptClaim(id, userID, daily, correct)
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func attemptClaim(id primitive.ObjectID, userID string, daily, correct bool) (bson.M, bson.M) {
	attempts, successes := "attempts", "successes"
	if daily {
		attempts, successes = "dailyAttempts", "dailySuccesses"
	}
	add := bson.M{attempts: userID}
	if correct {
		add[successes] = userID
	}
	return bson.M{"_id": id, attempts: bson.M{"$ne": userID}}, bson.M{"$addToSet": add}
}

func (r *PuzzleRepository) ClearDaily(ctx context.Context) error {
	filter := bson.M{"$or": bson.A{
		bson.M{"isDaily": true},
		bson.M{"dailyAttempts.0": bson.M{"$exists": true}},
	}}
	update := bson.M{"$set": bson.M{
		"isDaily":        false,
		"dailyAttempts":  []string{},
		"dailySuccesses": []string{},
	}}
	_, err := r.coll.UpdateMany(ctx, filter, update)
	return err
}

func (r *PuzzleRepository) SampleDaily(ctx context.Context, n int) (int, error) {
	return flagSample(ctx, r.coll, n)
}

// flagSample marks n randomly chosen documents of coll as daily.
func flagSample(ctx context.Context, coll *mongo.Collection, n int) (int, error) {
	if n <= 0 {
		return 0, nil
	}
	cursor, err := coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sample", Value: bson.M{"size": n}}},
		{{Key: "$project", Value: bson.M{"_id": 1}}},
	})
	if err != nil {
		return 0, fmt.Errorf("sample: %w", err)
	}
	var picked []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &picked); err != nil {
		return 0, err
	}
	if len(picked) == 0 {
		return 0, nil
	}
	ids := make([]primitive.ObjectID, len(picked))
	for i, p := range picked {
		ids[i] = p.ID
	}
	res, err := coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, bson.M{"$set": bson.M{"isDaily": true}})
	if err != nil {
		return 0, err
	}
	return int(res.ModifiedCount), nil
}
