package db

import (
	"context"
	"fmt"
	"time"

	"brainquest/internal/stats"
	"brainquest/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{coll: database.Collection(UsersCollection)}
}

func (r *UserRepository) FindUser(ctx context.Context, userID string) (*models.User, error) {
	var u models.User
	if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(&u); err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepository) CreateUser(ctx context.Context, u *models.User) error {
	res, err := r.coll.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrAlreadyExists
	}
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = id
	}
	return nil
}

// versionFilter matches documents written before the version field existed
// as version 0.
func versionFilter(userID string, version int64) bson.M {
	if version == 0 {
		return bson.M{
			"userId": userID,
			"$or": bson.A{
				bson.M{"version": 0},
				bson.M{"version": bson.M{"$exists": false}},
			},
		}
	}
	return bson.M{"userId": userID, "version": version}
}

// SaveStats writes every statistics field of u in one update guarded by the
// document version.
func (r *UserRepository) SaveStats(ctx context.Context, u *models.User) error {
	update := bson.M{
		"$set": bson.M{
			"puzzles":            u.Puzzles,
			"points":             u.Points,
			"timeSpent":          u.TimeSpent,
			"todayStats":         u.TodayStats,
			"weekPuzzles":        u.WeekPuzzles,
			"weekPoints":         u.WeekPoints,
			"weekTimeSpent":      u.WeekTimeSpent,
			"puzzleCategoryData": u.PuzzleCategoryData,
			"checkNewDay":        u.CheckNewDay,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateOne(ctx, versionFilter(u.UserID, u.Version), update)
	if err != nil {
		return fmt.Errorf("update stats: %w", err)
	}
	if res.MatchedCount == 0 {
		return models.ErrVersionConflict
	}
	u.Version++
	return nil
}

func (r *UserRepository) setFields(ctx context.Context, userID string, fields bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetLevel(ctx context.Context, userID string, level models.Level) error {
	return r.setFields(ctx, userID, bson.M{"level": level})
}

func (r *UserRepository) AddBadges(ctx context.Context, userID string, badgeIDs []string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"userId": userID},
		bson.M{"$addToSet": bson.M{"badgesEarned": bson.M{"$each": badgeIDs}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SetStreak(ctx context.Context, userID string, streak int, lastLogged time.Time) error {
	return r.setFields(ctx, userID, bson.M{"streak": streak, "lastLogged": lastLogged})
}

func (r *UserRepository) SetPuzzleGoal(ctx context.Context, userID string, goal int) error {
	return r.setFields(ctx, userID, bson.M{"puzzleGoal": goal})
}

func (r *UserRepository) SetPointsGoal(ctx context.Context, userID string, goal int) error {
	return r.setFields(ctx, userID, bson.M{"pointsGoal": goal})
}

// SetTimezone bumps the version so a SaveStats holding an older copy of
// checkNewDay conflicts instead of restoring the previous timezone.
func (r *UserRepository) SetTimezone(ctx context.Context, userID, timezone string) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, timezoneUpdate(timezone))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func timezoneUpdate(timezone string) bson.M {
	return bson.M{
		"$set": bson.M{"checkNewDay.timezone": timezone},
		"$inc": bson.M{"version": 1},
	}
}

// Toggle flips a boolean setting server-side with a pipeline update.
func (r *UserRepository) Toggle(ctx context.Context, userID, field string) error {
	switch field {
	case "enableNotifications", "enableLeaderboard":
	default:
		return fmt.Errorf("field %q cannot be toggled", field)
	}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{field: bson.M{"$not": bson.A{"$" + field}}}}},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, pipeline)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

// ResetTodayStats zeroes todayStats for every user of the timezone whose last
// reset precedes boundary. Users already reset are not matched again.
func (r *UserRepository) ResetTodayStats(ctx context.Context, timezone string, boundary, now time.Time) (int64, error) {
	filter := bson.M{
		"checkNewDay.timezone":    timezone,
		"checkNewDay.lastChecked": bson.M{"$lt": boundary},
	}
	update := bson.M{
		"$set": bson.M{
			"todayStats":              stats.NewTodayStats(),
			"checkNewDay.lastChecked": now,
		},
		"$inc": bson.M{"version": 1},
	}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (r *UserRepository) DistinctTimezones(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "checkNewDay.timezone", bson.M{})
	if err != nil {
		return nil, err
	}
	zones := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			zones = append(zones, s)
		}
	}
	return zones, nil
}

// Leaderboard lists opted-in users by points, then solved puzzles.
func (r *UserRepository) Leaderboard(ctx context.Context, limit int64) ([]models.LeaderboardEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "points", Value: -1}, {Key: "puzzles.correct", Value: -1}}).
		SetProjection(bson.M{"userId": 1, "name": 1, "points": 1, "puzzles": 1, "level": 1, "_id": 0})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, bson.M{"enableLeaderboard": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := []models.LeaderboardEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
