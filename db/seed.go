package db

import (
	"context"
	"fmt"

	"brainquest/models"
)

// DefaultBadges is the built-in badge catalog
var DefaultBadges = []models.Badge{
	{Icon: "⚡", Title: "Brain Spark", Description: "Solve your first puzzle.", Condition: "brain_spark"},
	{Icon: "🧠", Title: "Logic Master", Description: "Solve 20 logic puzzles.", Condition: "logic_master"},
	{Icon: "🌅", Title: "Early Bird", Description: "Solve a puzzle before 9 AM.", Condition: "early_bird"},
	{Icon: "🦉", Title: "Night Owl", Description: "Solve a puzzle after 11 PM.", Condition: "night_owl"},
	{Icon: "🔥", Title: "Hot Streak", Description: "Keep a 7 day streak.", Condition: "hot_streak"},
	{Icon: "💡", Title: "Braniac", Description: "Earn 5,000 points in a single day.", Condition: "braniac"},
	{Icon: "👑", Title: "Master", Description: "Reach 100,000 points.", Condition: "master"},
}

// DefaultChallenges is the built-in challenge catalog
var DefaultChallenges = []models.Challenge{
	{Title: "Think Outside the Box", Task: "Solve 3 lateral thinking puzzles today.", Reward: 150, Final: 3, Condition: "think_outside_the_box"},
	{Title: "Power Session", Task: "Earn 1,000 points in one training session today.", Reward: 300, Final: 1000, Condition: "power_session"},
}

// SeedCatalog upserts the default badges and challenges. Existing documents
// keep their ids and progress.
func SeedCatalog(ctx context.Context, badges *BadgeRepository, challenges *ChallengeRepository) error {
	for _, b := range DefaultBadges {
		if err := badges.UpsertByCondition(ctx, b); err != nil {
			return fmt.Errorf("seed badge %s: %w", b.Condition, err)
		}
	}
	for _, c := range DefaultChallenges {
		if err := challenges.UpsertByCondition(ctx, c); err != nil {
			return fmt.Errorf("seed challenge %s: %w", c.Condition, err)
		}
	}
	return nil
}
