package stats

import "brainquest/models"

var levelTable = [10]models.Level{
	{Level: 1, Title: "Puzzle Novice", PointsNeeded: 0, PuzzlesNeeded: 0, Icon: "egg", Color: "#A0AEC0"},
	{Level: 2, Title: "Curious Thinker", PointsNeeded: 100, PuzzlesNeeded: 5, Icon: "bulb", Color: "#68D391"},
	{Level: 3, Title: "Riddle Apprentice", PointsNeeded: 300, PuzzlesNeeded: 15, Icon: "book", Color: "#4FD1C5"},
	{Level: 4, Title: "Clever Solver", PointsNeeded: 750, PuzzlesNeeded: 35, Icon: "key", Color: "#63B3ED"},
	{Level: 5, Title: "Logic Adept", PointsNeeded: 1500, PuzzlesNeeded: 70, Icon: "cog", Color: "#7F9CF5"},
	{Level: 6, Title: "Puzzle Strategist", PointsNeeded: 3000, PuzzlesNeeded: 120, Icon: "chess", Color: "#B794F4"},
	{Level: 7, Title: "Mind Bender", PointsNeeded: 6000, PuzzlesNeeded: 200, Icon: "spiral", Color: "#F687B3"},
	{Level: 8, Title: "Enigma Expert", PointsNeeded: 12000, PuzzlesNeeded: 350, Icon: "eye", Color: "#FC8181"},
	{Level: 9, Title: "Grandmaster", PointsNeeded: 25000, PuzzlesNeeded: 600, Icon: "crown", Color: "#F6AD55"},
	{Level: 10, Title: "Puzzle Legend", PointsNeeded: 50000, PuzzlesNeeded: 1000, Icon: "trophy", Color: "#F6E05E"},
}

// Levels returns a copy of the tier table, lowest tier first.
func Levels() []models.Level {
	out := make([]models.Level, len(levelTable))
	copy(out, levelTable[:])
	return out
}

// LevelFor returns the highest tier whose point and puzzle thresholds are
// both met. Thresholds ascend on both axes, so the result never drops as
// either value grows.
func LevelFor(points, puzzlesCorrect int) models.Level {
	current := levelTable[0]
	for _, tier := range levelTable[1:] {
		if points < tier.PointsNeeded || puzzlesCorrect < tier.PuzzlesNeeded {
			break
		}
		current = tier
	}
	return current
}
