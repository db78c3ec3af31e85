package controllers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"brainquest/internal/logger"
	"brainquest/internal/media"
	"brainquest/middlewares"
	"brainquest/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultScrollLimit   = 4
	defaultUserPageLimit = 10
	popularLimit         = 3
	discoverSampleSize   = 3
)

// PuzzleLibrary is the puzzle persistence used by the community handlers
type PuzzleLibrary interface {
	FindPuzzle(ctx context.Context, id primitive.ObjectID) (*models.Puzzle, error)
	CreatePuzzle(ctx context.Context, p *models.Puzzle) error
	DeletePuzzle(ctx context.Context, id primitive.ObjectID, ownerID string) (*models.Puzzle, error)
	ListPuzzles(ctx context.Context, f models.PuzzleFilter) ([]models.Puzzle, error)
	Page(ctx context.Context, f models.PuzzleFilter, skip, limit int64) ([]models.Puzzle, error)
	Count(ctx context.Context, f models.PuzzleFilter) (int64, error)
	Popular(ctx context.Context, excludeCreatorID string, limit int64) ([]models.Puzzle, error)
	Sample(ctx context.Context, f models.PuzzleFilter, size int) ([]models.Puzzle, error)
	DailyPuzzle(ctx context.Context, now time.Time) (*models.Puzzle, error)
	AddComment(ctx context.Context, id primitive.ObjectID, c models.PuzzleComment) error
	SetReaction(ctx context.Context, id primitive.ObjectID, userID string, like, undo bool) error
}

// ImageStore keeps puzzle images
type ImageStore interface {
	Upload(ctx context.Context, image string) (models.Image, error)
	Delete(ctx context.Context, publicID string) error
}

type PuzzleController struct {
	puzzles PuzzleLibrary
	images  ImageStore
	log     *logger.Logger
	now     func() time.Time
}

// NewPuzzleController accepts a nil image store; puzzles then only reference
// external image URLs.
func NewPuzzleController(puzzles PuzzleLibrary, images ImageStore, log *logger.Logger) *PuzzleController {
	return &PuzzleController{puzzles: puzzles, images: images, log: log, now: time.Now}
}

func parseCategories(raw []string) []models.Category {
	var out []models.Category
	for _, s := range raw {
		if c, ok := models.ParseCategory(s); ok {
			out = append(out, c)
		}
	}
	return out
}

func parseDifficulties(raw []string) []models.Difficulty {
	var out []models.Difficulty
	for _, s := range raw {
		if d, ok := models.ParseDifficulty(s); ok {
			out = append(out, d)
		}
	}
	return out
}

type CreatePuzzleRequest struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Hint       string `json:"hint"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Image      string `json:"image"`
	Creator    struct {
		Name         string `json:"name"`
		ProfileImage string `json:"profileImage"`
	} `json:"creator"`
}

func (pc *PuzzleController) CreatePuzzle(c *gin.Context) {
	var req CreatePuzzleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	category, okCategory := models.ParseCategory(req.Category)
	difficulty, okDifficulty := models.ParseDifficulty(req.Difficulty)
	if strings.TrimSpace(req.Question) == "" || strings.TrimSpace(req.Answer) == "" || !okCategory || !okDifficulty {
		fail(c, http.StatusBadRequest, "Question, answer, a valid category and a valid difficulty are required.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	image, err := pc.storeImage(ctx, req.Image)
	if errors.Is(err, media.ErrInvalidImage) {
		fail(c, http.StatusBadRequest, "Image must be a data URI or an http(s) URL.")
		return
	}
	if err != nil {
		pc.log.Error("image upload failed", "error", err)
		fail(c, http.StatusInternalServerError, "Error adding puzzle.")
		return
	}

	puzzle := &models.Puzzle{
		Question:   req.Question,
		Answer:     req.Answer,
		Hint:       req.Hint,
		Category:   category,
		Difficulty: difficulty,
		Image:      image,
		Creator: models.Creator{
			ID:           middlewares.UserID(c),
			Name:         req.Creator.Name,
			ProfileImage: req.Creator.ProfileImage,
		},
	}
	if err := pc.puzzles.CreatePuzzle(ctx, puzzle); err != nil {
		pc.log.Error("create puzzle failed", "error", err)
		if derr := pc.releaseImage(ctx, image.PublicID); derr != nil {
			pc.log.Warn("orphaned puzzle image", "public_id", image.PublicID, "error", derr)
		}
		fail(c, http.StatusInternalServerError, "Error adding puzzle.")
		return
	}
	succeed(c, "Puzzle created successfully!", gin.H{"puzzle": puzzle})
}

func (pc *PuzzleController) storeImage(ctx context.Context, image string) (models.Image, error) {
	switch {
	case image == "":
		return models.Image{}, nil
	case pc.images != nil:
		return pc.images.Upload(ctx, image)
	case strings.HasPrefix(image, "http://"), strings.HasPrefix(image, "https://"):
		return models.Image{URL: image}, nil
	default:
		return models.Image{}, media.ErrInvalidImage
	}
}

func (pc *PuzzleController) releaseImage(ctx context.Context, publicID string) error {
	if pc.images == nil || publicID == "" {
		return nil
	}
	return pc.images.Delete(ctx, publicID)
}

type PuzzleFilterRequest struct {
	Categories   []string `json:"categories"`
	Difficulties []string `json:"difficulties"`
}

// GetPuzzles lists the caller's own puzzles.
func (pc *PuzzleController) GetPuzzles(c *gin.Context) {
	var req PuzzleFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	puzzles, err := pc.puzzles.ListPuzzles(ctx, models.PuzzleFilter{
		CreatorID:    middlewares.UserID(c),
		Categories:   parseCategories(req.Categories),
		Difficulties: parseDifficulties(req.Difficulties),
	})
	if err != nil {
		pc.log.Error("list puzzles failed", "error", err)
		fail(c, http.StatusInternalServerError, "Error fetching puzzles.")
		return
	}
	succeed(c, "Puzzles fetched successfully!", gin.H{"puzzles": puzzles})
}

// GetUserPuzzles pages through the caller's puzzles. Requesting the page
// one past the end returns the last page instead.
func (pc *PuzzleController) GetUserPuzzles(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "0"), 10, 64)
	if err != nil || limit <= 0 {
		limit = defaultUserPageLimit
	}
	page, err := strconv.ParseInt(c.DefaultQuery("page", "0"), 10, 64)
	if err != nil || page < 0 {
		page = 0
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	filter := models.PuzzleFilter{CreatorID: middlewares.UserID(c)}
	total, err := pc.puzzles.Count(ctx, filter)
	if err != nil {
		pc.log.Error("count user puzzles failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch user puzzles.")
		return
	}
	pages := int64(math.Ceil(float64(total) / float64(limit)))
	if page == pages {
		page--
		if page < 0 {
			page = 0
		}
	}

	puzzles, err := pc.puzzles.Page(ctx, filter, page*limit, limit)
	if err != nil {
		pc.log.Error("page user puzzles failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch user puzzles.")
		return
	}
	succeed(c, "User puzzles fetched successfully!", gin.H{"puzzles": puzzles, "pages": pages, "page": page})
}

func (pc *PuzzleController) DeletePuzzle(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		succeedFalse(c, "Puzzle not found.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	puzzle, err := pc.puzzles.DeletePuzzle(ctx, id, middlewares.UserID(c))
	switch {
	case errors.Is(err, models.ErrNotFound):
		succeedFalse(c, "Puzzle not found.")
		return
	case errors.Is(err, models.ErrForbidden):
		fail(c, http.StatusForbidden, "Only the creator can delete this puzzle.")
		return
	case err != nil:
		pc.log.Error("delete puzzle failed", "puzzle_id", id.Hex(), "error", err)
		fail(c, http.StatusInternalServerError, "Error deleting puzzle.")
		return
	}
	if err := pc.releaseImage(ctx, puzzle.Image.PublicID); err != nil {
		pc.log.Warn("delete puzzle image failed", "puzzle_id", id.Hex(), "error", err)
	}
	succeed(c, "Puzzle deleted successfully!", nil)
}

func (pc *PuzzleController) GetPopularPuzzles(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	puzzles, err := pc.puzzles.Popular(ctx, middlewares.UserID(c), popularLimit)
	if err != nil {
		pc.log.Error("popular puzzles failed", "error", err)
		fail(c, http.StatusInternalServerError, "Error fetching popular puzzles.")
		return
	}
	succeed(c, "Popular puzzles fetched successfully!", gin.H{"popularPuzzles": puzzles})
}

func (pc *PuzzleController) GetDiscoverCategoryPuzzles(c *gin.Context) {
	category, ok := models.ParseCategory(c.Query("category"))
	if !ok {
		fail(c, http.StatusBadRequest, "A valid category is required.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	puzzles, err := pc.puzzles.Sample(ctx, models.PuzzleFilter{
		ExcludeCreatorID: middlewares.UserID(c),
		Categories:       []models.Category{category},
	}, discoverSampleSize)
	if err != nil {
		pc.log.Error("discover puzzles failed", "category", category, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to retrieve category puzzles on discover page.")
		return
	}
	succeed(c, "Category puzzles for discover page fetched successfully!", gin.H{"puzzles": puzzles})
}

type ScrollRequest struct {
	PuzzleFilterRequest
	Search string `json:"search"`
	Skip   int64  `json:"skip"`
	Limit  int64  `json:"limit"`
}

func (pc *PuzzleController) GetScrollPuzzles(c *gin.Context) {
	var req ScrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Limit <= 0 {
		req.Limit = defaultScrollLimit
	}
	if req.Skip < 0 {
		req.Skip = 0
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	puzzles, err := pc.puzzles.Page(ctx, models.PuzzleFilter{
		ExcludeCreatorID: middlewares.UserID(c),
		Categories:       parseCategories(req.Categories),
		Difficulties:     parseDifficulties(req.Difficulties),
		Search:           strings.TrimSpace(req.Search),
	}, req.Skip, req.Limit)
	if err != nil {
		pc.log.Error("scroll puzzles failed", "error", err)
		fail(c, http.StatusInternalServerError, "Failed to retrieve scroll puzzles.")
		return
	}
	succeed(c, "Scroll puzzles fetched successfully!", gin.H{"puzzles": puzzles})
}

func (pc *PuzzleController) GetDailyPuzzle(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	puzzle, err := pc.puzzles.DailyPuzzle(ctx, pc.now())
	if errors.Is(err, models.ErrNotFound) {
		succeedFalse(c, "No daily puzzle found.")
		return
	}
	if err != nil {
		pc.log.Error("daily puzzle failed", "error", err)
		fail(c, http.StatusInternalServerError, "Error fetching daily puzzle.")
		return
	}
	succeed(c, "Daily puzzle fetched successfully!", gin.H{"dailyPuzzle": puzzle})
}

type CommentRequest struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage"`
	Content      string `json:"content"`
}

func (pc *PuzzleController) PostComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil || req.Name == "" || strings.TrimSpace(req.Content) == "" {
		succeedFalse(c, "Missing fields, all are required.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	err = pc.puzzles.AddComment(ctx, id, models.PuzzleComment{
		Creator: models.Creator{
			ID:           middlewares.UserID(c),
			Name:         req.Name,
			ProfileImage: req.ProfileImage,
		},
		Content:   req.Content,
		CreatedAt: pc.now(),
	})
	if errors.Is(err, models.ErrNotFound) {
		succeedFalse(c, "Puzzle doesn't exist.")
		return
	}
	if err != nil {
		pc.log.Error("post comment failed", "puzzle_id", req.ID, "error", err)
		fail(c, http.StatusInternalServerError, "Failed to post comment.")
		return
	}
	succeed(c, "Comment posted successfully!", nil)
}

func (pc *PuzzleController) GetComments(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		succeedFalse(c, "Puzzle doesn't exist.")
		return
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	puzzle, err := pc.puzzles.FindPuzzle(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		succeedFalse(c, "Puzzle doesn't exist.")
		return
	}
	if err != nil {
		pc.log.Error("get comments failed", "puzzle_id", id.Hex(), "error", err)
		fail(c, http.StatusInternalServerError, "Failed to fetch comments.")
		return
	}
	succeed(c, "Comments fetched successfully!", gin.H{"comments": puzzle.Comments})
}

type ReactionRequest struct {
	ID              string `json:"id"`
	AlreadyLiked    bool   `json:"alreadyLiked"`
	AlreadyDisliked bool   `json:"alreadyDisliked"`
}

func (pc *PuzzleController) react(c *gin.Context, like bool) {
	var req ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		succeedFalse(c, "Puzzle doesn't exist.")
		return
	}
	undo := req.AlreadyDisliked
	verb := "Dislike"
	if like {
		undo, verb = req.AlreadyLiked, "Like"
	}
	ctx, cancel := requestContext(c)
	defer cancel()

	err = pc.puzzles.SetReaction(ctx, id, middlewares.UserID(c), like, undo)
	if errors.Is(err, models.ErrNotFound) {
		succeedFalse(c, "Puzzle doesn't exist.")
		return
	}
	if err != nil {
		pc.log.Error("reaction failed", "puzzle_id", req.ID, "like", like, "error", err)
		fail(c, http.StatusInternalServerError, "Error reacting to puzzle.")
		return
	}
	succeed(c, verb+" successful!", nil)
}

func (pc *PuzzleController) Like(c *gin.Context) {
	pc.react(c, true)
}

func (pc *PuzzleController) Dislike(c *gin.Context) {
	pc.react(c, false)
}
