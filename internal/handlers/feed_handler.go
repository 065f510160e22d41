package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/incomingclass/backend/internal/models"
	"github.com/incomingclass/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles the posts search endpoint backing the feed
type FeedHandler struct {
	postRepository repositories.PostRepository
	userRepository repositories.UserRepository
	likeRepository repositories.LikeRepository
	feedCache      *repositories.FeedCache // optional, nil when Redis is not configured
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(
	postRepo repositories.PostRepository,
	userRepo repositories.UserRepository,
	likeRepo repositories.LikeRepository,
	feedCache *repositories.FeedCache,
) *FeedHandler {
	return &FeedHandler{
		postRepository: postRepo,
		userRepository: userRepo,
		likeRepository: likeRepo,
		feedCache:      feedCache,
	}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/posts/search", h.SearchPosts)
}

func errorEnvelope(msg string) models.FeedEnvelope {
	return models.FeedEnvelope{Status: "error", Error: &msg}
}

// parseSearchFilters reads FeedFilters from the query string
func parseSearchFilters(c echo.Context) models.FeedFilters {
	filters := models.DefaultFeedFilters()
	filters.Query = c.QueryParam("q")
	if days, err := strconv.Atoi(c.QueryParam("days")); err == nil && days > 0 {
		filters.LookbackDays = days
	}
	filters.College = c.QueryParam("college")
	filters.Substance = c.QueryParam("substance")
	filters.Hometown = c.QueryParam("hometown")
	if tags, ok := c.QueryParams()["personality"]; ok {
		filters.PersonalityTags = tags
	}
	return filters
}

// SearchPosts returns a page of posts matching the filters, wrapped in the
// {status, data, error} envelope the feed controller consumes.
func (h *FeedHandler) SearchPosts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 5
	}

	filters := parseSearchFilters(c)

	// Anonymous responses have no per-viewer fields, so they are safe to cache
	cacheable := currentUserID == 0 && h.feedCache != nil
	var cacheKey string
	if cacheable {
		cacheKey = h.feedCache.Key(filters, page, limit)
		if cached := h.feedCache.Get(c.Request().Context(), cacheKey); cached != nil {
			return c.JSON(http.StatusOK, models.FeedEnvelope{Status: "success", Data: cached})
		}
	}

	skip := int64((page - 1) * limit)
	posts, err := h.postRepository.SearchPosts(c.Request().Context(), filters, skip, int64(limit))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorEnvelope(err.Error()))
	}

	totalCount, err := h.postRepository.CountPosts(c.Request().Context(), filters)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorEnvelope(err.Error()))
	}

	// Collect author IDs and post IDs for enrichment
	authorIDSet := make(map[uint]bool)
	authorIDs := make([]uint, 0, len(posts))
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		if !authorIDSet[p.AuthorID] {
			authorIDSet[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
		postIDs[i] = p.ID.Hex()
	}

	authors, err := h.userRepository.GetUsersByIDs(authorIDs)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorEnvelope(err.Error()))
	}

	likedMap := make(map[string]bool)
	if currentUserID > 0 {
		likedMap, err = h.likeRepository.GetLikedPostIDs(currentUserID, postIDs)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, errorEnvelope(err.Error()))
		}
	}

	feedPosts := make([]models.FeedPost, len(posts))
	for i, p := range posts {
		author := authors[p.AuthorID]
		feedPosts[i] = models.FeedPost{
			Post:    p,
			Author:  author.ToCompact(),
			IsLiked: likedMap[p.ID.Hex()],
		}
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(limit)))
	data := &models.FeedPage{
		Posts:       feedPosts,
		TotalCount:  int(totalCount),
		CurrentPage: page,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
	}

	if cacheable {
		h.feedCache.Set(c.Request().Context(), cacheKey, data)
	}

	return c.JSON(http.StatusOK, models.FeedEnvelope{Status: "success", Data: data})
}
