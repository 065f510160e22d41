package feed

import (
	"context"

	"github.com/incomingclass/backend/internal/models"
)

// Viewer is a snapshot of the signed-in user's tier flags, taken from the
// session at fetch time. A nil *Viewer means anonymous.
type Viewer struct {
	ID               uint
	ProfileCompleted bool
	Subscribed       bool
}

// Session exposes the current authenticated viewer to the controller.
// Implementations must be cheap and synchronous.
type Session interface {
	CurrentViewer() *Viewer
}

// PostsAPI is the posts search collaborator. Page numbers are 1-based.
type PostsAPI interface {
	SearchPosts(ctx context.Context, filters models.FeedFilters, page, limit int) (*models.FeedPage, error)
}
