package feed

import (
	"context"
	"sync"

	"github.com/incomingclass/backend/internal/models"
)

// State is the feed state owned by the Controller. UIs render from a
// Snapshot of it and never mutate it directly.
type State struct {
	Posts   []models.FeedPost
	Filters models.FeedFilters

	CurrentPage int
	TotalPages  int
	TotalCount  int
	HasMore     bool

	Loading     bool // initial or reset fetch in flight
	LoadingMore bool
	Err         string

	PostLimit       int // viewer's post cap, 0 = unlimited
	HasReachedLimit bool
	ModalType       ModalType
	ModalDismissed  bool
	InitialLoad     bool // first fetch after a reset gets the cap grace period
}

// Controller mediates every read of the posts feed: it owns pagination,
// enforces viewer-tier post caps and decides when the UI should show a
// gating modal. Construct one per session scope with NewController; there
// is no package-level instance.
type Controller struct {
	api      PostsAPI
	session  Session
	onChange func(State)

	mu       sync.Mutex
	fetchSeq uint64
	state    State
}

// NewController creates a feed controller over the given collaborators
func NewController(api PostsAPI, session Session) *Controller {
	return &Controller{
		api:     api,
		session: session,
		state: State{
			Filters:     models.DefaultFeedFilters(),
			InitialLoad: true,
		},
	}
}

// SetOnChange registers a callback invoked with a state snapshot after
// every mutation. Call before driving the controller.
func (c *Controller) SetOnChange(fn func(State)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// Snapshot returns a copy of the current feed state
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() State {
	st := c.state
	st.Posts = make([]models.FeedPost, len(c.state.Posts))
	copy(st.Posts, c.state.Posts)
	return st
}

// Initialize performs the first feed fetch. It is a no-op when a load is
// already in flight or posts are already accumulated, so calling it twice
// on mount costs a single request.
func (c *Controller) Initialize(ctx context.Context) {
	c.mu.Lock()
	if c.state.Loading || c.state.LoadingMore || len(c.state.Posts) > 0 {
		c.mu.Unlock()
		return
	}
	c.resetAndFetch(ctx)
}

// LoadMorePosts fetches the next page and appends it to the accumulated
// list. No-op once the gating modal has been dismissed, when no more pages
// exist, when the cap is reached, or while any load is in flight.
func (c *Controller) LoadMorePosts(ctx context.Context) {
	c.mu.Lock()
	s := &c.state
	if s.ModalDismissed || !s.HasMore || s.Loading || s.LoadingMore || s.HasReachedLimit {
		c.mu.Unlock()
		return
	}
	s.LoadingMore = true
	s.Err = ""
	seq := c.nextSeqLocked()
	filters := s.Filters
	nextPage := s.CurrentPage + 1
	c.mu.Unlock()

	page, err := c.api.SearchPosts(ctx, filters, nextPage, PageSize)
	viewer := c.session.CurrentViewer()

	c.mu.Lock()
	if seq != c.fetchSeq {
		// A reset or filter change superseded this fetch; drop the result
		c.mu.Unlock()
		return
	}
	c.state.LoadingMore = false
	if err != nil {
		// Non-destructive failure: accumulated posts stay intact
		c.state.Err = err.Error()
		c.finishLocked()
		return
	}

	limit := PostLimitFor(viewer)
	posts := append(c.state.Posts, page.Posts...)
	reached := false
	if limit > 0 && len(posts) >= limit {
		posts = posts[:limit]
		reached = true
	}
	c.state.Posts = posts
	c.state.CurrentPage = page.CurrentPage
	c.state.TotalPages = page.TotalPages
	c.state.TotalCount = page.TotalCount
	c.state.PostLimit = limit
	c.state.HasReachedLimit = reached
	c.state.HasMore = page.HasNextPage && !reached
	if reached {
		c.state.ModalType = ModalTypeFor(viewer)
	} else {
		c.state.ModalType = ModalNone
	}
	c.finishLocked()
}

// ApplyFilters replaces the filter set and refetches from page one.
// Filter access is subscriber-only; for other viewers the call is a silent
// no-op. Identical filters skip the refetch.
func (c *Controller) ApplyFilters(ctx context.Context, filters models.FeedFilters) {
	if !CanUseFilters(c.session.CurrentViewer()) {
		return
	}
	c.mu.Lock()
	if filters.Equal(c.state.Filters) {
		c.mu.Unlock()
		return
	}
	c.state.Filters = filters
	c.resetAndFetch(ctx)
}

// UpdateFilter mutates a single filter field through the given function,
// then resets and refetches. Subscriber-only, silently dropped otherwise.
func (c *Controller) UpdateFilter(ctx context.Context, mutate func(*models.FeedFilters)) {
	if !CanUseFilters(c.session.CurrentViewer()) {
		return
	}
	c.mu.Lock()
	updated := c.state.Filters
	updated.PersonalityTags = append([]string(nil), c.state.Filters.PersonalityTags...)
	mutate(&updated)
	if updated.Equal(c.state.Filters) {
		c.mu.Unlock()
		return
	}
	c.state.Filters = updated
	c.resetAndFetch(ctx)
}

// ResetFilters restores the default filters and refetches.
// Subscriber-only, silently dropped otherwise.
func (c *Controller) ResetFilters(ctx context.Context) {
	c.ApplyFilters(ctx, models.DefaultFeedFilters())
}

// SetCollegeFromHero applies a college chosen on the landing page before
// authentication. This is the one filter mutator that deliberately skips
// the subscriber gate: the hero search happens while signed out.
func (c *Controller) SetCollegeFromHero(ctx context.Context, collegeID string) {
	c.mu.Lock()
	if c.state.Filters.College == collegeID {
		c.mu.Unlock()
		return
	}
	c.state.Filters.College = collegeID
	c.resetAndFetch(ctx)
}

// RefreshFeed resets and refetches with the current filters. Used when the
// signed-in viewer changes; allowed for every tier.
func (c *Controller) RefreshFeed(ctx context.Context) {
	c.mu.Lock()
	c.resetAndFetch(ctx)
}

// MarkModalDismissed records that the viewer dismissed the gating modal.
// Subsequent LoadMorePosts calls become no-ops until the next reset; the
// cap and modal-type fields are left as they are.
func (c *Controller) MarkModalDismissed() {
	c.mu.Lock()
	c.state.ModalDismissed = true
	c.finishLocked()
}

// resetAndFetch clears the feed back to an empty first page and fetches it.
// Callers must hold the lock; it is released before the network call.
// The reset re-arms the first-load grace period.
func (c *Controller) resetAndFetch(ctx context.Context) {
	c.state.Posts = nil
	c.state.CurrentPage = 1
	c.state.TotalPages = 0
	c.state.TotalCount = 0
	c.state.HasMore = false
	c.state.Err = ""
	c.state.PostLimit = 0
	c.state.HasReachedLimit = false
	c.state.ModalType = ModalNone
	c.state.ModalDismissed = false
	c.state.InitialLoad = true
	c.state.Loading = true
	c.state.LoadingMore = false
	seq := c.nextSeqLocked()
	filters := c.state.Filters
	st := c.snapshotLocked()
	onChange := c.onChange
	c.mu.Unlock()
	if onChange != nil {
		onChange(st)
	}

	page, err := c.api.SearchPosts(ctx, filters, 1, PageSize)
	viewer := c.session.CurrentViewer()

	c.mu.Lock()
	if seq != c.fetchSeq {
		c.mu.Unlock()
		return
	}
	c.state.Loading = false
	if err != nil {
		// Destructive failure: the empty list may belong to different
		// filters or viewer than whatever was shown before the reset
		c.state.Err = err.Error()
		c.state.Posts = nil
		c.state.HasMore = false
		c.finishLocked()
		return
	}

	limit := PostLimitFor(viewer)
	posts := page.Posts
	reached := false
	if limit > 0 && len(posts) > limit {
		posts = posts[:limit]
		reached = true
	}
	// A first page that exactly meets the cap passes through once (the
	// grace period); LoadMorePosts re-evaluates strictly.
	c.state.Posts = posts
	c.state.CurrentPage = page.CurrentPage
	c.state.TotalPages = page.TotalPages
	c.state.TotalCount = page.TotalCount
	c.state.PostLimit = limit
	c.state.HasReachedLimit = reached
	c.state.HasMore = page.HasNextPage && !reached
	if reached {
		c.state.ModalType = ModalTypeFor(viewer)
	} else {
		c.state.ModalType = ModalNone
	}
	// Grace applies to exactly one fetch per reset
	c.state.InitialLoad = false
	c.finishLocked()
}

// nextSeqLocked stamps a new fetch; an in-flight fetch holding an older
// stamp finds its result stale and discards it.
func (c *Controller) nextSeqLocked() uint64 {
	c.fetchSeq++
	return c.fetchSeq
}

// finishLocked emits the post-mutation snapshot and releases the lock
func (c *Controller) finishLocked() {
	st := c.snapshotLocked()
	onChange := c.onChange
	c.mu.Unlock()
	if onChange != nil {
		onChange(st)
	}
}
