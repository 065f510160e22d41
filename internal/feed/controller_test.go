package feed

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/incomingclass/backend/internal/models"
	"github.com/stretchr/testify/require"
)

// fakeSession returns a fixed viewer snapshot
type fakeSession struct {
	viewer *Viewer
}

func (s *fakeSession) CurrentViewer() *Viewer { return s.viewer }

// fakePostsAPI scripts search responses per requested page and records calls
type fakePostsAPI struct {
	mu      sync.Mutex
	calls   int
	lastReq struct {
		filters models.FeedFilters
		page    int
		limit   int
	}
	respond func(filters models.FeedFilters, page, limit int) (*models.FeedPage, error)
}

func (f *fakePostsAPI) SearchPosts(ctx context.Context, filters models.FeedFilters, page, limit int) (*models.FeedPage, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq.filters = filters
	f.lastReq.page = page
	f.lastReq.limit = limit
	respond := f.respond
	f.mu.Unlock()
	return respond(filters, page, limit)
}

func (f *fakePostsAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func makePosts(n, startID int) []models.FeedPost {
	posts := make([]models.FeedPost, n)
	for i := range posts {
		posts[i].Content = fmt.Sprintf("post-%d", startID+i)
	}
	return posts
}

// fixedPage always answers with the given page payload
func fixedPage(page *models.FeedPage) func(models.FeedFilters, int, int) (*models.FeedPage, error) {
	return func(models.FeedFilters, int, int) (*models.FeedPage, error) {
		return page, nil
	}
}

func TestInitialize_AnonymousViewerIsCappedAndGated(t *testing.T) {
	t.Parallel()

	// Backend hands back 8 posts across a 2-page feed; the anonymous cap is 6
	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts:       makePosts(8, 1),
		TotalCount:  8,
		CurrentPage: 1,
		TotalPages:  2,
		HasNextPage: true,
	})}
	ctrl := NewController(api, &fakeSession{viewer: nil})

	ctrl.Initialize(context.Background())

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 6)
	require.True(t, st.HasReachedLimit)
	require.Equal(t, ModalSignup, st.ModalType)
	require.False(t, st.HasMore, "cap overrides backend hasNextPage")
	require.Empty(t, st.Err)
	require.False(t, st.Loading)
}

func TestInitialize_SubscriberIsUncapped(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts:       makePosts(5, 1),
		TotalCount:  12,
		CurrentPage: 1,
		TotalPages:  3,
		HasNextPage: true,
	})}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, ProfileCompleted: true, Subscribed: true}})

	ctrl.Initialize(context.Background())

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 5)
	require.False(t, st.HasReachedLimit)
	require.Equal(t, ModalNone, st.ModalType)
	require.True(t, st.HasMore)
}

func TestInitialize_ExactCapGetsGracePeriod(t *testing.T) {
	t.Parallel()

	// First page returns exactly the anonymous cap; the first load lets it
	// through without the gating modal
	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts:       makePosts(6, 1),
		TotalCount:  11,
		CurrentPage: 1,
		TotalPages:  3,
		HasNextPage: true,
	})}
	ctrl := NewController(api, &fakeSession{viewer: nil})

	ctrl.Initialize(context.Background())

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 6)
	require.False(t, st.HasReachedLimit)
	require.Equal(t, ModalNone, st.ModalType)
	require.True(t, st.HasMore)
}

func TestInitialize_SecondCallIsNoOp(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts:       makePosts(3, 1),
		TotalCount:  3,
		CurrentPage: 1,
		TotalPages:  1,
	})}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, Subscribed: true}})

	ctrl.Initialize(context.Background())
	ctrl.Initialize(context.Background())

	require.Equal(t, 1, api.callCount())
}

func TestInitialize_FailureEmptiesPostsAndRecordsError(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: func(models.FeedFilters, int, int) (*models.FeedPage, error) {
		return nil, fmt.Errorf("connection refused")
	}}
	ctrl := NewController(api, &fakeSession{viewer: nil})

	ctrl.Initialize(context.Background())

	st := ctrl.Snapshot()
	require.Empty(t, st.Posts)
	require.Equal(t, "connection refused", st.Err)
	require.False(t, st.Loading)
	require.False(t, st.HasMore)
}

func TestLoadMore_ReevaluatesCapStrictly(t *testing.T) {
	t.Parallel()

	// Viewer with an incomplete profile is capped at 6. Page 1 brings 5,
	// page 2 brings 2 more; the accumulated 7 must truncate to the cap.
	api := &fakePostsAPI{}
	api.respond = func(_ models.FeedFilters, page, _ int) (*models.FeedPage, error) {
		if page == 1 {
			return &models.FeedPage{Posts: makePosts(5, 1), TotalCount: 9, CurrentPage: 1, TotalPages: 2, HasNextPage: true}, nil
		}
		return &models.FeedPage{Posts: makePosts(2, 6), TotalCount: 9, CurrentPage: 2, TotalPages: 2, HasNextPage: true}, nil
	}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 2, ProfileCompleted: false}})

	ctrl.Initialize(context.Background())
	ctrl.LoadMorePosts(context.Background())

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 6)
	require.True(t, st.HasReachedLimit)
	require.Equal(t, ModalSignup, st.ModalType)
	require.False(t, st.HasMore, "cap overrides backend hasNextPage")
	// Accumulation is append-only: page 1 posts stay in front
	require.Equal(t, "post-1", st.Posts[0].Content)
	require.Equal(t, "post-6", st.Posts[5].Content)
}

func TestLoadMore_ExactCapAfterGraceTriggersModal(t *testing.T) {
	t.Parallel()

	// Page 1 exactly meets the cap and rides the grace period; the next
	// load re-evaluates strictly even though no new posts fit
	api := &fakePostsAPI{}
	api.respond = func(_ models.FeedFilters, page, _ int) (*models.FeedPage, error) {
		if page == 1 {
			return &models.FeedPage{Posts: makePosts(6, 1), TotalCount: 10, CurrentPage: 1, TotalPages: 2, HasNextPage: true}, nil
		}
		return &models.FeedPage{Posts: makePosts(4, 7), TotalCount: 10, CurrentPage: 2, TotalPages: 2, HasNextPage: false}, nil
	}
	ctrl := NewController(api, &fakeSession{viewer: nil})

	ctrl.Initialize(context.Background())
	require.False(t, ctrl.Snapshot().HasReachedLimit)

	ctrl.LoadMorePosts(context.Background())

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 6)
	require.True(t, st.HasReachedLimit)
	require.Equal(t, ModalSignup, st.ModalType)
}

func TestLoadMore_MemberCapSelectsPremiumModal(t *testing.T) {
	t.Parallel()

	// Complete-profile non-subscriber is capped at 10 and pitched premium
	api := &fakePostsAPI{}
	api.respond = func(_ models.FeedFilters, page, _ int) (*models.FeedPage, error) {
		return &models.FeedPage{Posts: makePosts(6, page*10), TotalCount: 20, CurrentPage: page, TotalPages: 4, HasNextPage: true}, nil
	}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 3, ProfileCompleted: true}})

	ctrl.Initialize(context.Background())
	ctrl.LoadMorePosts(context.Background())

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 10)
	require.True(t, st.HasReachedLimit)
	require.Equal(t, ModalPremium, st.ModalType)
}

func TestLoadMore_AfterModalDismissedSkipsNetwork(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts:       makePosts(5, 1),
		TotalCount:  20,
		CurrentPage: 1,
		TotalPages:  4,
		HasNextPage: true,
	})}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, Subscribed: true}})

	ctrl.Initialize(context.Background())
	before := ctrl.Snapshot()

	ctrl.MarkModalDismissed()
	ctrl.LoadMorePosts(context.Background())

	require.Equal(t, 1, api.callCount(), "dismissed modal must suppress further fetches")
	after := ctrl.Snapshot()
	require.Equal(t, before.Posts, after.Posts)
	require.True(t, after.ModalDismissed)
}

func TestLoadMore_FailureKeepsAccumulatedPosts(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{}
	api.respond = func(_ models.FeedFilters, page, _ int) (*models.FeedPage, error) {
		if page == 1 {
			return &models.FeedPage{Posts: makePosts(5, 1), TotalCount: 10, CurrentPage: 1, TotalPages: 2, HasNextPage: true}, nil
		}
		return nil, fmt.Errorf("gateway timeout")
	}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, Subscribed: true}})

	ctrl.Initialize(context.Background())
	ctrl.LoadMorePosts(context.Background())

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 5, "load-more failure is non-destructive")
	require.Equal(t, "gateway timeout", st.Err)
	require.False(t, st.LoadingMore)
}

func TestFilterMutations_SilentlyDroppedForNonSubscribers(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts: makePosts(3, 1), TotalCount: 3, CurrentPage: 1, TotalPages: 1,
	})}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 4, ProfileCompleted: true, Subscribed: false}})

	ctrl.Initialize(context.Background())
	callsAfterInit := api.callCount()
	before := ctrl.Snapshot().Filters

	wanted := models.FeedFilters{Query: "roommates", LookbackDays: 7, College: "umich"}
	ctrl.ApplyFilters(context.Background(), wanted)
	ctrl.UpdateFilter(context.Background(), func(f *models.FeedFilters) { f.Hometown = "Chicago" })
	ctrl.ResetFilters(context.Background())

	st := ctrl.Snapshot()
	require.True(t, st.Filters.Equal(before), "filters must be untouched for non-subscribers")
	require.Equal(t, callsAfterInit, api.callCount(), "denied mutations must not refetch")
}

func TestSetCollegeFromHero_BypassesSubscriberGate(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts: makePosts(2, 1), TotalCount: 2, CurrentPage: 1, TotalPages: 1,
	})}
	ctrl := NewController(api, &fakeSession{viewer: nil})

	ctrl.SetCollegeFromHero(context.Background(), "ohio-state")

	require.Equal(t, 1, api.callCount())
	require.Equal(t, "ohio-state", api.lastReq.filters.College)
	require.Equal(t, "ohio-state", ctrl.Snapshot().Filters.College)
}

func TestResetFilters_RestoresDocumentedDefaults(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts: makePosts(1, 1), TotalCount: 1, CurrentPage: 1, TotalPages: 1,
	})}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, ProfileCompleted: true, Subscribed: true}})

	ctrl.ApplyFilters(context.Background(), models.FeedFilters{Query: "intramural", LookbackDays: 7, College: "ucla"})
	ctrl.ResetFilters(context.Background())

	require.True(t, ctrl.Snapshot().Filters.Equal(models.DefaultFeedFilters()))
}

func TestFilterChange_ResetsPaginationAndRearmsGrace(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{}
	api.respond = func(f models.FeedFilters, page, _ int) (*models.FeedPage, error) {
		return &models.FeedPage{Posts: makePosts(5, page*10), TotalCount: 30, CurrentPage: page, TotalPages: 6, HasNextPage: true}, nil
	}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, ProfileCompleted: true, Subscribed: true}})

	ctrl.Initialize(context.Background())
	ctrl.LoadMorePosts(context.Background())
	require.Len(t, ctrl.Snapshot().Posts, 10)

	ctrl.ApplyFilters(context.Background(), models.FeedFilters{College: "nyu", LookbackDays: 30})

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 5, "filter change must restart from page one")
	require.Equal(t, 1, st.CurrentPage)
	require.True(t, st.InitialLoad == false && st.Err == "")
	require.Equal(t, "nyu", api.lastReq.filters.College)
	require.Equal(t, 1, api.lastReq.page)
}

func TestApplyFilters_EqualFiltersSkipRefetch(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts: makePosts(2, 1), TotalCount: 2, CurrentPage: 1, TotalPages: 1,
	})}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, Subscribed: true}})

	ctrl.Initialize(context.Background())
	ctrl.ApplyFilters(context.Background(), models.DefaultFeedFilters())

	require.Equal(t, 1, api.callCount())
}

func TestRefreshFeed_AllowedForEveryTierAndClearsDismissal(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts: makePosts(3, 1), TotalCount: 3, CurrentPage: 1, TotalPages: 1,
	})}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 5, ProfileCompleted: false}})

	ctrl.Initialize(context.Background())
	ctrl.MarkModalDismissed()
	ctrl.RefreshFeed(context.Background())

	st := ctrl.Snapshot()
	require.Equal(t, 2, api.callCount(), "refresh must refetch regardless of tier")
	require.False(t, st.ModalDismissed, "refresh resets the one-shot dismissal")
}

func TestStaleResponse_DiscardedAfterSupersedingFetch(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	api := &fakePostsAPI{}
	api.respond = func(f models.FeedFilters, page, _ int) (*models.FeedPage, error) {
		if f.College == "" {
			// First fetch: stall until the superseding one has finished
			close(started)
			<-release
			return &models.FeedPage{Posts: makePosts(4, 100), TotalCount: 4, CurrentPage: 1, TotalPages: 1}, nil
		}
		return &models.FeedPage{Posts: makePosts(2, 1), TotalCount: 2, CurrentPage: 1, TotalPages: 1}, nil
	}
	ctrl := NewController(api, &fakeSession{viewer: &Viewer{ID: 1, Subscribed: true}})

	done := make(chan struct{})
	go func() {
		ctrl.Initialize(context.Background())
		close(done)
	}()

	<-started
	ctrl.ApplyFilters(context.Background(), models.FeedFilters{College: "stanford", LookbackDays: 30})
	close(release)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("initialize did not return")
	}

	st := ctrl.Snapshot()
	require.Len(t, st.Posts, 2, "stale first-fetch result must be discarded")
	require.Equal(t, "post-1", st.Posts[0].Content)
	require.Equal(t, "stanford", st.Filters.College)
}

func TestSetOnChange_EmitsSnapshots(t *testing.T) {
	t.Parallel()

	api := &fakePostsAPI{respond: fixedPage(&models.FeedPage{
		Posts: makePosts(2, 1), TotalCount: 2, CurrentPage: 1, TotalPages: 1,
	})}
	ctrl := NewController(api, &fakeSession{viewer: nil})

	var mu sync.Mutex
	var states []State
	ctrl.SetOnChange(func(st State) {
		mu.Lock()
		states = append(states, st)
		mu.Unlock()
	})

	ctrl.Initialize(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(states), 2, "loading and loaded snapshots")
	require.True(t, states[0].Loading)
	final := states[len(states)-1]
	require.False(t, final.Loading)
	require.Len(t, final.Posts, 2)
}
