package feedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/incomingclass/backend/internal/models"
	"github.com/stretchr/testify/require"
)

func TestSearchPosts_SendsFiltersAndToken(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/posts/search", r.URL.Path)
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(models.FeedEnvelope{
			Status: "success",
			Data: &models.FeedPage{
				Posts:       []models.FeedPost{{IsLiked: true}},
				TotalCount:  9,
				CurrentPage: 2,
				TotalPages:  2,
				HasNextPage: false,
			},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, WithTokenSource(func() string { return "tok-123" }))

	filters := models.FeedFilters{
		Query:           "move in",
		LookbackDays:    14,
		College:         "umich",
		Substance:       "social",
		PersonalityTags: []string{"outgoing", "gamer"},
		Hometown:        "Chicago",
	}
	page, err := client.SearchPosts(context.Background(), filters, 2, 5)
	require.NoError(t, err)

	require.Equal(t, "Bearer tok-123", gotAuth)
	require.Equal(t, []string{"move in"}, gotQuery["q"])
	require.Equal(t, []string{"14"}, gotQuery["days"])
	require.Equal(t, []string{"umich"}, gotQuery["college"])
	require.Equal(t, []string{"social"}, gotQuery["substance"])
	require.Equal(t, []string{"outgoing", "gamer"}, gotQuery["personality"])
	require.Equal(t, []string{"Chicago"}, gotQuery["hometown"])
	require.Equal(t, []string{"2"}, gotQuery["page"])
	require.Equal(t, []string{"5"}, gotQuery["limit"])

	require.Equal(t, 9, page.TotalCount)
	require.Equal(t, 2, page.CurrentPage)
	require.False(t, page.HasNextPage)
	require.Len(t, page.Posts, 1)
	require.True(t, page.Posts[0].IsLiked)
}

func TestSearchPosts_AnonymousOmitsAuthHeader(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.FeedEnvelope{Status: "success", Data: &models.FeedPage{CurrentPage: 1}})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.SearchPosts(context.Background(), models.DefaultFeedFilters(), 1, 5)
	require.NoError(t, err)
}

func TestSearchPosts_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		msg := "posts collection unavailable"
		json.NewEncoder(w).Encode(models.FeedEnvelope{Status: "error", Error: &msg})
	}))
	defer srv.Close()

	client := New(srv.URL)
	_, err := client.SearchPosts(context.Background(), models.DefaultFeedFilters(), 1, 5)
	require.EqualError(t, err, "posts collection unavailable")
}

func TestSearchPosts_UnauthorizedCallsHook(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	hookCalled := false
	client := New(srv.URL,
		WithTokenSource(func() string { return "expired" }),
		WithUnauthorizedHook(func() { hookCalled = true }),
	)

	_, err := client.SearchPosts(context.Background(), models.DefaultFeedFilters(), 1, 5)
	require.ErrorIs(t, err, ErrUnauthorized)
	require.True(t, hookCalled)
}
