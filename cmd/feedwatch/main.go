// feedwatch is a terminal feed browser. It drives the feed controller the
// same way the web client does: initialize on start, load-more on demand,
// filter changes for subscribers, and a gating notice when the viewer's
// post cap is reached.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/incomingclass/backend/internal/feed"
	"github.com/incomingclass/backend/internal/feedclient"
	"github.com/incomingclass/backend/internal/models"
)

type staticSession struct {
	viewer *feed.Viewer
}

func (s *staticSession) CurrentViewer() *feed.Viewer { return s.viewer }

// fetchViewer resolves the token into a viewer snapshot via the profile
// endpoint; no token means an anonymous session.
func fetchViewer(apiURL, token string) (*feed.Viewer, error) {
	if token == "" {
		return nil, nil
	}

	req, err := http.NewRequest(http.MethodGet, apiURL+"/api/v1/profile", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("profile request failed with status %d", resp.StatusCode)
	}

	var profile struct {
		ID               uint `json:"id"`
		ProfileCompleted bool `json:"profile_completed"`
		Subscribed       bool `json:"subscribed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &feed.Viewer{
		ID:               profile.ID,
		ProfileCompleted: profile.ProfileCompleted,
		Subscribed:       profile.Subscribed,
	}, nil
}

func render(st feed.State) {
	if st.Err != "" {
		fmt.Printf("! feed error: %s\n", st.Err)
		return
	}
	fmt.Printf("-- page %d/%d, %d of %d posts --\n", st.CurrentPage, st.TotalPages, len(st.Posts), st.TotalCount)
	for _, p := range st.Posts {
		fmt.Printf("[%s] %s (%s): %s  ♥%d 💬%d\n",
			p.CreatedAt.Format("Jan 02 15:04"), p.Author.Name, p.Author.College, p.Content, p.LikesCount, p.CommentsCount)
	}
	if st.ModalType != feed.ModalNone {
		fmt.Printf(">> you've reached the %d-post preview limit: %s required (press d to dismiss)\n", st.PostLimit, st.ModalType)
	} else if st.HasMore {
		fmt.Println(">> more posts available (press m)")
	}
}

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "IncomingClass API base URL")
	token := flag.String("token", "", "session JWT (empty browses anonymously)")
	college := flag.String("college", "", "college picked on the landing page")
	flag.Parse()

	viewer, err := fetchViewer(*apiURL, *token)
	if err != nil {
		log.Fatalf("Failed to resolve session: %v", err)
	}
	session := &staticSession{viewer: viewer}

	client := feedclient.New(*apiURL,
		feedclient.WithTokenSource(func() string { return *token }),
		feedclient.WithUnauthorizedHook(func() {
			log.Println("Session expired, continuing anonymously.")
			session.viewer = nil
			*token = ""
		}),
	)

	ctrl := feed.NewController(client, session)
	ctx := context.Background()

	if *college != "" {
		ctrl.SetCollegeFromHero(ctx, *college)
	} else {
		ctrl.Initialize(ctx)
	}
	render(ctrl.Snapshot())

	fmt.Println("commands: m=more, q <text>=search, c <college>=college filter, r=refresh, x=reset filters, d=dismiss, quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, arg := line, ""
		if i := strings.IndexByte(line, ' '); i >= 0 {
			cmd, arg = line[:i], strings.TrimSpace(line[i+1:])
		}

		switch cmd {
		case "m":
			ctrl.LoadMorePosts(ctx)
		case "q":
			ctrl.UpdateFilter(ctx, func(f *models.FeedFilters) { f.Query = arg })
		case "c":
			ctrl.UpdateFilter(ctx, func(f *models.FeedFilters) { f.College = arg })
		case "r":
			ctrl.RefreshFeed(ctx)
		case "x":
			ctrl.ResetFilters(ctx)
		case "d":
			ctrl.MarkModalDismissed()
		case "quit":
			return
		default:
			fmt.Println("unknown command")
			continue
		}
		render(ctrl.Snapshot())
	}
}
