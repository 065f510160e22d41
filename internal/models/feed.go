package models

// FeedPost is a post enriched with author info and per-viewer flags, as
// returned by the posts search endpoint.
type FeedPost struct {
	Post
	Author  UserCompact `json:"author"`
	IsLiked bool        `json:"is_liked"`
}

// FeedPage is the data payload of a posts search response
type FeedPage struct {
	Posts       []FeedPost `json:"posts"`
	TotalCount  int        `json:"totalCount"`
	CurrentPage int        `json:"currentPage"`
	TotalPages  int        `json:"totalPages"`
	HasNextPage bool       `json:"hasNextPage"`
}

// FeedEnvelope wraps every posts search response. Status is "success" or
// "error"; Error is set only on failures.
type FeedEnvelope struct {
	Status string    `json:"status"`
	Data   *FeedPage `json:"data"`
	Error  *string   `json:"error"`
}
