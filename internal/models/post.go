package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a feed post stored in MongoDB. The author's college and
// profile facets are denormalized onto the post at creation time so the feed
// search can filter without joining against PostgreSQL.
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	College       string             `json:"college" bson:"college"`
	Hometown      string             `json:"hometown,omitempty" bson:"hometown,omitempty"`
	Substance     string             `json:"substance,omitempty" bson:"substance,omitempty"`
	Personality   []string           `json:"personality,omitempty" bson:"personality,omitempty"`
	Content       string             `json:"content" bson:"content"`
	ImageURLs     []string           `json:"image_urls,omitempty" bson:"image_urls,omitempty"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	SharesCount   int                `json:"shares_count" bson:"shares_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content   string   `json:"content" validate:"required,min=1,max=1000"`
	ImageURLs []string `json:"image_urls,omitempty" validate:"omitempty,max=4,dive,url"`
}
