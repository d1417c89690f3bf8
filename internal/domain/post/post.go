package post

import (
	"strings"
	"time"
)

// Post is an NGO appeal. ngo_id is the creating user and doubles as owner.
type Post struct {
	ID           int64     `json:"id"`
	NGOID        int64     `json:"ngo_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Photos       []string  `json:"photos"`
	LocationText string    `json:"location_text"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreatePostForm is bound from the multipart form; the photo part is read
// separately.
type CreatePostForm struct {
	Title        string `form:"title" json:"title" binding:"omitempty,max=200"`
	Description  string `form:"description" json:"description" binding:"omitempty,max=4000"`
	LocationText string `form:"location_text" json:"location_text" binding:"omitempty,max=200"`
}

type NewPost struct {
	NGOID        int64
	Title        string
	Description  string
	LocationText string
	PhotoURL     string
}

func NewFromInput(id int64, in NewPost, now time.Time) Post {
	photos := []string{}
	if in.PhotoURL != "" {
		photos = append(photos, in.PhotoURL)
	}

	return Post{
		ID:           id,
		NGOID:        in.NGOID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Photos:       photos,
		LocationText: strings.TrimSpace(in.LocationText),
		CreatedAt:    now.UTC(),
	}
}
