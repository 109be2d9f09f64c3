package api

import "time"

// Wire types for the forum API. Field names follow the server's JSON schema.

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type Post struct {
	ID           int       `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	AuthorName   string    `json:"author_name"`
	Created      time.Time `json:"created"`
	Likes        int       `json:"likes"`
	Dislikes     int       `json:"dislikes"`
	Categories   []string  `json:"categories"`
	UserLiked    bool      `json:"user_liked"`
	UserDisliked bool      `json:"user_disliked"`
}

type Comment struct {
	ID           int       `json:"id"`
	PostID       int       `json:"post_id"`
	Content      string    `json:"content"`
	AuthorName   string    `json:"author_name"`
	Created      time.Time `json:"created"`
	Likes        int       `json:"likes"`
	Dislikes     int       `json:"dislikes"`
	UserLiked    bool      `json:"user_liked"`
	UserDisliked bool      `json:"user_disliked"`
}

type Category struct {
	Name string `json:"name"`
}
