package stub

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"forumfront/internal/api"
)

var (
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateUsername = errors.New("username already taken")
)

type user struct {
	ID           int
	Email        string
	Username     string
	PasswordHash string
}

func createUser(db *sql.DB, email, username, passwordHash string) error {
	_, err := db.Exec(`INSERT INTO users (email, username, password_hash) VALUES (?, ?, ?)`, email, username, passwordHash)
	if err != nil {
		msg := err.Error()
		if strings.Contains(msg, "users.email") {
			return ErrDuplicateEmail
		}
		if strings.Contains(msg, "users.username") {
			return ErrDuplicateUsername
		}
	}
	return err
}

func getUserByEmail(db *sql.DB, email string) (*user, error) {
	row := db.QueryRow(`SELECT id, email, username, password_hash FROM users WHERE email = ?`, email)
	var u user
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash); err != nil {
		return nil, err
	}
	return &u, nil
}

func createSession(db *sql.DB, userID int, sessionID string, expires time.Time) error {
	_, err := db.Exec(`UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP WHERE user_id = ? AND revoked_at IS NULL`, userID)
	if err != nil {
		return err
	}
	_, err = db.Exec(`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`, sessionID, userID, expires)
	return err
}

func revokeSession(db *sql.DB, sessionID string) {
	db.Exec(`UPDATE sessions SET revoked_at = CURRENT_TIMESTAMP WHERE id = ?`, sessionID)
}

// userBySession resolves a session id to its live user, nil when the session
// is unknown, revoked, or expired.
func userBySession(db *sql.DB, sessionID string) *user {
	row := db.QueryRow(`SELECT u.id, u.email, u.username, u.password_hash
        FROM sessions s JOIN users u ON u.id = s.user_id
        WHERE s.id = ? AND s.revoked_at IS NULL AND s.expires_at > CURRENT_TIMESTAMP`, sessionID)
	var u user
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash); err != nil {
		return nil
	}
	return &u
}

func listCategories(db *sql.DB) ([]api.Category, error) {
	rows, err := db.Query(`SELECT name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cats := []api.Category{}
	for rows.Next() {
		var c api.Category
		if err := rows.Scan(&c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// categoryIDs resolves names to ids, silently dropping unknown names.
func categoryIDs(db *sql.DB, names []string) ([]int, error) {
	var ids []int
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var id int
		err := db.QueryRow(`SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func createPost(db *sql.DB, userID int, title, content string, catIDs []int) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(`INSERT INTO posts (user_id, title, content) VALUES (?, ?, ?)`, userID, title, content)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	postID, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	for _, cid := range catIDs {
		if _, err := tx.Exec(`INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)`, postID, cid); err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	return postID, tx.Commit()
}

func createComment(db *sql.DB, postID, userID int, content string) error {
	var exists int
	if err := db.QueryRow(`SELECT COUNT(*) FROM posts WHERE id = ?`, postID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return sql.ErrNoRows
	}
	_, err := db.Exec(`INSERT INTO comments (post_id, user_id, content) VALUES (?, ?, ?)`, postID, userID, content)
	return err
}

const postColumns = `p.id, p.title, p.content, u.username, p.created_at,
    (SELECT COUNT(*) FROM likes WHERE post_id = p.id AND is_like = 1),
    (SELECT COUNT(*) FROM likes WHERE post_id = p.id AND is_like = 0),
    EXISTS(SELECT 1 FROM likes WHERE post_id = p.id AND user_id = ? AND is_like = 1),
    EXISTS(SELECT 1 FROM likes WHERE post_id = p.id AND user_id = ? AND is_like = 0)`

// listPosts returns posts newest first, honoring the §6 filter values.
// viewerID 0 means anonymous; it matches no likes rows.
func listPosts(db *sql.DB, viewerID int, filter, value string) ([]api.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON u.id = p.user_id`
	args := []any{viewerID, viewerID}
	switch filter {
	case "category":
		query += ` JOIN post_categories pc ON pc.post_id = p.id
            JOIN categories c ON c.id = pc.category_id WHERE c.name = ?`
		args = append(args, value)
	case "created":
		query += ` WHERE p.user_id = ?`
		args = append(args, viewerID)
	case "liked":
		query += ` JOIN likes l ON l.post_id = p.id AND l.user_id = ? AND l.is_like = 1`
		args = append(args, viewerID)
	}
	query += ` ORDER BY p.created_at DESC, p.id DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	posts := []api.Post{}
	for rows.Next() {
		var p api.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorName, &p.Created,
			&p.Likes, &p.Dislikes, &p.UserLiked, &p.UserDisliked); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].Categories, err = postCategories(db, posts[i].ID); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func getPost(db *sql.DB, id, viewerID int) (*api.Post, error) {
	row := db.QueryRow(`SELECT `+postColumns+` FROM posts p JOIN users u ON u.id = p.user_id WHERE p.id = ?`,
		viewerID, viewerID, id)
	var p api.Post
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorName, &p.Created,
		&p.Likes, &p.Dislikes, &p.UserLiked, &p.UserDisliked); err != nil {
		return nil, err
	}
	var err error
	if p.Categories, err = postCategories(db, p.ID); err != nil {
		return nil, err
	}
	return &p, nil
}

func postCategories(db *sql.DB, postID int) ([]string, error) {
	rows, err := db.Query(`SELECT c.name FROM categories c
        JOIN post_categories pc ON pc.category_id = c.id WHERE pc.post_id = ? ORDER BY c.name`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func listComments(db *sql.DB, postID, viewerID int) ([]api.Comment, error) {
	rows, err := db.Query(`SELECT c.id, c.post_id, c.content, u.username, c.created_at,
        (SELECT COUNT(*) FROM likes WHERE comment_id = c.id AND is_like = 1),
        (SELECT COUNT(*) FROM likes WHERE comment_id = c.id AND is_like = 0),
        EXISTS(SELECT 1 FROM likes WHERE comment_id = c.id AND user_id = ? AND is_like = 1),
        EXISTS(SELECT 1 FROM likes WHERE comment_id = c.id AND user_id = ? AND is_like = 0)
        FROM comments c JOIN users u ON u.id = c.user_id
        WHERE c.post_id = ? ORDER BY c.created_at, c.id`, viewerID, viewerID, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	comments := []api.Comment{}
	for rows.Next() {
		var c api.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.Content, &c.AuthorName, &c.Created,
			&c.Likes, &c.Dislikes, &c.UserLiked, &c.UserDisliked); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// toggleReaction applies a like or dislike: repeating the same reaction
// removes it, the opposite one replaces it. It returns the target's updated
// counts.
func toggleReaction(db *sql.DB, userID int, postID, commentID *int, isLike bool) (likes, dislikes int, err error) {
	target, id := "post_id", 0
	if postID != nil {
		id = *postID
	} else {
		target, id = "comment_id", *commentID
	}

	var current sql.NullBool
	err = db.QueryRow(`SELECT is_like FROM likes WHERE user_id = ? AND `+target+` = ?`, userID, id).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = db.Exec(`INSERT INTO likes (user_id, `+target+`, is_like) VALUES (?, ?, ?)`, userID, id, isLike)
	case err != nil:
	case current.Bool == isLike:
		_, err = db.Exec(`DELETE FROM likes WHERE user_id = ? AND `+target+` = ?`, userID, id)
	default:
		_, err = db.Exec(`UPDATE likes SET is_like = ? WHERE user_id = ? AND `+target+` = ?`, isLike, userID, id)
	}
	if err != nil {
		return 0, 0, err
	}

	err = db.QueryRow(`SELECT
        (SELECT COUNT(*) FROM likes WHERE `+target+` = ? AND is_like = 1),
        (SELECT COUNT(*) FROM likes WHERE `+target+` = ? AND is_like = 0)`, id, id).Scan(&likes, &dislikes)
	return likes, dislikes, err
}
