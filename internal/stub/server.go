// Package stub is a small sqlite-backed forum API used for local
// development and end-to-end tests of the frontend. It implements the same
// HTTP+JSON contract the real backend serves.
package stub

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"forumfront/internal/api"
)

const sessionTTL = 24 * time.Hour

type Server struct {
	DB *sql.DB
}

func NewServer(db *sql.DB) *Server {
	return &Server{DB: db}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/register", s.handleRegister)
	mux.HandleFunc("/api/login", s.handleLogin)
	mux.HandleFunc("/api/logout", s.handleLogout)
	mux.HandleFunc("/api/user", s.handleUser)
	mux.HandleFunc("/api/posts", s.handlePosts)
	mux.HandleFunc("/api/post/", s.handlePost)
	mux.HandleFunc("/api/comments", s.handleComments)
	mux.HandleFunc("/api/like", s.handleLike)
	mux.HandleFunc("/api/categories", s.handleCategories)
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// viewer resolves the request's session cookie, nil when anonymous.
func (s *Server) viewer(r *http.Request) *user {
	cookie, err := r.Cookie(api.SessionCookie)
	if err != nil {
		return nil
	}
	return userBySession(s.DB, cookie.Value)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if username == "" || email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "all fields are required")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error processing request")
		return
	}
	if err := createUser(s.DB, email, username, string(hash)); err != nil {
		if errors.Is(err, ErrDuplicateEmail) || errors.Is(err, ErrDuplicateUsername) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "error creating user")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "user registered"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	u, err := getUserByEmail(s.DB, r.FormValue("email"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(r.FormValue("password"))) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	sid := uuid.NewString()
	expires := time.Now().UTC().Add(sessionTTL)
	if err := createSession(s.DB, u.ID, sid, expires); err != nil {
		writeError(w, http.StatusInternalServerError, "could not create session")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookie,
		Value:    sid,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "login successful"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if cookie, err := r.Cookie(api.SessionCookie); err == nil {
		revokeSession(s.DB, cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: api.SessionCookie, Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "logout successful"})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	u := s.viewer(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, api.User{ID: u.ID, Username: u.Username})
}

func (s *Server) handlePosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listPosts(w, r)
	case http.MethodPost:
		s.createPost(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	filter := r.URL.Query().Get("filter")
	value := r.URL.Query().Get("value")
	viewerID := 0
	if u := s.viewer(r); u != nil {
		viewerID = u.ID
	}
	if (filter == "created" || filter == "liked") && viewerID == 0 {
		writeError(w, http.StatusUnauthorized, "authentication required for this filter")
		return
	}
	posts, err := listPosts(s.DB, viewerID, filter, value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error retrieving posts")
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	u := s.viewer(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	title := r.FormValue("title")
	content := r.FormValue("content")
	if n := utf8.RuneCountInString(title); n < 5 || n > 100 {
		writeError(w, http.StatusBadRequest, "title must be between 5 and 100 characters")
		return
	}
	if n := utf8.RuneCountInString(content); n < 10 || n > 2000 {
		writeError(w, http.StatusBadRequest, "content must be between 10 and 2000 characters")
		return
	}
	var names []string
	if raw := r.FormValue("categories"); raw != "" {
		names = strings.Split(raw, ",")
	}
	ids, err := categoryIDs(s.DB, names)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error processing categories")
		return
	}
	if len(ids) > 4 {
		writeError(w, http.StatusBadRequest, "at most 4 categories can be selected")
		return
	}
	if len(ids) == 0 {
		// Uncategorized posts land in General.
		if ids, err = categoryIDs(s.DB, []string{"General"}); err != nil {
			writeError(w, http.StatusInternalServerError, "error processing categories")
			return
		}
	}
	postID, err := createPost(s.DB, u.ID, title, content, ids)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error creating post")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "post created", "post_id": postID})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/post/")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	viewerID := 0
	if u := s.viewer(r); u != nil {
		viewerID = u.ID
	}
	post, err := getPost(s.DB, id, viewerID)
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error retrieving post")
		return
	}
	comments, err := listComments(s.DB, id, viewerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error retrieving comments")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"post": post, "comments": comments})
}

func (s *Server) handleComments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	u := s.viewer(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	postID, err := strconv.Atoi(r.FormValue("post_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	content := r.FormValue("content")
	if n := utf8.RuneCountInString(strings.TrimSpace(content)); n < 2 || n > 500 {
		writeError(w, http.StatusBadRequest, "comment must be between 2 and 500 characters")
		return
	}
	if err := createComment(s.DB, postID, u.ID, content); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "error creating comment")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "comment created"})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	u := s.viewer(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	var postID, commentID *int
	if v := r.FormValue("post_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid post id")
			return
		}
		postID = &id
	}
	if v := r.FormValue("comment_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid comment id")
			return
		}
		commentID = &id
	}
	if postID == nil && commentID == nil {
		writeError(w, http.StatusBadRequest, "post id or comment id is required")
		return
	}
	isLike := r.FormValue("is_like") == "true"
	likes, dislikes, err := toggleReaction(s.DB, u.ID, postID, commentID, isLike)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error processing reaction")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"likes": likes, "dislikes": dislikes})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	cats, err := listCategories(s.DB)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "error retrieving categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}
