package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SessionCookie is the name of the opaque session cookie issued by the forum
// API. The frontend forwards it verbatim and never interprets its value.
const SessionCookie = "session_id"

// genericMessage is shown when a rejected request carries no parsable error.
const genericMessage = "something went wrong, please try again"

// Error is a rejected request: the API answered with a non-2xx status.
// Message is the server's own wording when one was provided.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Client-side validation failures for CreatePost. The server enforces the
// same bounds independently.
var (
	ErrTitleLength       = errors.New("title must be between 5 and 100 characters")
	ErrContentLength     = errors.New("content must be between 10 and 2000 characters")
	ErrTooManyCategories = errors.New("at most 4 categories can be selected")
)

// MessageFor maps an operation failure to its user-facing inline text:
// the server's wording for a rejected request, a validation error's own
// wording, and the generic message for everything else (transport failures,
// unparsable bodies).
func MessageFor(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, ErrTitleLength),
		errors.Is(err, ErrContentLength),
		errors.Is(err, ErrTooManyCategories):
		return err.Error()
	}
	return genericMessage
}

// FilterKind selects the post-list query.
type FilterKind string

const (
	FilterNone     FilterKind = ""
	FilterCategory FilterKind = "category"
	FilterCreated  FilterKind = "created"
	FilterLiked    FilterKind = "liked"
)

// Filter narrows the post list. Value is meaningful only for FilterCategory.
type Filter struct {
	Kind  FilterKind
	Value string
}

// Query encodes the filter as /api/posts query parameters. FilterNone emits
// no parameters at all.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Kind == FilterNone {
		return q
	}
	q.Set("filter", string(f.Kind))
	if f.Kind == FilterCategory && f.Value != "" {
		q.Set("value", f.Value)
	}
	return q
}

// Client talks to the forum API. Each method performs exactly one request.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, session string, body string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if session != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: session})
	}
	return req, nil
}

// checkStatus consumes a non-2xx response into an *Error. The body is
// expected to be {"error": string}; anything else degrades to the generic
// message.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	var payload struct {
		Error string `json:"error"`
	}
	msg := genericMessage
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}
	return &Error{Status: resp.StatusCode, Message: msg}
}

// getJSON performs a GET and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, path, session string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, session, "")
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("forum api: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// postForm performs a form-encoded POST and reports only success or failure.
func (c *Client) postForm(ctx context.Context, path, session string, form url.Values) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, session, form.Encode())
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("forum api: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// CurrentUser resolves the session to a user. Any failure, transport or
// otherwise, means anonymous.
func (c *Client) CurrentUser(ctx context.Context, session string) *User {
	if session == "" {
		return nil
	}
	var u User
	if err := c.getJSON(ctx, "/api/user", session, &u); err != nil {
		return nil
	}
	if u.ID == 0 {
		return nil
	}
	return &u
}

// ListPosts fetches posts under the given filter, in server order.
func (c *Client) ListPosts(ctx context.Context, session string, f Filter) ([]Post, error) {
	path := "/api/posts"
	if q := f.Query(); len(q) > 0 {
		path += "?" + q.Encode()
	}
	var posts []Post
	if err := c.getJSON(ctx, path, session, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// ListCategories fetches the category set.
func (c *Client) ListCategories(ctx context.Context, session string) ([]Category, error) {
	var cats []Category
	if err := c.getJSON(ctx, "/api/categories", session, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

// GetPost fetches one post with its comments.
func (c *Client) GetPost(ctx context.Context, session string, id int) (*Post, []Comment, error) {
	var payload struct {
		Post     Post      `json:"post"`
		Comments []Comment `json:"comments"`
	}
	if err := c.getJSON(ctx, "/api/post/"+strconv.Itoa(id), session, &payload); err != nil {
		return nil, nil, err
	}
	return &payload.Post, payload.Comments, nil
}

// Login authenticates and returns the session cookie the API issued, for
// forwarding to the browser.
func (c *Client) Login(ctx context.Context, email, password string) (*http.Cookie, error) {
	form := url.Values{}
	form.Set("email", email)
	form.Set("password", password)
	req, err := c.newRequest(ctx, http.MethodPost, "/api/login", "", form.Encode())
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forum api: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	for _, cookie := range resp.Cookies() {
		if cookie.Name == SessionCookie {
			return cookie, nil
		}
	}
	return nil, &Error{Status: resp.StatusCode, Message: genericMessage}
}

// Register creates an account. The user still has to log in afterwards.
func (c *Client) Register(ctx context.Context, username, email, password string) error {
	form := url.Values{}
	form.Set("username", username)
	form.Set("email", email)
	form.Set("password", password)
	return c.postForm(ctx, "/api/register", "", form)
}

// Logout revokes the session on the API side.
func (c *Client) Logout(ctx context.Context, session string) error {
	return c.postForm(ctx, "/api/logout", session, url.Values{})
}

// CreatePost validates locally, then submits. Categories are comma-joined on
// the wire.
func (c *Client) CreatePost(ctx context.Context, session, title, content string, categories []string) error {
	if n := utf8.RuneCountInString(title); n < 5 || n > 100 {
		return ErrTitleLength
	}
	if n := utf8.RuneCountInString(content); n < 10 || n > 2000 {
		return ErrContentLength
	}
	if len(categories) > 4 {
		return ErrTooManyCategories
	}
	form := url.Values{}
	form.Set("title", title)
	form.Set("content", content)
	form.Set("categories", strings.Join(categories, ","))
	return c.postForm(ctx, "/api/posts", session, form)
}

// CreateComment adds a comment to a post.
func (c *Client) CreateComment(ctx context.Context, session string, postID int, content string) error {
	form := url.Values{}
	form.Set("post_id", strconv.Itoa(postID))
	form.Set("content", content)
	return c.postForm(ctx, "/api/comments", session, form)
}

// React likes or dislikes a post or a comment. Exactly one of postID and
// commentID must be non-nil; that is the caller's contract. Updated counts
// arrive via the refetch that follows, not from this response.
func (c *Client) React(ctx context.Context, session string, postID, commentID *int, isLike bool) error {
	form := url.Values{}
	if postID != nil {
		form.Set("post_id", strconv.Itoa(*postID))
	}
	if commentID != nil {
		form.Set("comment_id", strconv.Itoa(*commentID))
	}
	form.Set("is_like", strconv.FormatBool(isLike))
	return c.postForm(ctx, "/api/like", session, form)
}
