package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"forumfront/internal/api"
	"forumfront/internal/view"
)

func TestExcerpt(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"short", "hello", "hello"},
		{"exactly 200", strings.Repeat("a", 200), strings.Repeat("a", 200)},
		{"201", strings.Repeat("a", 201), strings.Repeat("a", 200) + "..."},
		{"multibyte", strings.Repeat("я", 250), strings.Repeat("я", 200) + "..."},
	}
	for _, c := range cases {
		if got := Excerpt(c.in); got != c.want {
			t.Errorf("%s: Excerpt gave %d chars, want %d", c.name, len(got), len(c.want))
		}
	}
}

func TestIsNew(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		created time.Time
		want    bool
	}{
		{"just posted", now, true},
		{"23h59m ago", now.Add(-24*time.Hour + time.Minute), true},
		{"exactly 24h ago", now.Add(-24 * time.Hour), false},
		{"old", now.Add(-48 * time.Hour), false},
	}
	for _, c := range cases {
		if got := IsNew(c.created, now); got != c.want {
			t.Errorf("%s: IsNew = %v, want %v", c.name, got, c.want)
		}
	}
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return r
}

func TestListRendersPlaceholderForEmptyResult(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	page := view.Page{State: view.State{Screen: view.ScreenList}}
	if err := r.List(&buf, page, time.Now()); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()
	if !strings.Contains(body, "No posts found.") {
		t.Error("empty list must render the placeholder")
	}
	if strings.Contains(body, `class="post"`) {
		t.Error("empty list rendered posts")
	}
	if strings.Contains(body, `class="error"`) {
		t.Error("empty list rendered an error")
	}
}

func TestListEscapesUserSuppliedText(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	page := view.Page{
		State: view.State{Screen: view.ScreenList},
		Posts: []api.Post{{
			ID:         1,
			Title:      `<script>alert("x")</script>`,
			Content:    "safe enough",
			AuthorName: "<b>bob</b>",
			Created:    time.Now(),
		}},
	}
	if err := r.List(&buf, page, time.Now()); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()
	if strings.Contains(body, "<script>") {
		t.Error("title was not escaped")
	}
	if strings.Contains(body, "<b>bob</b>") {
		t.Error("author name was not escaped")
	}
}

func TestListReactionControlsReflectUserState(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	page := view.Page{
		State: view.State{Screen: view.ScreenList, User: &api.User{ID: 1, Username: "alice"}},
		Posts: []api.Post{{
			ID: 1, Title: "liked already", Content: "body", Created: time.Now(),
			Likes: 4, Dislikes: 2, UserLiked: true,
		}},
	}
	if err := r.List(&buf, page, time.Now()); err != nil {
		t.Fatalf("render: %v", err)
	}
	body := buf.String()
	if !strings.Contains(body, `like-btn active`) {
		t.Error("liked post must render an active like control")
	}
	if strings.Contains(body, `dislike-btn active`) {
		t.Error("dislike control should not be active")
	}
	if !strings.Contains(body, "&#128077; 4") || !strings.Contains(body, "&#128078; 2") {
		t.Error("counts missing from reaction controls")
	}
}

func TestNewMarkerInList(t *testing.T) {
	r := newRenderer(t)
	now := time.Now()
	fresh := api.Post{ID: 1, Title: "fresh", Content: "b", Created: now.Add(-time.Hour)}
	stale := api.Post{ID: 2, Title: "stale", Content: "b", Created: now.Add(-25 * time.Hour)}

	var buf bytes.Buffer
	page := view.Page{State: view.State{Screen: view.ScreenList}, Posts: []api.Post{fresh}}
	r.List(&buf, page, now)
	if !strings.Contains(buf.String(), "NEW") {
		t.Error("fresh post missing NEW marker")
	}

	buf.Reset()
	page.Posts = []api.Post{stale}
	r.List(&buf, page, now)
	if strings.Contains(buf.String(), `badge-new`) {
		t.Error("stale post rendered a NEW marker")
	}
}

func TestAuthControls(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	page := view.Page{State: view.State{Screen: view.ScreenList}}
	r.List(&buf, page, time.Now())
	body := buf.String()
	if !strings.Contains(body, "Log in") || !strings.Contains(body, "Register") {
		t.Error("anonymous page missing login/register controls")
	}
	if strings.Contains(body, "My filters") {
		t.Error("anonymous page rendered user shortcuts")
	}

	buf.Reset()
	page.State.User = &api.User{ID: 1, Username: "alice"}
	r.List(&buf, page, time.Now())
	body = buf.String()
	if !strings.Contains(body, "Hello, <b>alice</b>!") {
		t.Error("greeting missing")
	}
	if !strings.Contains(body, "Create post") || !strings.Contains(body, "Log out") {
		t.Error("authenticated controls missing")
	}
	if !strings.Contains(body, "/?filter=created") || !strings.Contains(body, "/?filter=liked") {
		t.Error("user shortcuts missing")
	}
}

func TestDetailCommentFormGatedByUser(t *testing.T) {
	r := newRenderer(t)
	post := api.Post{ID: 3, Title: "t", Content: "c", Created: time.Now()}
	page := view.Page{
		State: view.State{Screen: view.ScreenDetail, PostID: 3},
		Post:  &post,
	}

	var buf bytes.Buffer
	r.Detail(&buf, page, time.Now())
	if !strings.Contains(buf.String(), "Log in to leave a comment.") {
		t.Error("anonymous detail missing the login hint")
	}

	buf.Reset()
	page.State.User = &api.User{ID: 1, Username: "alice"}
	r.Detail(&buf, page, time.Now())
	if !strings.Contains(buf.String(), `action="/post/comment"`) {
		t.Error("authenticated detail missing the comment form")
	}
}

func TestDetailBackLinkKeepsFilter(t *testing.T) {
	r := newRenderer(t)
	post := api.Post{ID: 3, Title: "t", Content: "c", Created: time.Now()}
	page := view.Page{
		State: view.State{
			Screen: view.ScreenDetail,
			PostID: 3,
			Filter: api.Filter{Kind: api.FilterCategory, Value: "Go"},
		},
		Post: &post,
	}
	var buf bytes.Buffer
	r.Detail(&buf, page, time.Now())
	if !strings.Contains(buf.String(), `href="/?filter=category&amp;value=Go"`) {
		t.Error("back link lost the active filter")
	}
}
