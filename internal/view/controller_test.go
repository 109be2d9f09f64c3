package view

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"forumfront/internal/api"
)

// fakeAPI is a canned forum API that records every request path in order.
type fakeAPI struct {
	mu    sync.Mutex
	paths []string

	user     *api.User
	posts    []api.Post
	post     *api.Post
	comments []api.Comment
	failLike bool
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}
	f.paths = append(f.paths, path)
}

func (f *fakeAPI) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.paths...)
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/user", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.user == nil {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"})
			return
		}
		json.NewEncoder(w).Encode(f.user)
	})
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		json.NewEncoder(w).Encode(f.posts)
	})
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		json.NewEncoder(w).Encode([]api.Category{{Name: "Go"}})
	})
	mux.HandleFunc("/api/post/", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		json.NewEncoder(w).Encode(map[string]any{"post": f.post, "comments": f.comments})
	})
	mux.HandleFunc("/api/like", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.failLike {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "reaction rejected"})
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"likes": 1, "dislikes": 0})
	})
	return mux
}

func newFixture(t *testing.T, f *fakeAPI) *Controller {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return &Controller{API: api.New(srv.URL)}
}

func TestReactAnonymousSendsNothing(t *testing.T) {
	f := &fakeAPI{}
	c := newFixture(t, f)

	postID := 1
	st := State{Screen: ScreenList}
	page := c.React(context.Background(), "", st, &postID, nil, true)
	if !page.NeedLogin {
		t.Fatal("expected a login prompt")
	}
	if got := f.requests(); len(got) != 0 {
		t.Fatalf("anonymous reaction issued requests: %v", got)
	}
}

func TestReactExpiredSessionSendsNoReaction(t *testing.T) {
	f := &fakeAPI{} // /api/user answers 401
	c := newFixture(t, f)

	postID := 1
	page := c.React(context.Background(), "stale", State{Screen: ScreenList}, &postID, nil, true)
	if !page.NeedLogin {
		t.Fatal("expected a login prompt")
	}
	for _, path := range f.requests() {
		if path == "/api/like" {
			t.Fatal("reaction was sent despite expired session")
		}
	}
}

func TestReactOnCommentFromDetailReloadsDetail(t *testing.T) {
	f := &fakeAPI{
		user: &api.User{ID: 1, Username: "alice"},
		post: &api.Post{ID: 7, Title: "hello", Likes: 3},
		comments: []api.Comment{
			{ID: 12, PostID: 7, Content: "first", Likes: 1},
		},
	}
	c := newFixture(t, f)

	st := State{
		User:   f.user,
		Filter: api.Filter{Kind: api.FilterCategory, Value: "Go"},
		Screen: ScreenDetail,
		PostID: 7,
	}
	commentID := 12
	page := c.React(context.Background(), "sess", st, nil, &commentID, true)

	if page.State.Screen != ScreenDetail || page.State.PostID != 7 {
		t.Fatalf("reaction re-rendered %s/%d, want detail/7", page.State.Screen, page.State.PostID)
	}
	if page.Post == nil || page.Post.ID != 7 {
		t.Fatalf("detail post missing: %+v", page.Post)
	}
	if len(page.Comments) != 1 || page.Comments[0].Likes != 1 {
		t.Fatalf("refetched comments missing counts: %+v", page.Comments)
	}
	if page.State.Filter != st.Filter {
		t.Errorf("filter changed across reaction: %+v", page.State.Filter)
	}
}

func TestReactOnOtherPostFromDetailReloadsList(t *testing.T) {
	f := &fakeAPI{user: &api.User{ID: 1, Username: "alice"}}
	c := newFixture(t, f)

	st := State{User: f.user, Screen: ScreenDetail, PostID: 7}
	otherPost := 9
	page := c.React(context.Background(), "sess", st, &otherPost, nil, false)
	if page.State.Screen != ScreenList {
		t.Fatalf("reaction on a different post should fall back to the list, got %s", page.State.Screen)
	}
}

func TestReactFromListKeepsFilter(t *testing.T) {
	f := &fakeAPI{user: &api.User{ID: 1, Username: "alice"}}
	c := newFixture(t, f)

	st := State{
		User:   f.user,
		Filter: api.Filter{Kind: api.FilterLiked},
		Screen: ScreenList,
	}
	postID := 3
	page := c.React(context.Background(), "sess", st, &postID, nil, true)

	if page.State.Screen != ScreenList {
		t.Fatalf("screen = %s, want list", page.State.Screen)
	}
	if page.State.Filter.Kind != api.FilterLiked {
		t.Fatalf("filter = %+v, want liked", page.State.Filter)
	}
	found := false
	for _, path := range f.requests() {
		if path == "/api/posts?filter=liked" {
			found = true
		}
	}
	if !found {
		t.Fatalf("list was not refetched under the prior filter: %v", f.requests())
	}
}

func TestReactFailureRendersInlineError(t *testing.T) {
	f := &fakeAPI{user: &api.User{ID: 1, Username: "alice"}, failLike: true}
	c := newFixture(t, f)

	postID := 3
	page := c.React(context.Background(), "sess", State{User: f.user, Screen: ScreenList}, &postID, nil, true)
	if page.Error != "reaction rejected" {
		t.Fatalf("error = %q, want the server's wording", page.Error)
	}
}

func TestOpenListIdentityRefreshComesFirst(t *testing.T) {
	f := &fakeAPI{user: &api.User{ID: 1, Username: "alice"}}
	c := newFixture(t, f)

	page := c.OpenList(context.Background(), "sess", api.Filter{})
	if page.State.User == nil {
		t.Fatal("identity not refreshed")
	}
	paths := f.requests()
	if len(paths) == 0 || paths[0] != "/api/user" {
		t.Fatalf("identity must be fetched before the list, got %v", paths)
	}
}

func TestOpenListFailureStaysOnList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "posts unavailable"})
	}))
	defer srv.Close()
	c := &Controller{API: api.New(srv.URL)}

	page := c.OpenList(context.Background(), "", api.Filter{Kind: api.FilterCategory, Value: "Go"})
	if page.State.Screen != ScreenList {
		t.Fatalf("screen = %s, want list", page.State.Screen)
	}
	if page.Error != "posts unavailable" {
		t.Fatalf("error = %q", page.Error)
	}
	if page.State.Filter.Value != "Go" {
		t.Fatalf("filter lost on failure: %+v", page.State.Filter)
	}
}

func TestOpenDetailPreservesFilter(t *testing.T) {
	f := &fakeAPI{
		user: &api.User{ID: 1, Username: "alice"},
		post: &api.Post{ID: 4, Title: "t", Created: time.Now()},
	}
	c := newFixture(t, f)

	filter := api.Filter{Kind: api.FilterCreated}
	page := c.OpenDetail(context.Background(), "sess", filter, 4)
	if page.State.Screen != ScreenDetail || page.State.PostID != 4 {
		t.Fatalf("state = %+v", page.State)
	}
	if page.State.Filter != filter {
		t.Fatalf("filter not preserved: %+v", page.State.Filter)
	}
}
