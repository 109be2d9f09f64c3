package view

import (
	"context"

	"forumfront/internal/api"
)

// Page is the outcome of a controller operation: the new State plus the data
// the active screen needs. Error and CommentError are inline texts, never
// fatal.
type Page struct {
	State        State
	Posts        []api.Post
	Post         *api.Post
	Comments     []api.Comment
	Categories   []api.Category
	Error        string
	CommentError string
	// NeedLogin is set when a reaction was attempted anonymously; no
	// request was sent and the caller should prompt for login.
	NeedLogin bool
}

// Controller owns the view-state transitions. Every operation refreshes the
// current user before the dependent fetch, so rendered reaction flags and
// auth-gated controls reflect the freshest identity.
type Controller struct {
	API *api.Client
}

func errText(err error) string {
	return api.MessageFor(err)
}

// OpenList switches to the list screen under the given filter. A fetch
// failure renders an inline error and stays on the list.
func (c *Controller) OpenList(ctx context.Context, session string, f api.Filter) Page {
	st := State{
		User:   c.API.CurrentUser(ctx, session),
		Filter: f,
		Screen: ScreenList,
	}
	page := Page{State: st}
	page.Categories, _ = c.API.ListCategories(ctx, session)
	posts, err := c.API.ListPosts(ctx, session, f)
	if err != nil {
		page.Error = errText(err)
		return page
	}
	page.Posts = posts
	return page
}

// OpenDetail switches to the detail screen for one post. The filter is
// preserved unchanged for a later return to the list.
func (c *Controller) OpenDetail(ctx context.Context, session string, f api.Filter, postID int) Page {
	st := State{
		User:   c.API.CurrentUser(ctx, session),
		Filter: f,
		Screen: ScreenDetail,
		PostID: postID,
	}
	page := Page{State: st}
	page.Categories, _ = c.API.ListCategories(ctx, session)
	post, comments, err := c.API.GetPost(ctx, session, postID)
	if err != nil {
		page.Error = errText(err)
		return page
	}
	page.Post = post
	page.Comments = comments
	return page
}

// SubmitComment posts a comment and re-enters the detail screen. On failure
// the detail screen is re-rendered with the message inline, view unchanged.
func (c *Controller) SubmitComment(ctx context.Context, session string, st State, postID int, content string) Page {
	err := c.API.CreateComment(ctx, session, postID, content)
	page := c.OpenDetail(ctx, session, st.Filter, postID)
	if err != nil {
		page.CommentError = errText(err)
	}
	return page
}

// React applies a like or dislike and decides which view to re-render in
// place. Without a session no request is issued at all; the caller prompts
// for login instead.
//
// After a successful reaction: if the originating screen was the detail of
// the target's post, that detail is reloaded; otherwise the list is reloaded
// under the filter active before the reaction. For a comment reaction the
// parent post id is resolved from the detail context in st, never from the
// reaction response.
func (c *Controller) React(ctx context.Context, session string, st State, postID, commentID *int, isLike bool) Page {
	if session == "" {
		return Page{State: st, NeedLogin: true}
	}
	st.User = c.API.CurrentUser(ctx, session)
	if st.User == nil {
		return Page{State: st, NeedLogin: true}
	}
	err := c.API.React(ctx, session, postID, commentID, isLike)
	if page, ok := c.reactTarget(ctx, session, st, postID, commentID); ok {
		if err != nil {
			page.Error = errText(err)
		}
		return page
	}
	page := c.OpenList(ctx, session, st.Filter)
	if err != nil {
		page.Error = errText(err)
	}
	return page
}

// reactTarget reports whether the reaction belongs to the currently
// displayed detail post, and if so reloads that detail.
func (c *Controller) reactTarget(ctx context.Context, session string, st State, postID, commentID *int) (Page, bool) {
	if st.Screen != ScreenDetail || st.PostID == 0 {
		return Page{}, false
	}
	// A comment reaction can only originate from its parent's detail
	// screen, so the context post is the parent.
	if commentID != nil {
		return c.OpenDetail(ctx, session, st.Filter, st.PostID), true
	}
	if postID != nil && *postID == st.PostID {
		return c.OpenDetail(ctx, session, st.Filter, st.PostID), true
	}
	return Page{}, false
}
