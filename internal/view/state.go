package view

import (
	"net/url"
	"strconv"

	"forumfront/internal/api"
)

// Screen tags which of the two top-level views is active. It is carried
// explicitly through rendered links and form fields; view identity is never
// inferred from rendered content.
type Screen string

const (
	ScreenList   Screen = "list"
	ScreenDetail Screen = "detail"
)

// State is the client-side view state: the current user (nil when
// anonymous), the active post filter, and the active screen. It is a value
// passed into and returned from every controller operation.
type State struct {
	User   *api.User
	Filter api.Filter
	Screen Screen
	PostID int // the displayed post when Screen == ScreenDetail
}

// Context round-trips the non-identity parts of State through form fields,
// so a mutating request carries the view it originated from.
func (s State) Context() url.Values {
	v := url.Values{}
	v.Set("screen", string(s.Screen))
	if s.Screen == ScreenDetail {
		v.Set("ctx_post", strconv.Itoa(s.PostID))
	}
	if s.Filter.Kind != api.FilterNone {
		v.Set("ctx_filter", string(s.Filter.Kind))
		if s.Filter.Value != "" {
			v.Set("ctx_value", s.Filter.Value)
		}
	}
	return v
}

// StateFromForm reconstructs the originating State from a request's context
// fields. Unknown or absent fields fall back to the list screen with no
// filter.
func StateFromForm(get func(string) string) State {
	st := State{Screen: ScreenList}
	if Screen(get("screen")) == ScreenDetail {
		st.Screen = ScreenDetail
		st.PostID, _ = strconv.Atoi(get("ctx_post"))
	}
	switch api.FilterKind(get("ctx_filter")) {
	case api.FilterCategory:
		st.Filter = api.Filter{Kind: api.FilterCategory, Value: get("ctx_value")}
	case api.FilterCreated:
		st.Filter = api.Filter{Kind: api.FilterCreated}
	case api.FilterLiked:
		st.Filter = api.Filter{Kind: api.FilterLiked}
	}
	return st
}
