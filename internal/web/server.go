package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"forumfront/internal/api"
	"forumfront/internal/render"
	"forumfront/internal/view"
)

//go:embed static
var staticFS embed.FS

// Server is the HTML-facing surface of the frontend. It forwards the opaque
// session cookie to the API on every call and never interprets it.
type Server struct {
	API        *api.Client
	Controller *view.Controller
	Renderer   *render.Renderer

	now func() time.Time
}

func New(client *api.Client) (*Server, error) {
	renderer, err := render.New()
	if err != nil {
		return nil, err
	}
	return &Server{
		API:        client,
		Controller: &view.Controller{API: client},
		Renderer:   renderer,
		now:        time.Now,
	}, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/post", s.handlePost)
	mux.HandleFunc("/post/new", s.handleNewPost)
	mux.HandleFunc("/post/comment", s.handleComment)
	mux.HandleFunc("/react", s.handleReact)
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/register", s.handleRegister)
	mux.HandleFunc("/logout", s.handleLogout)
	static, _ := fs.Sub(staticFS, "static")
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logRequests(s.routes()).ServeHTTP(w, r)
}

// logRequests tags every request with a short id and logs method, path,
// duration and origin.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := uuid.NewString()[:8]
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s %s %s %s", id, r.Method, r.URL.Path, time.Since(start), r.RemoteAddr)
	})
}

// session extracts the forwarded API session cookie value, "" when absent.
func session(r *http.Request) string {
	cookie, err := r.Cookie(api.SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// parseFilter reads the list filter from query or form values.
func parseFilter(get func(string) string) api.Filter {
	switch api.FilterKind(get("filter")) {
	case api.FilterCategory:
		return api.Filter{Kind: api.FilterCategory, Value: get("value")}
	case api.FilterCreated:
		return api.Filter{Kind: api.FilterCreated}
	case api.FilterLiked:
		return api.Filter{Kind: api.FilterLiked}
	}
	return api.Filter{}
}

func queryGet(r *http.Request) func(string) string {
	q := r.URL.Query()
	return func(name string) string { return q.Get(name) }
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	page := s.Controller.OpenList(r.Context(), session(r), parseFilter(queryGet(r)))
	s.Renderer.List(w, page, s.now())
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, _ := strconv.Atoi(r.URL.Query().Get("id"))
	if id == 0 {
		http.NotFound(w, r)
		return
	}
	page := s.Controller.OpenDetail(r.Context(), session(r), parseFilter(queryGet(r)), id)
	s.Renderer.Detail(w, page, s.now())
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	st := view.StateFromForm(r.FormValue)
	postID, _ := strconv.Atoi(r.FormValue("post_id"))
	if postID == 0 {
		http.NotFound(w, r)
		return
	}
	page := s.Controller.SubmitComment(r.Context(), session(r), st, postID, r.FormValue("content"))
	if page.CommentError == "" {
		http.Redirect(w, r, render.PostURL(postID, st.Filter), http.StatusSeeOther)
		return
	}
	s.Renderer.Detail(w, page, s.now())
}

func (s *Server) handleReact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	st := view.StateFromForm(r.FormValue)
	var postID, commentID *int
	if id, err := strconv.Atoi(r.FormValue("post_id")); err == nil && id > 0 {
		postID = &id
	}
	if id, err := strconv.Atoi(r.FormValue("comment_id")); err == nil && id > 0 {
		commentID = &id
	}
	if postID == nil && commentID == nil {
		http.Error(w, "missing reaction target", http.StatusBadRequest)
		return
	}
	isLike := r.FormValue("is_like") == "true"
	page := s.Controller.React(r.Context(), session(r), st, postID, commentID, isLike)
	if page.NeedLogin {
		http.Redirect(w, r, "/login?reason=react", http.StatusSeeOther)
		return
	}
	// Re-render in place: the controller already decided which screen the
	// reaction refreshes.
	if page.State.Screen == view.ScreenDetail {
		s.Renderer.Detail(w, page, s.now())
		return
	}
	s.Renderer.List(w, page, s.now())
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		notice := ""
		if r.URL.Query().Get("reason") == "react" {
			notice = "Log in to react to posts."
		}
		s.Renderer.Login(w, "", notice, nil)
	case http.MethodPost:
		email := r.FormValue("email")
		password := r.FormValue("password")
		cookie, err := s.API.Login(r.Context(), email, password)
		if err != nil {
			s.Renderer.Login(w, api.MessageFor(err), "", map[string]string{"email": email})
			return
		}
		cookie.Path = "/"
		http.SetCookie(w, cookie)
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.Renderer.Register(w, "", nil)
	case http.MethodPost:
		username := r.FormValue("username")
		email := r.FormValue("email")
		if err := s.API.Register(r.Context(), username, email, r.FormValue("password")); err != nil {
			s.Renderer.Register(w, api.MessageFor(err), map[string]string{
				"username": username,
				"email":    email,
			})
			return
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if sess := session(r); sess != "" {
		s.API.Logout(r.Context(), sess)
	}
	http.SetCookie(w, &http.Cookie{Name: api.SessionCookie, Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleNewPost(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sess := session(r)
		user := s.API.CurrentUser(r.Context(), sess)
		if user == nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		st := view.State{Filter: parseFilter(queryGet(r)), Screen: view.ScreenList}
		s.Renderer.NewPost(w, user, s.categoryNames(r, sess), st, "", nil)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form", http.StatusBadRequest)
			return
		}
		sess := session(r)
		st := view.StateFromForm(r.FormValue)
		title := r.FormValue("title")
		content := r.FormValue("content")
		cats := selectedCategories(r.Form)
		if err := s.API.CreatePost(r.Context(), sess, title, content, cats); err != nil {
			user := s.API.CurrentUser(r.Context(), sess)
			s.Renderer.NewPost(w, user, s.categoryNames(r, sess), st, api.MessageFor(err), map[string]string{
				"title":   title,
				"content": content,
			})
			return
		}
		http.Redirect(w, r, render.FilterURL(st.Filter), http.StatusSeeOther)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// categoryNames fetches the selector options; a failed fetch degrades to a
// category-less form.
func (s *Server) categoryNames(r *http.Request, sess string) []string {
	cats, err := s.API.ListCategories(r.Context(), sess)
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(cats))
	for _, c := range cats {
		names = append(names, c.Name)
	}
	return names
}

func selectedCategories(form url.Values) []string {
	var names []string
	for _, name := range form["categories"] {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
