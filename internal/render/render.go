package render

import (
	"embed"
	"html/template"
	"io"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"forumfront/internal/api"
	"forumfront/internal/view"
)

//go:embed templates
var templatesFS embed.FS

// excerptLen is the summary cutoff, in characters.
const excerptLen = 200

// newWindow is how long a post keeps its NEW marker.
const newWindow = 24 * time.Hour

const timeLayout = "02 Jan 2006 15:04"

// Excerpt truncates s at excerptLen characters and appends an ellipsis
// marker iff it was longer. A string of exactly excerptLen characters is
// returned untouched.
func Excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:excerptLen]) + "..."
}

// IsNew reports whether created is strictly less than 24 hours before now.
func IsNew(created, now time.Time) bool {
	return now.Sub(created) < newWindow
}

// PostView is a post prepared for the templates. Body holds either the full
// text or the excerpt depending on the screen.
type PostView struct {
	ID           int
	URL          string
	Title        string
	Body         string
	AuthorName   string
	CreatedText  string
	IsNew        bool
	Categories   []string
	Likes        int
	Dislikes     int
	UserLiked    bool
	UserDisliked bool
}

type CommentView struct {
	ID           int
	PostID       int
	Body         string
	AuthorName   string
	CreatedText  string
	Likes        int
	Dislikes     int
	UserLiked    bool
	UserDisliked bool
}

type CategoryView struct {
	Name string
	URL  string
}

// Field is a hidden form input carrying view context.
type Field struct {
	Name  string
	Value string
}

// PageData is what every template executes against.
type PageData struct {
	Title         string
	NewPostURL    string
	User          *api.User
	Categories    []CategoryView
	Posts         []PostView
	Post          *PostView
	Comments      []CommentView
	Error         string
	CommentError  string
	Notice        string
	BackURL       string
	Context       []Field
	CategoryNames []string
	Values        map[string]string
}

// Summary maps a post to its list-screen view: truncated body, NEW marker.
func Summary(p api.Post, now time.Time) PostView {
	v := full(p, now)
	v.Body = Excerpt(p.Content)
	return v
}

// Full maps a post to its detail-screen view.
func Full(p api.Post, now time.Time) PostView {
	return full(p, now)
}

func full(p api.Post, now time.Time) PostView {
	return PostView{
		ID:           p.ID,
		Title:        p.Title,
		Body:         p.Content,
		AuthorName:   p.AuthorName,
		CreatedText:  p.Created.Format(timeLayout),
		IsNew:        IsNew(p.Created, now),
		Categories:   p.Categories,
		Likes:        p.Likes,
		Dislikes:     p.Dislikes,
		UserLiked:    p.UserLiked,
		UserDisliked: p.UserDisliked,
	}
}

func comment(c api.Comment, now time.Time) CommentView {
	return CommentView{
		ID:           c.ID,
		PostID:       c.PostID,
		Body:         c.Content,
		AuthorName:   c.AuthorName,
		CreatedText:  c.Created.Format(timeLayout),
		Likes:        c.Likes,
		Dislikes:     c.Dislikes,
		UserLiked:    c.UserLiked,
		UserDisliked: c.UserDisliked,
	}
}

// FilterURL is the list-screen address for a filter.
func FilterURL(f api.Filter) string {
	q := f.Query()
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// PostURL is the detail-screen address for a post. The active filter rides
// along so the back link can return to the same list.
func PostURL(id int, f api.Filter) string {
	q := f.Query()
	q.Set("id", strconv.Itoa(id))
	return "/post?" + q.Encode()
}

// NewPostURL is the create-post form address, carrying the active filter so
// a successful creation reloads the same list.
func NewPostURL(f api.Filter) string {
	q := f.Query()
	if len(q) == 0 {
		return "/post/new"
	}
	return "/post/new?" + q.Encode()
}

func categories(cats []api.Category) []CategoryView {
	views := make([]CategoryView, 0, len(cats))
	for _, c := range cats {
		views = append(views, CategoryView{
			Name: c.Name,
			URL:  FilterURL(api.Filter{Kind: api.FilterCategory, Value: c.Name}),
		})
	}
	return views
}

func contextFields(st view.State) []Field {
	values := st.Context()
	fields := make([]Field, 0, len(values))
	for name := range values {
		fields = append(fields, Field{Name: name, Value: values.Get(name)})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
	return fields
}

// Renderer holds the parsed layout+page template set.
type Renderer struct {
	tmpl map[string]*template.Template
}

func New() (*Renderer, error) {
	pages := []string{"index", "post", "login", "register", "new_post"}
	tmpl := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.ParseFS(templatesFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, err
		}
		tmpl[page] = t
	}
	return &Renderer{tmpl: tmpl}, nil
}

func (r *Renderer) render(w io.Writer, name string, data PageData) error {
	return r.tmpl[name].ExecuteTemplate(w, "layout", data)
}

// List renders the post-list screen for a controller page.
func (r *Renderer) List(w io.Writer, p view.Page, now time.Time) error {
	data := PageData{
		Title:      "Forum",
		NewPostURL: NewPostURL(p.State.Filter),
		User:       p.State.User,
		Categories: categories(p.Categories),
		Error:      p.Error,
		Context:    contextFields(p.State),
	}
	for _, post := range p.Posts {
		v := Summary(post, now)
		v.URL = PostURL(post.ID, p.State.Filter)
		data.Posts = append(data.Posts, v)
	}
	return r.render(w, "index", data)
}

// Detail renders the single-post screen for a controller page.
func (r *Renderer) Detail(w io.Writer, p view.Page, now time.Time) error {
	data := PageData{
		Title:        "Forum",
		NewPostURL:   NewPostURL(p.State.Filter),
		User:         p.State.User,
		Categories:   categories(p.Categories),
		Error:        p.Error,
		CommentError: p.CommentError,
		BackURL:      FilterURL(p.State.Filter),
		Context:      contextFields(p.State),
	}
	if p.Post != nil {
		data.Title = p.Post.Title
		post := Full(*p.Post, now)
		data.Post = &post
	}
	for _, c := range p.Comments {
		data.Comments = append(data.Comments, comment(c, now))
	}
	return r.render(w, "post", data)
}

// Login renders the login form, optionally redisplaying a failure inline.
func (r *Renderer) Login(w io.Writer, errMsg, notice string, values map[string]string) error {
	return r.render(w, "login", PageData{
		Title:  "Log in",
		Error:  errMsg,
		Notice: notice,
		Values: values,
	})
}

// Register renders the registration form.
func (r *Renderer) Register(w io.Writer, errMsg string, values map[string]string) error {
	return r.render(w, "register", PageData{
		Title:  "Register",
		Error:  errMsg,
		Values: values,
	})
}

// NewPost renders the create-post form. An empty name list degrades to a
// category-less form.
func (r *Renderer) NewPost(w io.Writer, user *api.User, names []string, st view.State, errMsg string, values map[string]string) error {
	return r.render(w, "new_post", PageData{
		Title:         "New post",
		User:          user,
		CategoryNames: names,
		Context:       contextFields(st),
		Error:         errMsg,
		Values:        values,
	})
}
