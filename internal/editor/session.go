// Package editor implements the admin article editing session: form state,
// dirty tracking with a navigation guard, sequential image uploads, primary
// image selection and image deletion.
//
// Every operation converts failures into Notices; nothing is returned to the
// caller as an error except where a caller needs a direct answer (UploadInline).
package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/metrics"
)

// ArticleListPath is where a finished session navigates to.
const ArticleListPath = "/admin/clanci"

// API is the subset of the REST client the editor needs.
type API interface {
	GetArticle(ctx context.Context, id int64) (*api.Article, error)
	CreateArticle(ctx context.Context, in api.ArticleInput) (*api.Article, error)
	UpdateArticle(ctx context.Context, id int64, in api.ArticleInput) (*api.Article, error)
	ListCategories(ctx context.Context) ([]api.Category, error)
	UploadImage(ctx context.Context, articleID int64, f api.FileUpload) (*api.Image, error)
	UploadInlineImage(ctx context.Context, f api.FileUpload) (*api.InlineImage, error)
	SetPrimaryImage(ctx context.Context, imageID int64) error
	DeleteImage(ctx context.Context, imageID int64) error
}

// Mode tells whether the session creates a new article or edits an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// State is the main state of a session.
type State int

const (
	Idle State = iota
	Loading
	Editing
	Submitting
	// Failed means the article could not be loaded; the form stays unusable.
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Editing:
		return "editing"
	case Submitting:
		return "submitting"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fields are the editable article fields.
type Fields struct {
	Title       string
	Content     string
	Summary     string
	CategoryID  int64
	IsPublished bool
}

func (f Fields) input() api.ArticleInput {
	return api.ArticleInput{
		Title:       f.Title,
		Content:     f.Content,
		Summary:     f.Summary,
		CategoryID:  f.CategoryID,
		IsPublished: f.IsPublished,
	}
}

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeSuccess:
		return "success"
	case NoticeError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a user-facing message produced by an operation.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Navigation is a path the caller should navigate to. Empty means stay.
type Navigation string

// Options tunes a Session.
type Options struct {
	MaxUploadBytes     int64
	ProgressResetDelay time.Duration
	// OnProgress, when set, is called with 0..100 after every file of a batch.
	OnProgress func(percent int)
	// OnImagesChanged, when set, is called after the API accepted an upload,
	// a primary image change or an image deletion.
	OnImagesChanged func()
	Log             logger.Logger
}

// Session is one editing session. It is safe for concurrent use; the lock is
// released while network calls are in flight.
type Session struct {
	mu   sync.Mutex
	api  API
	opts Options
	log  logger.Logger

	mode       Mode
	state      State
	articleID  int64
	slug       string
	fields     Fields
	loaded     bool
	dirty      bool
	images     []api.Image
	categories []api.Category

	uploading  bool
	progress   int
	resetTimer *time.Timer

	dialog  DialogRequest
	notices []Notice
}

// New creates a session. articleID zero starts a new article, anything else edits
// that article once Initialize has loaded it.
func New(client API, articleID int64, opts Options) *Session {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	mode := ModeCreate
	if articleID != 0 {
		mode = ModeEdit
	}
	return &Session{
		api:       client,
		opts:      opts,
		log:       log.With(map[string]interface{}{"article_id": articleID, "mode": mode.String()}),
		mode:      mode,
		articleID: articleID,
		fields:    Fields{IsPublished: true},
	}
}

// Initialize loads categories and, in edit mode, the article itself.
// Calling it more than once has no effect.
func (s *Session) Initialize(ctx context.Context) {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return
	}
	if s.mode == ModeEdit {
		s.state = Loading
	}
	id := s.articleID
	s.mu.Unlock()

	categories, catErr := s.api.ListCategories(ctx)

	var article *api.Article
	var loadErr error
	if s.mode == ModeEdit {
		article, loadErr = s.api.GetArticle(ctx, id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if catErr != nil {
		s.log.Error(catErr, "Failed to load categories")
		s.notify(NoticeError, "Greška pri učitavanju kategorija")
	} else {
		s.categories = categories
		if s.mode == ModeCreate && s.fields.CategoryID == 0 && len(categories) > 0 {
			s.fields.CategoryID = categories[0].ID
		}
	}

	if s.mode == ModeCreate {
		s.state = Editing
		return
	}
	if loadErr != nil {
		s.log.Error(loadErr, "Failed to load article")
		s.notify(NoticeError, "Greška pri učitavanju članka")
		s.state = Failed
		return
	}

	s.fields = Fields{
		Title:       article.Title,
		Content:     article.Content,
		Summary:     article.Summary,
		CategoryID:  article.CategoryID,
		IsPublished: article.IsPublished,
	}
	s.slug = article.Slug
	s.images = append([]api.Image(nil), article.Images...)
	if article.ID != 0 {
		s.articleID = article.ID
	}
	s.loaded = true
	s.dirty = false
	s.state = Editing
}

// mutate applies fn to the fields. force marks the session dirty even when no
// value changed, which is what a single-field edit event means.
func (s *Session) mutate(force bool, fn func(f *Fields)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Editing {
		return
	}
	before := s.fields
	fn(&s.fields)
	if (force || s.fields != before) && s.mode == ModeEdit && s.loaded {
		s.dirty = true
	}
}

// SetTitle edits the title.
func (s *Session) SetTitle(v string) { s.mutate(true, func(f *Fields) { f.Title = v }) }

// SetContent edits the body.
func (s *Session) SetContent(v string) { s.mutate(true, func(f *Fields) { f.Content = v }) }

// SetSummary edits the summary.
func (s *Session) SetSummary(v string) { s.mutate(true, func(f *Fields) { f.Summary = v }) }

// SetCategory selects the category.
func (s *Session) SetCategory(id int64) { s.mutate(true, func(f *Fields) { f.CategoryID = id }) }

// SetPublished toggles public visibility.
func (s *Session) SetPublished(v bool) { s.mutate(true, func(f *Fields) { f.IsPublished = v }) }

// Apply replaces all fields at once, as posted by the form. Only an actual
// change marks the session dirty.
func (s *Session) Apply(f Fields) {
	s.mutate(false, func(cur *Fields) { *cur = f })
}

// Submit validates and saves the article. On success it returns the article list
// path; otherwise the session stays in Editing and a notice explains why.
func (s *Session) Submit(ctx context.Context) Navigation {
	s.mu.Lock()
	if s.state != Editing {
		s.mu.Unlock()
		return ""
	}
	if verr := Validate(s.fields); verr != nil {
		s.notify(NoticeError, verr.Message)
		s.mu.Unlock()
		return ""
	}
	s.state = Submitting
	mode, id, in := s.mode, s.articleID, s.fields.input()
	s.mu.Unlock()

	var saved *api.Article
	var err error
	if mode == ModeEdit {
		saved, err = s.api.UpdateArticle(ctx, id, in)
	} else {
		saved, err = s.api.CreateArticle(ctx, in)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Editing

	if err != nil {
		metrics.ArticleSaves.WithLabelValues(mode.String(), "failure").Inc()
		s.log.Error(err, "Failed to save article")
		msg := api.Message(err)
		if msg == "" {
			msg = "Greška pri čuvanju članka"
		}
		s.notify(NoticeError, msg)
		return ""
	}

	metrics.ArticleSaves.WithLabelValues(mode.String(), "success").Inc()
	s.dirty = false
	if mode == ModeEdit {
		s.notify(NoticeSuccess, "Članak je uspješno ažuriran")
	} else {
		if saved != nil && saved.ID != 0 {
			s.articleID = saved.ID
		}
		s.notify(NoticeSuccess, "Članak je uspješno kreiran")
	}
	if saved != nil && saved.Slug != "" {
		s.slug = saved.Slug
	}
	return ArticleListPath
}

// RequestLeave asks to navigate away. With unsaved changes it stages the
// confirmation dialog and stays; otherwise it returns the article list path.
func (s *Session) RequestLeave() Navigation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dirty {
		if s.dialog.Kind == DialogNone {
			s.dialog = DialogRequest{Kind: DialogUnsavedChanges}
		}
		return ""
	}
	return ArticleListPath
}

// Notices drains the pending notices.
func (s *Session) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notices
	s.notices = nil
	return n
}

func (s *Session) notify(kind NoticeKind, msg string) {
	s.notices = append(s.notices, Notice{Kind: kind, Message: msg})
}

// View is a consistent snapshot of a session for rendering.
type View struct {
	Mode       Mode
	State      State
	ArticleID  int64
	Slug       string
	Fields     Fields
	Images     []api.Image
	Categories []api.Category
	Dirty      bool
	Uploading  bool
	Progress   int
	Dialog     DialogRequest
}

// CanUpload reports whether images may be attached.
func (v View) CanUpload() bool {
	return v.ArticleID != 0 && v.State == Editing && !v.Uploading
}

// Busy reports whether the form controls should be disabled.
func (v View) Busy() bool {
	return v.State != Editing
}

// View returns a snapshot of the session.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Mode:       s.mode,
		State:      s.state,
		ArticleID:  s.articleID,
		Slug:       s.slug,
		Fields:     s.fields,
		Images:     append([]api.Image(nil), s.images...),
		Categories: append([]api.Category(nil), s.categories...),
		Dirty:      s.dirty,
		Uploading:  s.uploading,
		Progress:   s.progress,
		Dialog:     s.dialog,
	}
}
