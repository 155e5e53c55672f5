package editor

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"teretnjaci-web/internal/api"
)

// mockAPI is a mock implementation of the API interface.
type mockAPI struct {
	article    *api.Article
	categories []api.Category
	getErr     error
	saveErr    error
	primaryErr error
	deleteErr  error
	failUpload map[string]bool
	// When entered is set, UpdateArticle and UploadImage signal on it and
	// then wait for release.
	entered chan struct{}
	release chan struct{}

	getCalls     int
	createCalls  int
	updateCalls  int
	uploadCalls  []string
	primaryCalls []int64
	deleteCalls  []int64
	lastInput    api.ArticleInput
	nextImageID  int64
	createdID    int64
}

var _ API = (*mockAPI)(nil)

func (m *mockAPI) block() {
	if m.entered != nil {
		m.entered <- struct{}{}
		<-m.release
	}
}

func (m *mockAPI) requests() int {
	return m.getCalls + m.createCalls + m.updateCalls + len(m.uploadCalls) + len(m.primaryCalls) + len(m.deleteCalls)
}

func (m *mockAPI) GetArticle(ctx context.Context, id int64) (*api.Article, error) {
	m.getCalls++
	if m.getErr != nil {
		return nil, m.getErr
	}
	a := *m.article
	return &a, nil
}

func (m *mockAPI) CreateArticle(ctx context.Context, in api.ArticleInput) (*api.Article, error) {
	m.createCalls++
	m.lastInput = in
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &api.Article{ID: m.createdID, Title: in.Title, Slug: "novi-clanak"}, nil
}

func (m *mockAPI) UpdateArticle(ctx context.Context, id int64, in api.ArticleInput) (*api.Article, error) {
	m.updateCalls++
	m.lastInput = in
	m.block()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	return &api.Article{ID: id, Title: in.Title}, nil
}

func (m *mockAPI) ListCategories(ctx context.Context) ([]api.Category, error) {
	return m.categories, nil
}

func (m *mockAPI) UploadImage(ctx context.Context, articleID int64, f api.FileUpload) (*api.Image, error) {
	m.uploadCalls = append(m.uploadCalls, f.Name)
	m.block()
	if m.failUpload[f.Name] {
		return nil, errors.New("upload failed")
	}
	m.nextImageID++
	return &api.Image{ID: 100 + m.nextImageID, FileName: f.Name, URL: "/uploads/" + f.Name}, nil
}

func (m *mockAPI) UploadInlineImage(ctx context.Context, f api.FileUpload) (*api.InlineImage, error) {
	m.uploadCalls = append(m.uploadCalls, f.Name)
	return &api.InlineImage{URL: "/uploads/inline/" + f.Name, FileName: f.Name}, nil
}

func (m *mockAPI) SetPrimaryImage(ctx context.Context, imageID int64) error {
	m.primaryCalls = append(m.primaryCalls, imageID)
	return m.primaryErr
}

func (m *mockAPI) DeleteImage(ctx context.Context, imageID int64) error {
	m.deleteCalls = append(m.deleteCalls, imageID)
	return m.deleteErr
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func pngFile(name string) File {
	return memFile(name, pngHeader)
}

func memFile(name string, content []byte) File {
	return File{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

func existingArticle() *api.Article {
	return &api.Article{
		ID:          7,
		Title:       "A",
		Content:     "B",
		CategoryID:  2,
		IsPublished: true,
		Slug:        "a",
		Images: []api.Image{
			{ID: 1, FileName: "one.jpg", IsPrimary: true},
			{ID: 2, FileName: "two.jpg"},
			{ID: 3, FileName: "three.jpg"},
		},
	}
}

func newEditSession(t *testing.T, m *mockAPI) *Session {
	t.Helper()
	if m.article == nil {
		m.article = existingArticle()
	}
	s := New(m, m.article.ID, Options{})
	s.Initialize(context.Background())
	if got := s.View().State; got != Editing {
		t.Fatalf("expected state editing after load, got %s", got)
	}
	s.Notices()
	return s
}

func hasNotice(notices []Notice, kind NoticeKind, substr string) bool {
	for _, n := range notices {
		if n.Kind == kind && strings.Contains(n.Message, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Order(t *testing.T) {
	testCases := []struct {
		name      string
		fields    Fields
		wantField string
		wantMsg   string
	}{
		{"all empty", Fields{}, "title", "Naslov je obavezan"},
		{"blank title", Fields{Title: "   ", Content: "x", CategoryID: 1}, "title", "Naslov je obavezan"},
		{"missing content", Fields{Title: "A", CategoryID: 1}, "content", "Sadržaj je obavezan"},
		{"missing category", Fields{Title: "A", Content: "B"}, "category", "Kategorija je obavezna"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Repeated calls must report the same first failure.
			for i := 0; i < 2; i++ {
				verr := Validate(tc.fields)
				if verr == nil {
					t.Fatal("expected a validation error")
				}
				if verr.Field != tc.wantField || verr.Message != tc.wantMsg {
					t.Errorf("expected %s/%q, got %s/%q", tc.wantField, tc.wantMsg, verr.Field, verr.Message)
				}
			}
		})
	}

	if verr := Validate(Fields{Title: "A", Content: "B", CategoryID: 3}); verr != nil {
		t.Errorf("expected valid fields, got %v", verr)
	}
}

func TestSession_CreateDefaultsToFirstCategory(t *testing.T) {
	m := &mockAPI{categories: []api.Category{{ID: 4, Name: "Vijesti"}, {ID: 5, Name: "Oprema"}}}
	s := New(m, 0, Options{})
	s.Initialize(context.Background())

	v := s.View()
	if v.Mode != ModeCreate || v.State != Editing {
		t.Fatalf("unexpected mode/state %s/%s", v.Mode, v.State)
	}
	if v.Fields.CategoryID != 4 {
		t.Errorf("expected first category to be selected, got %d", v.Fields.CategoryID)
	}
	if !v.Fields.IsPublished {
		t.Error("expected new articles to default to published")
	}
	if m.getCalls != 0 {
		t.Error("create mode must not load an article")
	}
}

func TestSession_LoadFailure(t *testing.T) {
	m := &mockAPI{getErr: errors.New("boom")}
	s := New(m, 9, Options{})
	s.Initialize(context.Background())

	if got := s.View().State; got != Failed {
		t.Fatalf("expected failed state, got %s", got)
	}
	if !hasNotice(s.Notices(), NoticeError, "Greška pri učitavanju članka") {
		t.Error("expected load failure notice")
	}
	s.SetTitle("x")
	if s.View().Fields.Title != "" {
		t.Error("a failed session must not accept edits")
	}
	if nav := s.Submit(context.Background()); nav != "" || m.updateCalls != 0 {
		t.Error("a failed session must not submit")
	}
}

func TestSession_SubmitBlankTitleMakesNoRequest(t *testing.T) {
	m := &mockAPI{}
	s := newEditSession(t, m)
	before := m.requests()

	s.SetTitle("")
	nav := s.Submit(context.Background())

	if nav != "" {
		t.Errorf("expected to stay on the form, got %q", nav)
	}
	if m.requests() != before {
		t.Error("expected no network call for an invalid form")
	}
	if got := s.View().State; got != Editing {
		t.Errorf("expected state editing, got %s", got)
	}
	if !hasNotice(s.Notices(), NoticeError, "Naslov je obavezan") {
		t.Error("expected title validation notice")
	}
}

func TestSession_SubmitSuccess(t *testing.T) {
	testCases := []struct {
		name       string
		articleID  int64
		wantNotice string
	}{
		{"create", 0, "Članak je uspješno kreiran"},
		{"edit", 7, "Članak je uspješno ažuriran"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockAPI{article: existingArticle(), categories: []api.Category{{ID: 2}}, createdID: 12}
			s := New(m, tc.articleID, Options{})
			s.Initialize(context.Background())
			s.SetTitle("Novi naslov")
			s.SetContent("Tekst")

			nav := s.Submit(context.Background())
			if nav != ArticleListPath {
				t.Fatalf("expected navigation to %s, got %q", ArticleListPath, nav)
			}
			if m.lastInput.Title != "Novi naslov" || m.lastInput.CategoryID != 2 {
				t.Errorf("unexpected payload %+v", m.lastInput)
			}
			v := s.View()
			if v.Dirty {
				t.Error("expected clean session after save")
			}
			if v.ArticleID == 0 {
				t.Error("expected an article ID after save")
			}
			if !hasNotice(s.Notices(), NoticeSuccess, tc.wantNotice) {
				t.Errorf("expected notice %q", tc.wantNotice)
			}
		})
	}
}

func TestSession_SubmitFailureShowsServerMessage(t *testing.T) {
	testCases := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"server message", &api.Error{Status: 400, Message: "Slug već postoji"}, "Slug već postoji"},
		{"generic", errors.New("network down"), "Greška pri čuvanju članka"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockAPI{saveErr: tc.err}
			s := newEditSession(t, m)
			s.SetTitle("Izmjena")

			if nav := s.Submit(context.Background()); nav != "" {
				t.Errorf("expected to stay, got %q", nav)
			}
			v := s.View()
			if v.State != Editing || !v.Dirty {
				t.Errorf("expected editing and dirty after failure, got %s dirty=%v", v.State, v.Dirty)
			}
			if !hasNotice(s.Notices(), NoticeError, tc.wantMsg) {
				t.Errorf("expected notice %q", tc.wantMsg)
			}
		})
	}
}

func TestSession_DirtyLifecycle(t *testing.T) {
	m := &mockAPI{categories: []api.Category{{ID: 1}}}
	create := New(m, 0, Options{})
	create.Initialize(context.Background())
	create.SetTitle("x")
	if create.View().Dirty {
		t.Error("create mode must never be dirty")
	}
	if nav := create.RequestLeave(); nav != ArticleListPath {
		t.Errorf("expected free navigation in create mode, got %q", nav)
	}

	s := newEditSession(t, &mockAPI{})
	if s.View().Dirty {
		t.Fatal("freshly loaded article must be clean")
	}
	s.Apply(s.View().Fields)
	if s.View().Dirty {
		t.Error("applying unchanged fields must not mark dirty")
	}
	s.SetPublished(false)
	if !s.View().Dirty {
		t.Fatal("expected dirty after an edit")
	}

	if nav := s.RequestLeave(); nav != "" {
		t.Errorf("expected the guard to block navigation, got %q", nav)
	}
	if got := s.View().Dialog.Kind; got != DialogUnsavedChanges {
		t.Fatalf("expected unsaved changes dialog, got %v", got)
	}

	s.CancelDialog()
	v := s.View()
	if v.Dialog.Open() || !v.Dirty {
		t.Error("cancel must close the dialog and keep the changes")
	}

	s.RequestLeave()
	if nav := s.ConfirmDialog(context.Background()); nav != ArticleListPath {
		t.Errorf("expected navigation after confirming, got %q", nav)
	}
	if s.View().Dirty {
		t.Error("expected dirty to be cleared after leaving")
	}
}

func TestSession_SetPrimaryExclusive(t *testing.T) {
	m := &mockAPI{}
	s := newEditSession(t, m)

	s.SetPrimary(context.Background(), 3)

	primaries := 0
	for _, img := range s.View().Images {
		if img.IsPrimary {
			primaries++
			if img.ID != 3 {
				t.Errorf("expected image 3 to be primary, got %d", img.ID)
			}
		}
	}
	if primaries != 1 {
		t.Errorf("expected exactly one primary image, got %d", primaries)
	}
	if len(m.primaryCalls) != 1 || m.primaryCalls[0] != 3 {
		t.Errorf("unexpected set-primary calls %v", m.primaryCalls)
	}
}

func TestSession_SetPrimaryFailureKeepsFlags(t *testing.T) {
	m := &mockAPI{primaryErr: errors.New("boom")}
	s := newEditSession(t, m)

	s.SetPrimary(context.Background(), 2)

	if !s.View().Images[0].IsPrimary || s.View().Images[1].IsPrimary {
		t.Error("flags must not change when the call fails")
	}
	if !hasNotice(s.Notices(), NoticeError, "Greška pri postavljanju glavne slike") {
		t.Error("expected set-primary failure notice")
	}
}

func TestSession_DeleteImage(t *testing.T) {
	t.Run("cancel", func(t *testing.T) {
		m := &mockAPI{}
		s := newEditSession(t, m)
		s.RequestDeleteImage(2)
		d := s.View().Dialog
		if d.Kind != DialogDeleteImage || !strings.Contains(d.Message(), "two.jpg") {
			t.Fatalf("expected delete dialog naming the file, got %+v", d)
		}
		s.CancelDialog()
		if len(m.deleteCalls) != 0 || len(s.View().Images) != 3 {
			t.Error("cancel must not delete anything")
		}
	})

	t.Run("confirm", func(t *testing.T) {
		m := &mockAPI{}
		s := newEditSession(t, m)
		s.RequestDeleteImage(2)
		if nav := s.ConfirmDialog(context.Background()); nav != "" {
			t.Errorf("expected to stay, got %q", nav)
		}
		images := s.View().Images
		if len(images) != 2 {
			t.Fatalf("expected 2 images, got %d", len(images))
		}
		for _, img := range images {
			if img.ID == 2 {
				t.Error("deleted image still listed")
			}
		}
		if s.View().Dialog.Open() {
			t.Error("dialog must close after confirm")
		}
	})

	t.Run("failure", func(t *testing.T) {
		m := &mockAPI{deleteErr: errors.New("boom")}
		s := newEditSession(t, m)
		s.RequestDeleteImage(2)
		s.ConfirmDialog(context.Background())
		if len(s.View().Images) != 3 {
			t.Error("image must stay listed when deletion fails")
		}
		if !hasNotice(s.Notices(), NoticeError, "Greška pri brisanju slike") {
			t.Error("expected delete failure notice")
		}
	})

	t.Run("one dialog at a time", func(t *testing.T) {
		s := newEditSession(t, &mockAPI{})
		s.RequestDeleteImage(2)
		s.RequestDeleteImage(3)
		if got := s.View().Dialog.Image.ID; got != 2 {
			t.Errorf("expected the first request to stay staged, got image %d", got)
		}
	})
}

func TestSession_SubmitWhileSubmitting(t *testing.T) {
	m := &mockAPI{entered: make(chan struct{}), release: make(chan struct{})}
	s := newEditSession(t, m)

	done := make(chan Navigation)
	go func() { done <- s.Submit(context.Background()) }()
	<-m.entered

	if got := s.View().State; got != Submitting {
		t.Fatalf("expected state submitting, got %s", got)
	}
	if nav := s.Submit(context.Background()); nav != "" {
		t.Errorf("a second submit must be ignored, got %q", nav)
	}
	s.SetTitle("Promjena tokom snimanja")

	close(m.release)
	if nav := <-done; nav != ArticleListPath {
		t.Errorf("expected the first submit to succeed, got %q", nav)
	}
	if m.updateCalls != 1 {
		t.Errorf("expected exactly one update request, got %d", m.updateCalls)
	}
	if got := s.View().Fields.Title; got != "A" {
		t.Errorf("edits must be ignored while submitting, got title %q", got)
	}
}

func TestSession_SetPrimaryReportsChange(t *testing.T) {
	testCases := []struct {
		name        string
		primaryErr  error
		wantChanged int
	}{
		{"success", nil, 1},
		{"failure", errors.New("boom"), 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := &mockAPI{article: existingArticle(), primaryErr: tc.primaryErr}
			changed := 0
			s := New(m, 7, Options{OnImagesChanged: func() { changed++ }})
			s.Initialize(context.Background())

			s.SetPrimary(context.Background(), 2)
			if changed != tc.wantChanged {
				t.Errorf("expected %d change callbacks, got %d", tc.wantChanged, changed)
			}
		})
	}
}

func TestSession_DeleteImageReportsChange(t *testing.T) {
	m := &mockAPI{article: existingArticle()}
	changed := 0
	s := New(m, 7, Options{OnImagesChanged: func() { changed++ }})
	s.Initialize(context.Background())

	s.RequestDeleteImage(3)
	s.CancelDialog()
	if changed != 0 {
		t.Fatalf("a cancelled delete must not report a change, got %d", changed)
	}

	s.RequestDeleteImage(3)
	s.ConfirmDialog(context.Background())
	if changed != 1 {
		t.Errorf("expected one change callback, got %d", changed)
	}
}
