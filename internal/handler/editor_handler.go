package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/dialog"
	"teretnjaci-web/internal/editor"
	"teretnjaci-web/internal/logger"
	"teretnjaci-web/internal/middleware"
	"teretnjaci-web/internal/service"
	"teretnjaci-web/internal/session"
	"teretnjaci-web/internal/view"

	"github.com/go-chi/chi/v5"
)

// maxBatchFiles bounds the request body of a batch upload together with the per-file limit.
const maxBatchFiles = 20

// EditorHandler drives the article editor. Each editor page is backed by an
// editor.Session kept in the store between requests.
type EditorHandler struct {
	api    editor.API
	store  *editor.Store
	opts   editor.Options
	portal service.PortalServicer
	view   *view.View
	sess   *session.Auth
	log    logger.Logger
}

// NewEditorHandler creates a new EditorHandler. opts is passed to every new editor session.
func NewEditorHandler(client editor.API, store *editor.Store, opts editor.Options, ps service.PortalServicer, v *view.View, sess *session.Auth, log logger.Logger) *EditorHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = editor.DefaultMaxUploadBytes
	}
	if opts.Log == nil {
		opts.Log = log
	}
	if opts.OnImagesChanged == nil {
		opts.OnImagesChanged = ps.InvalidateArticles
	}
	return &EditorHandler{api: client, store: store, opts: opts, portal: ps, view: v, sess: sess, log: log}
}

func editorPath(sid string) string {
	return "/admin/editor/" + sid
}

// newHandler opens an editor for a new article.
func (h *EditorHandler) newHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.open(w, r, 0)
}

// editHandler opens an editor for an existing article.
func (h *EditorHandler) editHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, ok := idParam(chi.URLParam(r, "id"))
	if !ok {
		return &middleware.AppError{Message: "Stranica nije pronađena", Code: http.StatusNotFound}
	}
	return h.open(w, r, id)
}

// open sends the admin to an editor session for the article. An editor the
// admin already has open on the same article is reused, so reloading keeps
// unsaved changes and makes no API calls.
func (h *EditorHandler) open(w http.ResponseWriter, r *http.Request, articleID int64) *middleware.AppError {
	if !h.sess.Authenticated(r.Context()) {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return nil
	}
	owner := middleware.GetUserInfo(r.Context()).Username
	if sid, ok := h.store.Find(owner, articleID); ok {
		http.Redirect(w, r, editorPath(sid), http.StatusSeeOther)
		return nil
	}

	s := editor.New(h.api, articleID, h.opts)
	s.Initialize(r.Context())
	if !h.sess.Authenticated(r.Context()) {
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return nil
	}
	sid := h.store.Open(owner, s)
	http.Redirect(w, r, editorPath(sid), http.StatusSeeOther)
	return nil
}

// lookup finds the editor session named in the URL. A missing session sends
// the admin back to the article list.
func (h *EditorHandler) lookup(w http.ResponseWriter, r *http.Request) (string, *editor.Session, bool) {
	sid := chi.URLParam(r, "sid")
	s, ok := h.store.Get(sid, middleware.GetUserInfo(r.Context()).Username)
	if !ok {
		h.sess.SetFlash(r.Context(), "error", "Sesija uređivanja je istekla. Otvorite članak ponovo.")
		http.Redirect(w, r, editor.ArticleListPath, http.StatusSeeOther)
		return "", nil, false
	}
	return sid, s, true
}

// showHandler renders the editor page.
func (h *EditorHandler) showHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	sid, s, ok := h.lookup(w, r)
	if !ok {
		return nil
	}
	v := s.View()
	data := map[string]interface{}{
		"SessionID":   sid,
		"Action":      editorPath(sid),
		"Editor":      v,
		"Notices":     s.Notices(),
		"MaxUploadMB": h.opts.MaxUploadBytes >> 20,
		"Accept":      strings.Join(editor.AllowedImageTypes, ","),
	}
	if v.Dialog.Open() {
		if appErr := addDialog(data, editorDialog(sid, v.Dialog)); appErr != nil {
			return appErr
		}
	}
	return render(h.view, h.sess, w, r, "editor.html", data)
}

func editorDialog(sid string, req editor.DialogRequest) dialog.Dialog {
	base := editorPath(sid) + "/dialog"
	d := dialog.Confirm(req.Title(), req.Message(), base+"/confirm", base+"/cancel")
	switch req.Kind {
	case editor.DialogDeleteImage:
		d.ConfirmText = "Obriši"
	case editor.DialogUnsavedChanges:
		d.ConfirmText = "Napusti"
		d.Variant = dialog.Warning
	}
	return d
}

// applyFields copies the posted article fields into the session. Requests
// without the form fields, like the dialog buttons, leave the fields alone.
func applyFields(form url.Values, s *editor.Session) {
	if _, ok := form["title"]; !ok {
		return
	}
	categoryID, _ := strconv.ParseInt(form.Get("categoryId"), 10, 64)
	published := form.Get("isPublished")
	s.Apply(editor.Fields{
		Title:       form.Get("title"),
		Content:     form.Get("content"),
		Summary:     form.Get("summary"),
		CategoryID:  categoryID,
		IsPublished: published == "on" || published == "true",
	})
}

// action wraps a POST operation on an editor session. The posted fields are
// applied first; afterwards the admin is sent to the navigation target, back
// to the editor, or to the login page when the API rejected the token.
func (h *EditorHandler) action(op func(ctx context.Context, r *http.Request, s *editor.Session) editor.Navigation) middleware.AppHandler {
	return func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		sid, s, ok := h.lookup(w, r)
		if !ok {
			return nil
		}
		if err := r.ParseForm(); err != nil {
			return &middleware.AppError{Error: err, Message: "Neispravan zahtjev", Code: http.StatusBadRequest}
		}
		applyFields(r.Form, s)

		// The API calls run to completion even if the browser goes away, so the
		// session never keeps a half-applied operation.
		nav := op(context.WithoutCancel(r.Context()), r, s)
		h.finish(w, r, sid, s, nav)
		return nil
	}
}

func (h *EditorHandler) finish(w http.ResponseWriter, r *http.Request, sid string, s *editor.Session, nav editor.Navigation) {
	if !h.sess.Authenticated(r.Context()) {
		h.store.Close(sid)
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
		return
	}
	if nav == "" {
		http.Redirect(w, r, editorPath(sid), http.StatusSeeOther)
		return
	}
	// The editor page is gone after navigating; its last notice travels as a flash.
	if notices := s.Notices(); len(notices) > 0 {
		last := notices[len(notices)-1]
		h.sess.SetFlash(r.Context(), last.Kind.String(), last.Message)
	}
	h.store.Close(sid)
	http.Redirect(w, r, string(nav), http.StatusSeeOther)
}

func (h *EditorHandler) save(ctx context.Context, r *http.Request, s *editor.Session) editor.Navigation {
	nav := s.Submit(ctx)
	if nav != "" {
		h.portal.InvalidateArticles()
	}
	return nav
}

func imageID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "imgID"), 10, 64)
	return id
}

func setPrimary(ctx context.Context, r *http.Request, s *editor.Session) editor.Navigation {
	s.SetPrimary(ctx, imageID(r))
	return ""
}

func requestDeleteImage(_ context.Context, r *http.Request, s *editor.Session) editor.Navigation {
	s.RequestDeleteImage(imageID(r))
	return ""
}

func confirmDialog(ctx context.Context, _ *http.Request, s *editor.Session) editor.Navigation {
	return s.ConfirmDialog(ctx)
}

func cancelDialog(_ context.Context, _ *http.Request, s *editor.Session) editor.Navigation {
	s.CancelDialog()
	return ""
}

func leave(_ context.Context, _ *http.Request, s *editor.Session) editor.Navigation {
	return s.RequestLeave()
}

// uploadHandler receives the multipart batch from the "images" input and
// uploads it. The article fields posted with the batch are applied even when
// the batch is rejected.
func (h *EditorHandler) uploadHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	sid, s, ok := h.lookup(w, r)
	if !ok {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBatchFiles*h.opts.MaxUploadBytes+1<<20)
	b, err := readBatch(r, h.opts.MaxUploadBytes)
	defer b.remove()
	applyFields(b.form, s)

	files := b.files
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		// The batch ran past the body limit; it is rejected like an oversized file.
		files = append(files, editor.File{
			Size: tooLarge.Limit,
			Open: func() (io.ReadCloser, error) { return nil, err },
		})
	case err != nil:
		h.log.Error(err, "Failed to read image upload")
		h.sess.SetFlash(r.Context(), "error", "Greška pri čitanju odabranih datoteka")
		http.Redirect(w, r, editorPath(sid), http.StatusSeeOther)
		return nil
	}

	res := s.UploadBatch(context.WithoutCancel(r.Context()), files)
	if res.Rejected != nil {
		h.log.Debug("Image batch rejected: " + res.Rejected.Error())
	}
	h.finish(w, r, sid, s, "")
	return nil
}

// maxFieldBytes bounds a single text field of an upload request.
const maxFieldBytes = 32 << 20

type batch struct {
	form  url.Values
	files []editor.File
	paths []string
}

func (b *batch) remove() {
	for _, p := range b.paths {
		os.Remove(p)
	}
}

// readBatch streams a multipart upload. Text fields go to form and every
// "images" file is spooled to a temporary file. At most limit+1 bytes of a
// file are kept; reading stops at the first file that is too large, since the
// batch will be rejected anyway. The editor form posts its fields before the
// file input.
func readBatch(r *http.Request, limit int64) (*batch, error) {
	b := &batch{form: url.Values{}}
	mr, err := r.MultipartReader()
	if err != nil {
		return b, err
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return b, nil
		}
		if err != nil {
			return b, err
		}
		if part.FileName() == "" {
			v, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			part.Close()
			if err != nil {
				return b, err
			}
			b.form.Add(part.FormName(), string(v))
			continue
		}
		if part.FormName() != "images" {
			if err := part.Close(); err != nil {
				return b, err
			}
			continue
		}
		f, err := b.spool(part, limit)
		if err != nil {
			return b, err
		}
		b.files = append(b.files, f)
		if f.Size > limit {
			return b, nil
		}
		part.Close()
	}
}

func (b *batch) spool(part *multipart.Part, limit int64) (editor.File, error) {
	tmp, err := os.CreateTemp("", "teretnjaci-upload-*")
	if err != nil {
		return editor.File{}, fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer tmp.Close()
	path := tmp.Name()
	b.paths = append(b.paths, path)

	n, err := io.Copy(tmp, io.LimitReader(part, limit+1))
	if err != nil {
		return editor.File{}, err
	}
	return editor.File{
		Name: part.FileName(),
		Size: n,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

type inlineResponse struct {
	URL      string `json:"url,omitempty"`
	FileName string `json:"fileName,omitempty"`
	Message  string `json:"message,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// inlineHandler uploads one image for embedding in the article body and
// answers with JSON for the editor script.
func (h *EditorHandler) inlineHandler(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "sid")
	s, ok := h.store.Get(sid, middleware.GetUserInfo(r.Context()).Username)
	if !ok {
		writeJSON(w, http.StatusNotFound, inlineResponse{Message: "Sesija uređivanja je istekla", Redirect: editor.ArticleListPath})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes+1<<20)
	file, header, err := r.FormFile("image")
	if err != nil {
		msg := "Greška pri čitanju odabrane datoteke"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = editor.SizeLimitMessage(h.opts.MaxUploadBytes)
		}
		writeJSON(w, http.StatusBadRequest, inlineResponse{Message: msg})
		return
	}
	file.Close()

	img, err := s.UploadInline(context.WithoutCancel(r.Context()), editor.File{
		Name: header.Filename,
		Size: header.Size,
		Open: func() (io.ReadCloser, error) { return header.Open() },
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, inlineResponse{URL: img.URL, FileName: img.FileName})
	case errors.Is(err, api.ErrUnauthorized):
		h.store.Close(sid)
		writeJSON(w, http.StatusUnauthorized, inlineResponse{Message: "Sesija je istekla", Redirect: middleware.LoginPath})
	default:
		var batchErr *editor.BatchError
		msg := "Greška pri učitavanju slike"
		if errors.As(err, &batchErr) {
			msg = batchErr.Message
		} else if m := api.Message(err); m != "" {
			msg = m
		}
		h.log.Error(err, "Inline image upload failed")
		writeJSON(w, http.StatusBadRequest, inlineResponse{Message: msg})
	}
}

type progressResponse struct {
	Progress  int  `json:"progress"`
	Uploading bool `json:"uploading"`
}

// progressHandler reports the batch upload progress for polling.
func (h *EditorHandler) progressHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := h.store.Get(chi.URLParam(r, "sid"), middleware.GetUserInfo(r.Context()).Username)
	if !ok {
		writeJSON(w, http.StatusNotFound, progressResponse{})
		return
	}
	v := s.View()
	writeJSON(w, http.StatusOK, progressResponse{Progress: v.Progress, Uploading: v.Uploading})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Fprintf(w, `{"message":%q}`, err.Error())
	}
}
