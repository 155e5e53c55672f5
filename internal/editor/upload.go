package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"teretnjaci-web/internal/api"
	"teretnjaci-web/internal/metrics"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes is the largest accepted image.
const DefaultMaxUploadBytes int64 = 10 << 20

// AllowedImageTypes are the accepted image MIME types, detected from content.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

var (
	// ErrNotSaved rejects uploads for an article that has no ID yet.
	ErrNotSaved = errors.New("article must be saved before images can be added")
	// ErrUploadBusy rejects a batch while another one is running.
	ErrUploadBusy = errors.New("an upload is already in progress")
	// ErrNotEditable rejects uploads while the session cannot be edited.
	ErrNotEditable = errors.New("article is not editable")
)

// Constraint names a batch validation rule.
type Constraint string

const (
	ConstraintSize Constraint = "size"
	ConstraintType Constraint = "type"
)

// SizeLimitMessage is the notice shown when a file is larger than limit bytes.
func SizeLimitMessage(limit int64) string {
	return fmt.Sprintf("Slike ne smiju biti veće od %d MB", limit>>20)
}

// BatchError rejects a whole batch before any request is made.
type BatchError struct {
	Constraint Constraint
	Message    string
}

func (e *BatchError) Error() string {
	return string(e.Constraint) + ": " + e.Message
}

// File is one user-selected file. Open may be called more than once.
type File struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// BatchResult describes the outcome of UploadBatch.
type BatchResult struct {
	Uploaded []api.Image
	Failed   []string // names of files whose upload failed
	// Rejected is set when no request was made for the batch.
	Rejected error
	// ResetInput is always true: the file input is cleared so the same file can be chosen again.
	ResetInput bool
}

type checkedFile struct {
	File
	contentType string
}

// UploadBatch validates every file up front and then uploads them one at a
// time, in order. A failed file does not stop the batch.
func (s *Session) UploadBatch(ctx context.Context, files []File) BatchResult {
	res := BatchResult{ResetInput: true}
	if len(files) == 0 {
		return res
	}

	s.mu.Lock()
	switch {
	case s.articleID == 0:
		s.notify(NoticeError, "Molimo prvo sačuvajte članak prije dodavanja slika")
		res.Rejected = ErrNotSaved
	case s.state != Editing:
		res.Rejected = ErrNotEditable
	case s.uploading:
		s.notify(NoticeError, "Učitavanje slika je već u toku")
		res.Rejected = ErrUploadBusy
	}
	if res.Rejected != nil {
		s.mu.Unlock()
		return res
	}
	s.uploading = true
	s.progress = 0
	if s.resetTimer != nil {
		s.resetTimer.Stop()
	}
	articleID := s.articleID
	s.mu.Unlock()

	checked, err := s.checkBatch(files)
	if err != nil {
		metrics.ImageUploads.WithLabelValues("rejected").Add(float64(len(files)))
		msg := "Greška pri čitanju odabranih datoteka"
		var berr *BatchError
		if errors.As(err, &berr) {
			msg = berr.Message
		} else {
			s.log.Error(err, "Failed to inspect upload batch")
		}
		s.mu.Lock()
		s.uploading = false
		s.notify(NoticeError, msg)
		s.mu.Unlock()
		res.Rejected = err
		return res
	}

	var failures []Notice
	for i, f := range checked {
		img, err := s.uploadOne(ctx, articleID, f)
		if err != nil {
			metrics.ImageUploads.WithLabelValues("failure").Inc()
			s.log.Error(err, fmt.Sprintf("Failed to upload image %s", f.Name))
			res.Failed = append(res.Failed, f.Name)
			failures = append(failures, Notice{Kind: NoticeError, Message: fmt.Sprintf("Greška pri učitavanju slike %s", f.Name)})
		} else {
			metrics.ImageUploads.WithLabelValues("success").Inc()
			res.Uploaded = append(res.Uploaded, *img)
		}
		s.setProgress((i + 1) * 100 / len(checked))
	}

	s.mu.Lock()
	s.notices = append(s.notices, failures...)
	s.images = append(s.images, res.Uploaded...)
	if n := len(res.Uploaded); n > 0 {
		s.notify(NoticeSuccess, fmt.Sprintf("Uspješno dodano slika: %d", n))
	}
	s.uploading = false
	s.scheduleProgressReset()
	s.mu.Unlock()

	if len(res.Uploaded) > 0 {
		s.imagesChanged()
	}
	return res
}

// UploadInline hosts a single image for embedding into the article body and
// returns its URL. It needs no saved article.
func (s *Session) UploadInline(ctx context.Context, f File) (*api.InlineImage, error) {
	checked, err := s.checkBatch([]File{f})
	if err != nil {
		return nil, err
	}
	rc, err := checked[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	return s.api.UploadInlineImage(ctx, api.FileUpload{Name: f.Name, ContentType: checked[0].contentType, Body: rc})
}

// checkBatch enforces the size and type rules on every file. It reports the
// violated rule once for the whole batch.
func (s *Session) checkBatch(files []File) ([]checkedFile, error) {
	for _, f := range files {
		if f.Size > s.opts.MaxUploadBytes {
			return nil, &BatchError{
				Constraint: ConstraintSize,
				Message:    SizeLimitMessage(s.opts.MaxUploadBytes),
			}
		}
	}

	checked := make([]checkedFile, 0, len(files))
	for _, f := range files {
		contentType, err := detect(f)
		if err != nil {
			return nil, err
		}
		if !mimetype.EqualsAny(contentType, AllowedImageTypes...) {
			return nil, &BatchError{
				Constraint: ConstraintType,
				Message:    "Dozvoljeni formati slika su JPEG, PNG, GIF i WebP",
			}
		}
		checked = append(checked, checkedFile{File: f, contentType: contentType})
	}
	return checked, nil
}

func detect(f File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer rc.Close()
	m, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return m.String(), nil
}

func (s *Session) uploadOne(ctx context.Context, articleID int64, f checkedFile) (*api.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.api.UploadImage(ctx, articleID, api.FileUpload{Name: f.Name, ContentType: f.contentType, Body: rc})
}

func (s *Session) setProgress(p int) {
	s.mu.Lock()
	s.progress = p
	s.mu.Unlock()
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(p)
	}
}

// scheduleProgressReset must be called with s.mu held.
func (s *Session) scheduleProgressReset() {
	if s.opts.ProgressResetDelay <= 0 {
		s.progress = 0
		return
	}
	s.resetTimer = time.AfterFunc(s.opts.ProgressResetDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.uploading {
			s.progress = 0
		}
	})
}

// Progress returns the upload progress of the current or last batch.
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}
