package editor

import (
	"context"
	"fmt"

	"teretnjaci-web/internal/api"
)

// DialogKind names the confirmation a session is waiting for.
type DialogKind int

const (
	DialogNone DialogKind = iota
	DialogDeleteImage
	DialogUnsavedChanges
)

// DialogRequest is the single pending confirmation of a session. Holding one
// value instead of a flag per dialog keeps two dialogs from being open at once.
type DialogRequest struct {
	Kind  DialogKind
	Image api.Image // staged image for DialogDeleteImage
}

// Open reports whether a dialog is pending.
func (d DialogRequest) Open() bool {
	return d.Kind != DialogNone
}

// Title is the dialog heading.
func (d DialogRequest) Title() string {
	switch d.Kind {
	case DialogDeleteImage:
		return "Brisanje slike"
	case DialogUnsavedChanges:
		return "Nesačuvane promjene"
	default:
		return ""
	}
}

// Message is the dialog body.
func (d DialogRequest) Message() string {
	switch d.Kind {
	case DialogDeleteImage:
		return fmt.Sprintf("Jeste li sigurni da želite obrisati sliku \"%s\"?", d.Image.FileName)
	case DialogUnsavedChanges:
		return "Imate nesačuvane promjene. Da li ste sigurni da želite napustiti stranicu?"
	default:
		return ""
	}
}

// ConfirmDialog resolves the pending dialog positively. Confirming unsaved
// changes discards them and returns the article list path; confirming an image
// deletion deletes it and stays.
func (s *Session) ConfirmDialog(ctx context.Context) Navigation {
	s.mu.Lock()
	d := s.dialog
	s.dialog = DialogRequest{}

	switch d.Kind {
	case DialogUnsavedChanges:
		s.dirty = false
		s.mu.Unlock()
		return ArticleListPath
	case DialogDeleteImage:
		s.mu.Unlock()
		s.deleteImage(ctx, d.Image.ID)
		return ""
	default:
		s.mu.Unlock()
		return ""
	}
}

// CancelDialog drops the pending dialog without any network call.
func (s *Session) CancelDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = DialogRequest{}
}
