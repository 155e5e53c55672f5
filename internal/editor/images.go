package editor

import (
	"context"
)

// SetPrimary marks one image as the article's primary image. On success every
// other image in the list loses the flag, mirroring what the API does.
func (s *Session) SetPrimary(ctx context.Context, imageID int64) {
	s.mu.Lock()
	if s.state != Editing || s.indexOfImage(imageID) < 0 {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	err := s.api.SetPrimaryImage(ctx, imageID)

	s.mu.Lock()
	if err != nil {
		s.log.Error(err, "Failed to set primary image")
		s.notify(NoticeError, "Greška pri postavljanju glavne slike")
		s.mu.Unlock()
		return
	}
	for i := range s.images {
		s.images[i].IsPrimary = s.images[i].ID == imageID
	}
	s.mu.Unlock()
	s.imagesChanged()
}

// RequestDeleteImage stages the deletion of an image behind a confirmation
// dialog. It is ignored while another dialog is pending.
func (s *Session) RequestDeleteImage(imageID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialog.Open() || s.state != Editing {
		return
	}
	i := s.indexOfImage(imageID)
	if i < 0 {
		return
	}
	s.dialog = DialogRequest{Kind: DialogDeleteImage, Image: s.images[i]}
}

func (s *Session) deleteImage(ctx context.Context, imageID int64) {
	err := s.api.DeleteImage(ctx, imageID)

	s.mu.Lock()
	if err != nil {
		s.log.Error(err, "Failed to delete image")
		s.notify(NoticeError, "Greška pri brisanju slike")
		s.mu.Unlock()
		return
	}
	if i := s.indexOfImage(imageID); i >= 0 {
		s.images = append(s.images[:i], s.images[i+1:]...)
	}
	s.mu.Unlock()
	s.imagesChanged()
}

// imagesChanged must be called without s.mu held.
func (s *Session) imagesChanged() {
	if s.opts.OnImagesChanged != nil {
		s.opts.OnImagesChanged()
	}
}

// indexOfImage must be called with s.mu held.
func (s *Session) indexOfImage(id int64) int {
	for i, img := range s.images {
		if img.ID == id {
			return i
		}
	}
	return -1
}
