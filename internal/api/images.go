package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
)

// FileUpload is one file sent as the multipart "file" field.
type FileUpload struct {
	Name        string
	ContentType string
	Body        io.Reader
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) multipartRequest(path string, f FileUpload) (request, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(f.Name)))
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return request{}, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := io.Copy(part, f.Body); err != nil {
		return request{}, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	if err := w.Close(); err != nil {
		return request{}, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return request{
		method:      http.MethodPost,
		path:        path,
		body:        &buf,
		contentType: w.FormDataContentType(),
		timeout:     c.uploadTimeout,
	}, nil
}

// UploadImage attaches one image to a saved article.
func (c *Client) UploadImage(ctx context.Context, articleID int64, f FileUpload) (*Image, error) {
	req, err := c.multipartRequest("/images/upload/"+strconv.FormatInt(articleID, 10), f)
	if err != nil {
		return nil, err
	}
	var img Image
	if err := c.do(ctx, req, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// UploadInlineImage hosts an image for embedding into rich content.
func (c *Client) UploadInlineImage(ctx context.Context, f FileUpload) (*InlineImage, error) {
	req, err := c.multipartRequest("/images/upload-inline", f)
	if err != nil {
		return nil, err
	}
	var img InlineImage
	if err := c.do(ctx, req, &img); err != nil {
		return nil, err
	}
	return &img, nil
}

// SetPrimaryImage marks an image as its article's primary image.
func (c *Client) SetPrimaryImage(ctx context.Context, imageID int64) error {
	return c.do(ctx, request{method: http.MethodPut, path: imagePath(imageID) + "/set-primary"}, nil)
}

// DeleteImage removes an image.
func (c *Client) DeleteImage(ctx context.Context, imageID int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: imagePath(imageID)}, nil)
}

func imagePath(id int64) string {
	return "/images/" + strconv.FormatInt(id, 10)
}
