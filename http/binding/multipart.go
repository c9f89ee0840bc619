package binding

import (
	"io"
	"net/http"
	"strings"
)

// Upload is the decoded multipart wallpaper submission.
type Upload struct {
	File        []byte
	Filename    string
	Title       string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
	CategoryIDs []string
}

// Multipart decodes a wallpaper upload form. maxBytes caps the in-memory
// file size; the form field is "file", descriptive fields ride alongside.
func Multipart(r *http.Request, maxBytes int64) (*Upload, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, &BindError{Type: "bind_error", Message: "failed to parse multipart form: " + err.Error()}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &BindError{Type: "bind_error", Field: "file", Message: "is required"}
	}
	defer file.Close()

	buf, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, &BindError{Type: "bind_error", Field: "file", Message: "failed to read: " + err.Error()}
	}
	if int64(len(buf)) > maxBytes {
		return nil, &BindError{Type: "validation_error", Field: "file", Message: "exceeds maximum size"}
	}

	up := &Upload{
		File:        buf,
		Filename:    header.Filename,
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	for _, id := range r.Form["categoryIds"] {
		if id = strings.TrimSpace(id); id != "" {
			up.CategoryIDs = append(up.CategoryIDs, id)
		}
	}
	if err := Struct(up); err != nil {
		return nil, err
	}
	return up, nil
}
