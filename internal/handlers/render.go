package handlers

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/petermazzocco/grams/internal/auth"
	"github.com/petermazzocco/grams/models"
	"github.com/sirupsen/logrus"
)

// Recorder counts domain events.
type Recorder interface {
	GramCreated()
	CommentCreated()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// currentUser returns the principal, sending the visitor to sign in when
// there is none.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, auth.LoginPath, http.StatusFound)
	}
	return user, ok
}

func redirectToRoot(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

func internalError(w http.ResponseWriter, log logrus.FieldLogger, err error, msg string) {
	log.WithError(err).Error(msg)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// parseForm reads url-encoded and multipart bodies alike, capping the body at
// maxBytes.
func parseForm(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return r.ParseMultipartForm(maxBytes)
	}
	return r.ParseForm()
}

// formValue returns the first of names present in the body.
func formValue(r *http.Request, names ...string) string {
	for _, name := range names {
		if vs, ok := r.PostForm[name]; ok && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func formFile(r *http.Request, names ...string) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}
	for _, name := range names {
		file, header, err := r.FormFile(name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return file, header, nil
	}
	return nil, nil, nil
}

func badRequest(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		http.Error(w, "Upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, "Invalid form data", http.StatusBadRequest)
}
