package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/grams/internal/auth"
	"github.com/petermazzocco/grams/internal/imaging"
	"github.com/petermazzocco/grams/internal/storage"
	"github.com/petermazzocco/grams/internal/store"
	"github.com/petermazzocco/grams/models"
	"github.com/sirupsen/logrus"
)

// GramStore is what the gram handlers need from persistence.
type GramStore interface {
	store.Grams
	Validate(g *models.Gram) error
}

type Grams struct {
	Store     GramStore
	Photos    storage.Store
	Processor imaging.Processor // nil stores uploads unchanged
	Metrics   Recorder
	Log       logrus.FieldLogger
	// MaxUploadBytes caps the request body of create and update.
	MaxUploadBytes int64
}

// GramParams is the whitelisted create/update input.
type GramParams struct {
	Message     string
	Photo       multipart.File
	PhotoHeader *multipart.FileHeader
}

func (p *GramParams) Close() {
	if p.Photo != nil {
		p.Photo.Close()
	}
}

type gramForm struct {
	Gram   *models.Gram       `json:"gram"`
	Errors models.FieldErrors `json:"errors,omitempty"`
}

func (h *Grams) parseParams(w http.ResponseWriter, r *http.Request) (*GramParams, error) {
	if err := parseForm(w, r, h.MaxUploadBytes); err != nil {
		return nil, err
	}
	file, header, err := formFile(r, "gram[photo]", "gram[picture]", "photo")
	if err != nil {
		return nil, err
	}
	return &GramParams{
		Message:     formValue(r, "gram[message]", "message"),
		Photo:       file,
		PhotoHeader: header,
	}, nil
}

func (h *Grams) withPhotoURL(g *models.Gram) *models.Gram {
	g.PhotoURL = h.Photos.URL(g.Photo)
	return g
}

func (h *Grams) Index(w http.ResponseWriter, r *http.Request) {
	grams, err := h.Store.List(r.Context())
	if err != nil {
		internalError(w, h.Log, err, "list grams")
		return
	}
	for i := range grams {
		h.withPhotoURL(&grams[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"grams": grams,
		"count": len(grams),
	})
}

func (h *Grams) Show(w http.ResponseWriter, r *http.Request) {
	gram, err := h.Store.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.findError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gram": h.withPhotoURL(gram)})
}

func (h *Grams) New(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, gramForm{Gram: &models.Gram{}})
}

// Create validates the input before the photo is stored, and removes the
// stored photo again when the insert fails.
func (h *Grams) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	params, err := h.parseParams(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	defer params.Close()

	gram := &models.Gram{Message: params.Message, UserID: user.ID}
	if params.Photo != nil {
		gram.Photo = storage.NewKey(user.ID, params.PhotoHeader.Filename)
	}
	if err := h.Store.Validate(gram); err != nil {
		h.renderInvalid(w, gram, err)
		return
	}

	if params.Photo != nil {
		body, contentType, err := h.preparePhoto(params)
		if err != nil {
			if errors.Is(err, errUnreadablePhoto) {
				h.Log.WithError(err).WithField("user_id", user.ID).Debug("rejected photo")
				h.renderInvalid(w, gram, &store.ValidationError{
					Fields: models.FieldErrors{"photo": {"is not a valid image"}},
				})
				return
			}
			internalError(w, h.Log, err, "read photo")
			return
		}
		if err := h.Photos.Save(r.Context(), gram.Photo, body, contentType); err != nil {
			internalError(w, h.Log, err, "store photo")
			return
		}
	}

	if err := h.Store.Create(r.Context(), gram); err != nil {
		if gram.Photo != "" {
			if derr := h.Photos.Delete(r.Context(), gram.Photo); derr != nil {
				h.Log.WithError(derr).WithField("key", gram.Photo).Warn("orphaned photo after failed create")
			}
		}
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			h.renderInvalid(w, gram, err)
			return
		}
		internalError(w, h.Log, err, "create gram")
		return
	}

	h.Metrics.GramCreated()
	h.Log.WithFields(logrus.Fields{"gram_id": gram.ID, "user_id": user.ID}).Info("gram created")
	redirectToRoot(w, r)
}

var errUnreadablePhoto = errors.New("unreadable photo")

// preparePhoto runs the upload through the processor. A processor failure
// means the upload is not an image it understands.
func (h *Grams) preparePhoto(params *GramParams) (io.Reader, string, error) {
	contentType := params.PhotoHeader.Header.Get("Content-Type")
	if h.Processor == nil {
		return params.Photo, contentType, nil
	}
	data, err := io.ReadAll(params.Photo)
	if err != nil {
		return nil, "", err
	}
	processed, ct, err := h.Processor.Process(data)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", errUnreadablePhoto, err)
	}
	return bytes.NewReader(processed), ct, nil
}

func (h *Grams) Edit(w http.ResponseWriter, r *http.Request) {
	gram, ok := h.authorizedGram(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, gramForm{Gram: h.withPhotoURL(gram)})
}

// Update only ever changes the message.
func (h *Grams) Update(w http.ResponseWriter, r *http.Request) {
	gram, ok := h.authorizedGram(w, r)
	if !ok {
		return
	}
	params, err := h.parseParams(w, r)
	if err != nil {
		badRequest(w, err)
		return
	}
	defer params.Close()

	updated, err := h.Store.Update(r.Context(), chi.URLParam(r, "id"), params.Message)
	if err != nil {
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			candidate := *gram
			candidate.Message = params.Message
			h.renderInvalid(w, h.withPhotoURL(&candidate), err)
			return
		}
		h.findError(w, err)
		return
	}
	h.Log.WithField("gram_id", updated.ID).Info("gram updated")
	redirectToRoot(w, r)
}

func (h *Grams) Destroy(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authorizedGram(w, r); !ok {
		return
	}
	deleted, err := h.Store.Destroy(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.findError(w, err)
		return
	}
	if deleted.Photo != "" {
		if err := h.Photos.Delete(r.Context(), deleted.Photo); err != nil {
			h.Log.WithError(err).WithField("key", deleted.Photo).Warn("delete photo of destroyed gram")
		}
	}
	h.Log.WithField("gram_id", deleted.ID).Info("gram destroyed")
	redirectToRoot(w, r)
}

// authorizedGram checks, in order, that someone is signed in, that the gram
// exists and that they own it.
func (h *Grams) authorizedGram(w http.ResponseWriter, r *http.Request) (*models.Gram, bool) {
	user, ok := currentUser(w, r)
	if !ok {
		return nil, false
	}
	gram, err := h.Store.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.findError(w, err)
		return nil, false
	}
	if err := auth.Authorize(user, gram); err != nil {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return gram, true
}

func (h *Grams) findError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Gram not found", http.StatusNotFound)
		return
	}
	internalError(w, h.Log, err, "find gram")
}

func (h *Grams) renderInvalid(w http.ResponseWriter, gram *models.Gram, err error) {
	var verr *store.ValidationError
	if !errors.As(err, &verr) {
		internalError(w, h.Log, err, "validate gram")
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, gramForm{Gram: gram, Errors: verr.Fields})
}
