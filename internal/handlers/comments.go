package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/petermazzocco/grams/internal/store"
	"github.com/sirupsen/logrus"
)

type Comments struct {
	Store   store.Comments
	Metrics Recorder
	Log     logrus.FieldLogger
}

// Create adds a comment to the gram in the route and sends the visitor back
// to the front page whether or not the comment was accepted.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := parseForm(w, r, 1<<20); err != nil {
		badRequest(w, err)
		return
	}
	gramID := chi.URLParam(r, "id")
	message := formValue(r, "comment[message]", "message")

	comment, err := h.Store.CreateForGram(r.Context(), gramID, message, user)
	if err != nil {
		var verr *store.ValidationError
		switch {
		case errors.Is(err, store.ErrNotFound):
			http.Error(w, "Gram not found", http.StatusNotFound)
		case errors.As(err, &verr):
			h.Log.WithFields(logrus.Fields{"gram_id": gramID, "user_id": user.ID}).
				WithError(err).Info("comment rejected")
			redirectToRoot(w, r)
		default:
			internalError(w, h.Log, err, "create comment")
		}
		return
	}

	h.Metrics.CommentCreated()
	h.Log.WithFields(logrus.Fields{"comment_id": comment.ID, "gram_id": comment.GramID}).Info("comment created")
	redirectToRoot(w, r)
}
