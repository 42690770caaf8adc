package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/petermazzocco/grams/internal/auth"
	"github.com/petermazzocco/grams/internal/storage"
	"github.com/petermazzocco/grams/models"
	"github.com/sirupsen/logrus"
)

type UserStore interface {
	FindOrCreateByEmail(ctx context.Context, email, name string) (*models.User, error)
}

type UserGrams interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Gram, error)
}

type Users struct {
	Store    UserStore
	Grams    UserGrams
	Photos   storage.Store
	Sessions sessions.Store
	Log      logrus.FieldLogger
}

type provider struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SignIn lists the configured OAuth providers.
func (h *Users) SignIn(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0)
	for name := range goth.GetProviders() {
		names = append(names, name)
	}
	sort.Strings(names)

	providers := make([]provider, 0, len(names))
	for _, name := range names {
		providers = append(providers, provider{Name: name, URL: "/auth/" + name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

// BeginAuth starts the OAuth dance unless the provider session is still
// valid, in which case the user is signed straight in.
func (h *Users) BeginAuth(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)
	if gothUser, err := gothic.CompleteUserAuth(w, r); err == nil {
		h.completeSignIn(w, r, gothUser)
		return
	}
	gothic.BeginAuthHandler(w, r)
}

func (h *Users) Callback(w http.ResponseWriter, r *http.Request) {
	r = withProvider(r)
	gothUser, err := gothic.CompleteUserAuth(w, r)
	if err != nil {
		h.Log.WithError(err).Warn("complete user auth")
		http.Error(w, "Authentication failed", http.StatusUnauthorized)
		return
	}
	h.completeSignIn(w, r, gothUser)
}

func (h *Users) completeSignIn(w http.ResponseWriter, r *http.Request, gothUser goth.User) {
	if gothUser.Email == "" {
		http.Error(w, "Provider did not return an email address", http.StatusUnauthorized)
		return
	}
	name := gothUser.Name
	if name == "" {
		name = gothUser.NickName
	}
	user, err := h.Store.FindOrCreateByEmail(r.Context(), gothUser.Email, name)
	if err != nil {
		internalError(w, h.Log, err, "find or create user")
		return
	}
	if err := auth.SignIn(w, r, h.Sessions, user.ID); err != nil {
		internalError(w, h.Log, err, "save session")
		return
	}
	h.Log.WithField("user_id", user.ID).Info("user signed in")
	redirectToRoot(w, r)
}

func (h *Users) SignOut(w http.ResponseWriter, r *http.Request) {
	if chi.URLParam(r, "provider") != "" {
		if err := gothic.Logout(w, withProvider(r)); err != nil {
			h.Log.WithError(err).Debug("provider logout")
		}
	}
	if err := auth.SignOut(w, r, h.Sessions); err != nil {
		internalError(w, h.Log, err, "clear session")
		return
	}
	redirectToRoot(w, r)
}

// Me shows the signed in user and their grams.
func (h *Users) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	grams, err := h.Grams.ListByUser(r.Context(), user.ID)
	if err != nil {
		internalError(w, h.Log, err, "list user grams")
		return
	}
	for i := range grams {
		grams[i].PhotoURL = h.Photos.URL(grams[i].Photo)
	}
	u := *user
	u.Grams = grams
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// withProvider exposes the chi route param where gothic looks for it.
func withProvider(r *http.Request) *http.Request {
	name := chi.URLParam(r, "provider")
	if name == "" {
		return r
	}
	q := r.URL.Query()
	q.Set("provider", name)
	r.URL.RawQuery = q.Encode()
	return r
}
