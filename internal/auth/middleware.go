package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/petermazzocco/grams/internal/store"
	"github.com/petermazzocco/grams/models"
	"github.com/sirupsen/logrus"
)

const (
	SessionName = "_grams_session"
	userIDKey   = "user_id"

	// LoginPath is where signed out visitors are sent.
	LoginPath = "/users/sign_in"
)

type contextKey struct{}

// UserFinder resolves the user id kept in the session.
type UserFinder interface {
	Find(ctx context.Context, id uint) (*models.User, error)
}

// UserFromContext returns the principal resolved by CurrentUser, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(contextKey{}).(*models.User)
	return u, ok && u != nil
}

func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// CurrentUser loads the signed in user, when there is one, into the request
// context. Anonymous requests pass through untouched.
func CurrentUser(sessionStore sessions.Store, users UserFinder, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := sessionStore.Get(r, SessionName)
			if err != nil {
				// A cookie signed with an old secret is treated as signed out.
				log.WithError(err).Debug("discarding unreadable session")
				next.ServeHTTP(w, r)
				return
			}

			userID, ok := session.Values[userIDKey].(uint)
			if !ok || userID == 0 {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.Find(r.Context(), userID)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					log.WithError(err).WithField("user_id", userID).Warn("session user lookup failed")
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireUser redirects signed out visitors to the login page.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			http.Redirect(w, r, LoginPath, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SignIn records userID in the session cookie.
func SignIn(w http.ResponseWriter, r *http.Request, sessionStore sessions.Store, userID uint) error {
	session, err := sessionStore.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	session.Values[userIDKey] = userID
	return session.Save(r, w)
}

// SignOut expires the session cookie.
func SignOut(w http.ResponseWriter, r *http.Request, sessionStore sessions.Store) error {
	session, err := sessionStore.Get(r, SessionName)
	if err != nil && session == nil {
		return err
	}
	delete(session.Values, userIDKey)
	session.Options.MaxAge = -1
	return session.Save(r, w)
}
