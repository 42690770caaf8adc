package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/petermazzocco/grams/internal/store"
	"github.com/petermazzocco/grams/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers map[uint]*models.User

func (f fakeUsers) Find(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func sessionCookie(t *testing.T, userID uint) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, SignIn(rec, req, NewCookieStore("secret", 3600, false), userID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if u, ok := UserFromContext(r.Context()); ok {
		w.Write([]byte(u.Name))
		return
	}
	w.Write([]byte("anonymous"))
}

func TestCurrentUser(t *testing.T) {
	logger, _ := test.NewNullLogger()
	users := fakeUsers{1: {ID: 1, Name: "Ada"}}
	h := CurrentUser(NewCookieStore("secret", 3600, false), users, logger)(http.HandlerFunc(whoami))

	tests := []struct {
		name   string
		cookie *http.Cookie
		want   string
	}{
		{"no cookie", nil, "anonymous"},
		{"signed in", sessionCookie(t, 1), "Ada"},
		{"deleted user", sessionCookie(t, 2), "anonymous"},
		{"garbage cookie", &http.Cookie{Name: SessionName, Value: "garbage"}, "anonymous"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Body.String())
		})
	}
}

func TestCurrentUserRejectsOtherSecret(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	users := fakeUsers{1: {ID: 1, Name: "Ada"}}
	h := CurrentUser(NewCookieStore("rotated", 3600, false), users, logger)(http.HandlerFunc(whoami))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(sessionCookie(t, 1))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "anonymous", rec.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "discarding unreadable session", hook.LastEntry().Message)
}

func TestRequireUser(t *testing.T) {
	h := RequireUser(http.HandlerFunc(whoami))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/grams/new", nil))
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodGet, "/grams/new", nil)
	req = req.WithContext(WithUser(req.Context(), &models.User{ID: 3, Name: "Grace"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Grace", rec.Body.String())
}

func TestSessionCookieAttributes(t *testing.T) {
	c := sessionCookie(t, 1)
	assert.Equal(t, SessionName, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestSignOutExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(sessionCookie(t, 1))
	require.NoError(t, SignOut(rec, req, NewCookieStore("secret", 3600, false)))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestAuthorize(t *testing.T) {
	owner := &models.User{ID: 1}
	other := &models.User{ID: 2}
	gram := &models.Gram{ID: 10, UserID: 1}

	assert.NoError(t, Authorize(owner, gram))
	assert.ErrorIs(t, Authorize(other, gram), ErrForbidden)
	assert.ErrorIs(t, Authorize(nil, gram), ErrForbidden)
	assert.ErrorIs(t, Authorize(&models.User{}, &models.Gram{}), ErrForbidden)
}
