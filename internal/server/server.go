package server

import (
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/gorilla/sessions"
	"github.com/petermazzocco/grams/internal/auth"
	"github.com/petermazzocco/grams/internal/handlers"
	"github.com/petermazzocco/grams/internal/imaging"
	"github.com/petermazzocco/grams/internal/metrics"
	"github.com/petermazzocco/grams/internal/storage"
	"github.com/petermazzocco/grams/internal/store"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Options struct {
	DB           *gorm.DB
	Photos       storage.Store
	Processor    imaging.Processor
	Sessions     sessions.Store
	Metrics      *metrics.Metrics
	Log          *logrus.Logger
	RequirePhoto bool
	// UploadDir is served under /uploads when photos live on disk.
	UploadDir          string
	MaxUploadBytes     int64
	RateLimitPerMinute int
}

func NewRouter(o Options) http.Handler {
	grams := store.NewGramStore(o.DB, o.RequirePhoto)
	users := store.NewUserStore(o.DB)

	gramHandler := &handlers.Grams{
		Store:          grams,
		Photos:         o.Photos,
		Processor:      o.Processor,
		Metrics:        o.Metrics,
		Log:            o.Log,
		MaxUploadBytes: o.MaxUploadBytes,
	}
	commentHandler := &handlers.Comments{
		Store:   store.NewCommentStore(o.DB),
		Metrics: o.Metrics,
		Log:     o.Log,
	}
	userHandler := &handlers.Users{
		Store:    users,
		Grams:    grams,
		Photos:   o.Photos,
		Sessions: o.Sessions,
		Log:      o.Log,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(o.Log))
	r.Use(middleware.Recoverer)
	r.Use(o.Metrics.Middleware)
	r.Use(auth.CurrentUser(o.Sessions, users, o.Log))

	limit := httprate.Limit(
		o.RateLimitPerMinute,
		1*time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
	)

	r.Get("/", gramHandler.Index)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", o.Metrics.Handler())
	if o.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(filesOnly{http.Dir(o.UploadDir)})))
	}

	// User auth
	r.Get("/users/sign_in", userHandler.SignIn)
	r.Get("/auth/{provider}", userHandler.BeginAuth)
	r.Post("/auth/{provider}", userHandler.BeginAuth)
	r.Get("/auth/{provider}/callback", userHandler.Callback)
	r.Post("/logout/{provider}", userHandler.SignOut)
	r.Delete("/users/sign_out", userHandler.SignOut)
	r.With(auth.RequireUser).Get("/users/me", userHandler.Me)

	r.Route("/grams", func(r chi.Router) {
		r.Get("/", gramHandler.Index)
		r.Get("/{id}", gramHandler.Show)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser)
			r.Get("/new", gramHandler.New)
			r.Get("/{id}/edit", gramHandler.Edit)

			r.Group(func(r chi.Router) {
				r.Use(limit)
				r.Post("/", gramHandler.Create)
				r.Patch("/{id}", gramHandler.Update)
				r.Put("/{id}", gramHandler.Update)
				r.Delete("/{id}", gramHandler.Destroy)
				r.Post("/{id}/comments", commentHandler.Create)
			})
		})
	})

	return r
}

// filesOnly hides directories so upload folders are never listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, os.ErrNotExist
	}
	return file, nil
}
