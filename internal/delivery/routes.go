package delivery

import (
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/Vovarama1992/flipbook/internal/session"
)

func RegisterRoutes(
	r chi.Router,
	hAuth *AuthHandler,
	hEbook *EbookHandler,
	hView *ViewerHandler,
	hAdmin *AdminHandler,
	authSvc session.Service,
) {
	r.Group(func(pr chi.Router) {
		pr.Use(httputil.RecoverMiddleware)

		// --- auth ---
		pr.Group(func(ar chi.Router) {
			ar.Use(httprate.LimitByIP(20, time.Minute))
			ar.Post("/auth/signup", hAuth.SignUp)
			ar.Post("/auth/signin", hAuth.SignIn)
		})

		// --- просмотр, без авторизации ---
		pr.Get("/v/{id}", hView.Open)
		pr.Get("/v/{id}/pages/{n}", hView.Page)

		// --- protected ---
		pr.Group(func(sr chi.Router) {
			sr.Use(Require(authSvc))

			sr.Post("/auth/signout", hAuth.SignOut)
			sr.Get("/auth/me", hAuth.Me)

			sr.With(httprate.LimitByIP(10, time.Minute)).Post("/ebooks", hEbook.Create)

			sr.With(RequireAdmin).Get("/admin/stats", hAdmin.Stats)
		})
	})
}
