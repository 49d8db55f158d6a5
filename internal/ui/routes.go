package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all UI routes on the given router.
func (ui *UI) RegisterRoutes(r chi.Router) {
	// Public routes (no auth required). Logged-in users are bounced to
	// the dashboard.
	r.Group(func(r chi.Router) {
		r.Use(ui.PreventAuthAccess)
		r.Get("/login", ui.HandleLogin)
		r.Get("/register", ui.HandleRegister)
	})
	r.Post("/login", ui.HandleLoginPost)
	r.Post("/register", ui.HandleRegisterPost)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})

	// Protected routes (auth required).
	r.Group(func(r chi.Router) {
		r.Use(ui.AuthMiddleware)

		r.Get("/dashboard", ui.HandleDashboard)
		r.Get("/logout", ui.HandleLogout)

		// Owners
		r.Route("/owners", func(r chi.Router) {
			r.Get("/", ui.HandleOwnerList)
			r.Get("/new", ui.HandleOwnerNew)
			r.Post("/", ui.HandleOwnerCreate)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/edit", ui.HandleOwnerEdit)
				r.Post("/", ui.HandleOwnerUpdate)
				r.Post("/delete", ui.HandleOwnerDelete)
			})
		})
	})
}
