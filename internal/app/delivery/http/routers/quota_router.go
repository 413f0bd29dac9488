package routers

import (
	"scribe-service/internal/app/delivery/http/controllers"
	"scribe-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachQuotaRoutes(router chi.Router, middlewares *middlewares.Middlewares, quotaController *controllers.QuotaController) {
	router.Use(middlewares.SessionRequired)
	router.Get("/me", quotaController.GetMyQuota)
	router.Post("/accept-terms", quotaController.AcceptTerms)
}
