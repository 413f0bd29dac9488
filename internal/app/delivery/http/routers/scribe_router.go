package routers

import (
	"scribe-service/internal/app/delivery/http/controllers"
	"scribe-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
)

func attachScribeRoutes(router chi.Router, middlewares *middlewares.Middlewares, scribeController *controllers.ScribeController) {
	router.Use(middlewares.SessionRequired)
	router.Post("/", scribeController.CreateScribe)
	router.Get("/{scribeID}", scribeController.GetScribeByID)
	router.Post("/{scribeID}/ready", scribeController.MarkReady)
	router.Post("/{scribeID}/feedback", scribeController.SubmitFeedback)
}
