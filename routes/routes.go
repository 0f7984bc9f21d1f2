package routes

import (
	"github.com/courtside-club/courtside-server/handlers"
	"github.com/courtside-club/courtside-server/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes mounts every endpoint. Reads and the change feed are public;
// every mutating route requires an authenticated club admin.
func SetupRoutes(
	router *chi.Mux,
	allowedOrigins []string,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticator(jwtSecret)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/rounds/status", tournamentHandler.RoundStatus)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", tournamentHandler.Create)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)

			r.Post("/{tournamentID}/registration/open", tournamentHandler.OpenRegistration)
			r.Post("/{tournamentID}/registration/close", tournamentHandler.CloseRegistration)
			r.Post("/{tournamentID}/participants", tournamentHandler.AddParticipant)
			r.Delete("/{tournamentID}/participants/{playerID}", tournamentHandler.RemoveParticipant)

			r.Post("/{tournamentID}/seeds", tournamentHandler.AssignSeed)
			r.Post("/{tournamentID}/start", tournamentHandler.Start)
			r.Post("/{tournamentID}/rounds/next", tournamentHandler.GenerateNextRound)
			r.Post("/{tournamentID}/complete", tournamentHandler.Complete)
			r.Post("/{tournamentID}/cancel", tournamentHandler.Cancel)
			r.Post("/{tournamentID}/poster", tournamentHandler.UploadPoster)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/{matchID}/score", matchHandler.SubmitScore)
			r.Post("/{matchID}/confirm", matchHandler.ConfirmResult)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
}
