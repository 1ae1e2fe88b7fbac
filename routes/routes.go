package routes

import (
	"github.com/cardhall/tournament-engine/handlers"
	"github.com/cardhall/tournament-engine/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes mounts every handler on the router. Read endpoints are public;
// anything that mutates tournament state requires an organizer token.
func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	playerHandler *handlers.PlayerHandler,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/players", func(r chi.Router) {
		r.Get("/", playerHandler.List)
		r.Get("/{playerID}", playerHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", playerHandler.Create)
			r.Put("/{playerID}", playerHandler.Update)
			r.Delete("/{playerID}", playerHandler.Delete)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.List)
		r.Get("/{tournamentID}", tournamentHandler.Get)
		r.Get("/{tournamentID}/rounds", tournamentHandler.GetRounds)
		r.Get("/{tournamentID}/rounds/{round}/pairings", tournamentHandler.GetRoundPairings)
		r.Get("/{tournamentID}/standings", tournamentHandler.GetStandings)
		r.Get("/{tournamentID}/standings/{playerID}", tournamentHandler.GetPlayerStanding)
		r.Get("/{tournamentID}/matches", matchHandler.ListByTournament)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", tournamentHandler.Create)
			r.Put("/{tournamentID}", tournamentHandler.Update)
			r.Delete("/{tournamentID}", tournamentHandler.Delete)

			r.Post("/{tournamentID}/players/{playerID}", tournamentHandler.RegisterPlayer)
			r.Delete("/{tournamentID}/players/{playerID}", tournamentHandler.DropPlayer)
			r.Post("/{tournamentID}/players/{playerID}/reinstate", tournamentHandler.ReinstatePlayer)

			r.Post("/{tournamentID}/start", tournamentHandler.Start)
			r.Post("/{tournamentID}/rounds", tournamentHandler.CreateNextRound)
			r.Post("/{tournamentID}/end", tournamentHandler.End)
		})
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/", matchHandler.List)
		r.Get("/{matchID}", matchHandler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/{matchID}/result", matchHandler.SubmitResult)
			r.Post("/{matchID}/draw", matchHandler.SubmitIntentionalDraw)
			r.Post("/{matchID}/start", matchHandler.Start)
			r.Post("/{matchID}/end", matchHandler.End)
		})
	})

	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Get("/swagger/*", httpSwagger.Handler())
}
