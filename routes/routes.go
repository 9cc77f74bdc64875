package routes

import (
	"net/http"
	"time"

	"github.com/Dosada05/tournament-lifecycle/handlers"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/tournament-lifecycle/docs"
)

type Options struct {
	AllowedOrigins []string
	// Authenticate проверяет токен; применяется к изменяющим маршрутам.
	Authenticate func(http.Handler) http.Handler
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	userHandler *handlers.UserHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// websocket живёт дольше любого таймаута запроса
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHandler)
			r.With(opts.Authenticate).Post("/", tournamentHandler.CreateHandler)

			r.Route("/{tournamentID}", func(r chi.Router) {
				r.Get("/", tournamentHandler.GetByIDHandler)
				r.Get("/participants", tournamentHandler.ListParticipantsHandler)
				r.Get("/matches", matchHandler.ListByTournamentHandler)
				r.Get("/archive", tournamentHandler.ArchiveHandler)

				r.Group(func(r chi.Router) {
					r.Use(opts.Authenticate)
					r.Delete("/", tournamentHandler.DeleteHandler)
					r.Post("/join", tournamentHandler.JoinHandler)
					r.Post("/start", tournamentHandler.StartHandler)
					r.Post("/finish", tournamentHandler.FinishHandler)
					r.Post("/matches/next", matchHandler.NextHandler)
				})
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(opts.Authenticate).Get("/me", userHandler.GetMeHandler)
			r.Get("/{userID}", userHandler.GetByIDHandler)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", matchHandler.GetByIDHandler)
			r.Get("/ready", matchHandler.GetReadyHandler)

			r.Group(func(r chi.Router) {
				r.Use(opts.Authenticate)
				r.Post("/complete", matchHandler.CompleteHandler)
				r.Post("/score", matchHandler.ScoreHandler)
				r.Post("/ready", matchHandler.ReadyHandler)
			})
		})
	})
}
