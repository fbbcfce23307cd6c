package routes

import (
	"github.com/Dosada05/prediction-pool/handlers"
	"github.com/Dosada05/prediction-pool/middleware"
	"github.com/Dosada05/prediction-pool/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret string,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	poolHandler *handlers.PoolHandler,
	rosterHandler *handlers.RosterHandler,
	predictionHandler *handlers.PredictionHandler,
	knockoutHandler *handlers.KnockoutHandler,
	bracketHandler *handlers.BracketHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// Публичные маршруты
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)
	router.Get("/auth/confirm-email", authHandler.ConfirmEmail)
	router.Post("/auth/forgot-password", authHandler.ForgotPassword)
	router.Post("/auth/reset-password", authHandler.ResetPassword)

	// Справочные данные турнира доступны без авторизации.
	router.Get("/groups", rosterHandler.ListGroups)
	router.Get("/teams/{teamID}", rosterHandler.GetTeam)
	router.Get("/matches", rosterHandler.ListMatches)

	// WebSocket-комнаты пулов
	router.Get("/ws/pools/{poolID}", webSocketHandler.ServeWs)

	// Защищенные маршруты
	router.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(jwtSecret))

		r.Get("/me", userHandler.GetCurrentUser)
		r.Patch("/me", userHandler.UpdateProfile)
		r.Post("/me/avatar", userHandler.UploadAvatar)

		r.Post("/pools", poolHandler.CreatePool)
		r.Post("/pools/join", poolHandler.JoinPool)
		r.Get("/pools", poolHandler.ListMyPools)

		r.Route("/pools/{poolID}", func(r chi.Router) {
			r.Get("/", poolHandler.GetPool)
			r.Get("/members", poolHandler.ListMembers)
			r.Delete("/membership", poolHandler.LeavePool)

			r.Route("/predictions", func(r chi.Router) {
				r.Put("/groups/{groupID}", predictionHandler.SaveGroupPredictions)
				r.Put("/groups/{groupID}/order", predictionHandler.SetManualGroupOrder)
				r.Get("/groups/{groupID}/standings", predictionHandler.GetGroupStandings)
				r.Get("/best-thirds", predictionHandler.GetBestThirdPlaces)

				r.Get("/bracket/round-of-32", bracketHandler.GetRoundOf32)
				r.Put("/knockout/{phase}", knockoutHandler.SavePhasePredictions)
				r.Get("/knockout/{phase}", knockoutHandler.GetPhasePredictions)
			})
		})

		// Административные маршруты
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authorize(models.RoleAdmin))
			r.Post("/teams/{teamID}/crest", rosterHandler.UploadTeamCrest)
		})
	})
}
