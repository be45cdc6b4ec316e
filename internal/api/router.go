package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/visualcraft/marketplace/internal/api/handler"
	"github.com/visualcraft/marketplace/internal/api/middleware"
	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/listing"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

// Deps carries the wired dependencies the router needs. Everything here is
// constructed once in main and shared across requests.
type Deps struct {
	AuthService     ports.AuthService
	ItemService     ports.ItemService
	AdminService    ports.AdminService
	CategoryService ports.CategoryService

	Feed     *listing.Feed
	Resolver middleware.ActorResolver
	Revoker  middleware.Revoker

	JWTSecret string
	Mongo     *mongo.Database
	Redis     *redis.Client
	Log       zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	itemHandler := handler.NewItemHandler(deps.ItemService, deps.Feed)
	adminHandler := handler.NewAdminHandler(deps.AdminService)
	categoryHandler := handler.NewCategoryHandler(deps.CategoryService)

	authed := middleware.Auth(deps.JWTSecret, deps.Revoker)
	withActor := middleware.Actor(deps.Resolver)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authed, withActor)
	e.GET("/me", authHandler.Me, authed, withActor)
	e.PATCH("/me", authHandler.UpdateProfile, authed, withActor)

	// --- Item routes (reads public, writes authenticated) ---
	e.GET("/items", itemHandler.List)
	e.GET("/items/featured", itemHandler.Featured)
	e.GET("/items/:id", itemHandler.Get)
	e.POST("/items/more", itemHandler.LoadMore)
	e.POST("/items/refresh", itemHandler.Refresh)
	e.POST("/items", itemHandler.Create, authed, withActor)
	e.PUT("/items/:id", itemHandler.Update, authed, withActor)
	e.DELETE("/items/:id", itemHandler.Delete, authed, withActor)
	e.POST("/items/:id/feature", itemHandler.Feature, authed, withActor,
		middleware.Require(domain.FeaturePosts))
	e.PUT("/items/:id/rating", itemHandler.Rate, authed, withActor)

	// --- Category routes ---
	e.GET("/categories", categoryHandler.List)
	e.POST("/categories", categoryHandler.Add, authed, withActor,
		middleware.Require(domain.ManageCategories))
	e.DELETE("/categories/:name", categoryHandler.Remove, authed, withActor,
		middleware.Require(domain.ManageCategories))

	// --- Admin routes ---
	admin := e.Group("/admin", authed, withActor)
	admin.GET("/users", adminHandler.ListUsers,
		middleware.Require(domain.ViewAdminDashboard))
	admin.PATCH("/users/:uid", adminHandler.UpdateUser,
		middleware.Require(domain.ManageUsers))
	admin.DELETE("/users/:uid", adminHandler.DeleteUser,
		middleware.Require(domain.ManageUsers))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
