package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aris-backend/internal/middleware"
	"github.com/localnerve/aris-backend/internal/models"
	"github.com/localnerve/aris-backend/internal/services"
	"gorm.io/gorm"
)

// Deps are the collaborators the routes are built from
type Deps struct {
	DB       *gorm.DB
	Issuer   *services.TokenIssuer
	Render   *services.RenderService
	Revision models.SchemaRevision
}

// NewApp creates the fiber app with the shared error handling
func NewApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler:          ErrorHandler,
		UnescapePath:          true,
		DisableStartupMessage: true,
	})
}

// RegisterRoutes mounts every API route under /api
func RegisterRoutes(app *fiber.App, deps Deps) {
	api := app.Group("/api")

	// Version middleware
	api.Use(middleware.VersionMiddleware())

	authHandler := &AuthHandler{DB: deps.DB, Issuer: deps.Issuer}
	userHandler := &UserHandler{DB: deps.DB}
	documentHandler := &DocumentHandler{DB: deps.DB, Render: deps.Render, Revision: deps.Revision}
	tagHandler := &TagHandler{DB: deps.DB}
	assetHandler := &AssetHandler{DB: deps.DB}
	publicHandler := &PublicHandler{DB: deps.DB, Render: deps.Render, Revision: deps.Revision}

	// Account routes (no authentication)
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Public citation routes (no authentication)
	public := api.Group("/public")
	public.Get("/:identifier", publicHandler.GetPublication)
	public.Get("/:identifier/content", publicHandler.GetContent)
	public.Get("/:identifier/cite", publicHandler.GetCitation)
	public.Get("/:identifier/sections/:name", publicHandler.GetSection)

	// Everything below requires a bearer access token
	requireAuth := middleware.RequireAuth(deps.Issuer, deps.DB)

	users := api.Group("/users", requireAuth)
	users.Get("/me", userHandler.Me)
	users.Put("/me", userHandler.UpdateMe)
	users.Delete("/me", userHandler.DeleteMe)

	documents := api.Group("/documents", requireAuth)
	documents.Get("/", documentHandler.ListDocuments)
	documents.Post("/", documentHandler.CreateDocument)
	documents.Get("/:id", documentHandler.GetDocument)
	documents.Put("/:id", documentHandler.UpdateDocument)
	documents.Delete("/:id", documentHandler.DeleteDocument)
	documents.Post("/:id/duplicate", documentHandler.DuplicateDocument)
	documents.Get("/:id/content", documentHandler.GetContent)
	documents.Get("/:id/title", documentHandler.GetTitle)
	documents.Get("/:id/sections/:name", documentHandler.GetSection)
	documents.Get("/:id/settings", documentHandler.GetSettings)
	documents.Put("/:id/settings", documentHandler.PutSettings)
	documents.Get("/:id/tags", tagHandler.DocumentTags)
	documents.Post("/:id/tags/:tagId", tagHandler.AttachTag)
	documents.Delete("/:id/tags/:tagId", tagHandler.DetachTag)
	documents.Get("/:id/assets", assetHandler.ListAssets)
	documents.Post("/:id/assets", assetHandler.CreateAsset)

	assets := api.Group("/assets", requireAuth)
	assets.Get("/:id", assetHandler.GetAsset)
	assets.Delete("/:id", assetHandler.DeleteAsset)

	tags := api.Group("/tags", requireAuth)
	tags.Get("/", tagHandler.ListTags)
	tags.Post("/", tagHandler.CreateTag)
	tags.Put("/:id", tagHandler.UpdateTag)
	tags.Delete("/:id", tagHandler.DeleteTag)
}
