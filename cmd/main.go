package main

import (
	"embed"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/spf13/afero"

	"github.com/frankie1ny/charitysuperbowl/internal/assistant"
	"github.com/frankie1ny/charitysuperbowl/internal/config"
	"github.com/frankie1ny/charitysuperbowl/internal/handlers"
	"github.com/frankie1ny/charitysuperbowl/internal/services"
	"github.com/frankie1ny/charitysuperbowl/internal/storage"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:assets
var assetsFS embed.FS

func main() {
	defer logger.Init("charitysuperbowl", true, false, os.Stdout).Close()

	// 1. Load configuration (file plus environment overrides).
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize the Board Service over a file-backed store.
	store := storage.NewFileStore(afero.NewOsFs(), cfg.Storage.Path)
	boardService := services.NewBoardService(store)

	// 3. Build the assistant client.
	aiClient := assistant.New(assistant.Config{
		URL:     cfg.Assistant.URL,
		APIKey:  cfg.Assistant.APIKey,
		Model:   cfg.Assistant.Model,
		Timeout: time.Duration(cfg.Assistant.TimeoutSeconds) * time.Second,
	})

	// 4. Load HTML templates from the embedded filesystem.
	templates, err := template.New("").Funcs(handlers.TemplateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}

	// 5. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(boardService, aiClient, templates, cfg.Share.BaseURL)

	// 6. Set up the Gin router
	r := gin.Default()

	// 7. Serve static files from the embedded filesystem.
	assetsSubFS, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		log.Fatalf("Failed to create assets sub-filesystem: %v", err)
	}
	r.StaticFS("/assets", http.FS(assetsSubFS))

	// 8. Register public routes (before middleware)
	httpHandler.RegisterPublicRoutes(r)

	// 9. Group routes that require the admin session and apply middleware
	adminRoutes := r.Group("/")
	adminRoutes.Use(httpHandler.AdminMiddleware())
	httpHandler.RegisterAdminRoutes(adminRoutes)

	// 10. Run the server
	log.Printf("Server starting on %s", cfg.Server.Addr)
	if err := r.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
