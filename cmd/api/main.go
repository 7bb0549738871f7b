// main.go
package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"github.com/NicoHurtado/prompt2course/courses"
	"github.com/NicoHurtado/prompt2course/internal/platform"
	"github.com/NicoHurtado/prompt2course/models"
	"github.com/NicoHurtado/prompt2course/worker"
)

type Server struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
}

func NewServer() (*Server, error) {
	// Use the shared connection initializers
	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()

	if err := db.AutoMigrate(
		&models.Course{},
		&models.Module{},
		&models.Chunk{},
		&models.Video{},
		&models.Quiz{},
		&models.GenerationLog{},
	); err != nil {
		return nil, err
	}

	// Create Gin router with CORS middleware
	router := gin.Default()

	// Add CORS middleware for your frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", os.Getenv("FRONTEND_URL"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		DB:     db,
		Redis:  rdb,
		Router: router,
	}

	// Setup routes
	server.setupRoutes()

	return server, nil
}

func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		// Check database connection
		sqlDB, err := s.DB.DB()
		if err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	})

	// Root route
	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "Prompt2Course API v1"})
	})

	courseHandler := courses.NewHandler(s.DB, &worker.RedisQueue{RDB: s.Redis})

	api := s.Router.Group("/api")
	{
		courseRoutes := api.Group("/courses")
		{
			courseRoutes.POST("", courseHandler.CreateCourse)
			courseRoutes.GET("", courseHandler.ListCourses)
			courseRoutes.GET("/:id", courseHandler.GetCourse)
			courseRoutes.GET("/:id/status", courseHandler.GetStatus)
			courseRoutes.POST("/:id/start", courseHandler.StartCourse)
			courseRoutes.POST("/:id/regenerate", courseHandler.RegenerateCourse)
			courseRoutes.GET("/:id/logs", courseHandler.GetLogs)
		}
	}
}

func (s *Server) Run() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("🚀 Server starting on port %s", port)
	return s.Router.Run(":" + port)
}

func main() {
	server, err := NewServer()
	if err != nil {
		log.Fatal("Failed to create server:", err)
	}

	if err := server.Run(); err != nil {
		log.Fatal("Failed to run server:", err)
	}
}
