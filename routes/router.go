package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoodlink/server/config"
	"github.com/hoodlink/server/controllers"
	"github.com/hoodlink/server/middleware"
	"github.com/hoodlink/server/storage"
	"github.com/hoodlink/server/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, store storage.Storage) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = 16 << 20
	// Access log goes to its own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err != nil {
		utils.Sugar.Warnf("access log disabled, falling back to app logger: %v", err)
		gl = utils.Logger
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, true))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	if local, ok := store.(*storage.LocalStorage); ok {
		r.Static(local.URLPrefix(), local.Root())
	}

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	userController := controllers.NewUserController(db, store)
	homeController := controllers.NewHomeController(db)
	postController := controllers.NewPostController(db, store)
	commentController := controllers.NewCommentController(db)
	eventController := controllers.NewEventController(db)
	chatController := controllers.NewChatController(db)
	neighborhoodController := controllers.NewNeighborhoodController(db)

	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware())

	api.GET("/neighborhoods/getAllNeighborhoods", neighborhoodController.ListNeighborhoods)

	users := api.Group("/users")
	users.POST("/register", userController.Register)
	users.POST("/login", userController.Login)
	users.GET("/captcha", userController.Captcha)

	authed := users.Group("")
	authed.Use(middleware.AuthRequired(), middleware.ActiveUser(db))
	authed.GET("", homeController.GetHome)
	authed.GET("/", homeController.GetHome)
	authed.POST("/logout", userController.Logout)
	authed.GET("/profile", userController.Profile)
	authed.PUT("/profile", userController.UpdateProfile)
	authed.PUT("/profilePhoto", userController.UpdateProfilePhoto)
	authed.PUT("/password", userController.ChangePassword)
	authed.DELETE("/user", userController.DeleteAccount)
	authed.GET("/neighbors", userController.Neighbors)

	posts := api.Group("/post")
	posts.Use(middleware.AuthRequired(), middleware.ActiveUser(db))
	posts.POST("", postController.CreatePost)
	posts.POST("/", postController.CreatePost)
	posts.GET("/allPosts", postController.ListPosts)
	posts.GET("/category/:category", postController.ListByCategory)
	posts.GET("/myPosts", postController.ListMyPosts)
	posts.GET("/searchMyPosts", postController.SearchMyPosts)
	posts.GET("/search", postController.SearchPosts)
	posts.GET("/editPost/:postId", postController.GetPostForEdit)
	posts.GET("/:postId", postController.GetPost)
	posts.PUT("/:postId", postController.UpdatePost)
	posts.DELETE("/:postId", postController.DeletePost)
	posts.POST("/:postId/comments", commentController.CreateComment)
	posts.GET("/:postId/comments", commentController.ListComments)
	posts.PUT("/comments/:id", commentController.UpdateComment)
	posts.DELETE("/comments/:id", commentController.DeleteComment)

	events := api.Group("/events")
	events.Use(middleware.AuthRequired(), middleware.ActiveUser(db))
	events.POST("", eventController.CreateEvent)
	events.POST("/", eventController.CreateEvent)
	events.GET("/allEvents", eventController.ListEvents)
	events.GET("/myAllEvents", eventController.ListMyEvents)
	events.GET("/search", eventController.SearchEvents)
	events.GET("/searchMyEvents", eventController.SearchMyEvents)
	events.GET("/editEvent/:eventId", eventController.GetEventForEdit)
	events.GET("/:eventId", eventController.GetEvent)
	events.PUT("/:eventId", eventController.UpdateEvent)
	events.DELETE("/:eventId", eventController.DeleteEvent)

	chat := api.Group("/chat")
	chat.Use(middleware.AuthRequired(), middleware.ActiveUser(db))
	chat.POST("/send", chatController.SendMessage)
	chat.GET("/conversations", chatController.ListConversations)
	chat.GET("/:conversationId/messages", chatController.ListMessages)
	chat.PUT("/:messageId/read", chatController.MarkAsRead)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "Route not found")
	})

	return r
}
