package routes

import (
	"net/http"
	"time"

	"expertmeet/handlers"
	"expertmeet/middleware"
	"expertmeet/models"
	"expertmeet/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	clientOnly   = middleware.RequireRole(string(models.RoleClient))
	providerOnly = middleware.RequireRole(string(models.RoleProvider))
)

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm ExpertMeet", "services": utils.GetHealthStatus()})
	})
}

// RegisterProfileRoutes registers public provider lookups and the caller's own profile.
func RegisterProfileRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	providers := api.Group("/providers")
	{
		providers.GET("/:id", hb.GetProviderHandler)
		providers.GET("/:id/slots", hb.ProviderSlotsHandler)
	}

	profile := api.Group("/profile", middleware.JWTAuthMiddleware())
	{
		profile.GET("", hb.GetMyProfileHandler)
		profile.PUT("", hb.UpdateProfileHandler)
		profile.PUT("/fcm-token", hb.UpdateFCMTokenHandler)
	}
}

// RegisterProviderRoutes registers the provider-only dashboard endpoints.
func RegisterProviderRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	availability := api.Group("/availability", middleware.JWTAuthMiddleware(), providerOnly)
	{
		availability.POST("", hb.CreateAvailabilityHandler)
		availability.GET("", hb.ListAvailabilityHandler)
		availability.DELETE("/:ruleId", hb.DeleteAvailabilityHandler)
	}

	api.GET("/usage", middleware.JWTAuthMiddleware(), providerOnly, hb.UsageSummaryHandler)

	leads := api.Group("/leads", middleware.JWTAuthMiddleware(), providerOnly)
	{
		leads.GET("", hb.ListLeadsHandler)
		leads.PATCH("/:id", hb.UpdateLeadHandler)
	}
}

// RegisterAppointmentRoutes sets up the endpoints for the booking engine.
func RegisterAppointmentRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	appointments := api.Group("/appointments", middleware.JWTAuthMiddleware())
	{
		appointments.POST("", clientOnly, hb.BookAppointmentHandler)
		appointments.GET("", hb.ListAppointmentsHandler)
		appointments.GET("/:id", hb.GetAppointmentHandler)
		appointments.POST("/:id/cancel", hb.CancelAppointmentHandler)
		appointments.POST("/:id/confirm", providerOnly, hb.ConfirmAppointmentHandler)
		appointments.POST("/:id/payment-intent", clientOnly, hb.PaymentIntentHandler)
	}
}

// RegisterMessagingRoutes registers conversations, call invitations and documents.
func RegisterMessagingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	authed := api.Group("", middleware.JWTAuthMiddleware())
	{
		authed.POST("/messages", hb.SendMessageHandler)
		authed.GET("/messages/:otherId", hb.ConversationHandler)
		authed.POST("/calls", hb.StartCallHandler)
		authed.POST("/documents", hb.UploadDocumentHandler)
		authed.GET("/documents", hb.ListDocumentsHandler)
	}
}

// RegisterRoomRoutes registers the signaling relay used by browser participants.
func RegisterRoomRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	rooms := api.Group("/rooms/:roomId", middleware.JWTAuthMiddleware())
	{
		rooms.POST("/signal", hb.RelaySignalHandler)
		rooms.GET("/events", hb.RoomEventsHandler)
		rooms.POST("/presence", hb.JoinRoomHandler)
		rooms.DELETE("/presence", hb.LeaveRoomHandler)
		rooms.GET("/presence", hb.RoomPresenceHandler)
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)

	api := r.Group("/api")
	RegisterProfileRoutes(api, hb)
	RegisterProviderRoutes(api, hb)
	RegisterAppointmentRoutes(api, hb)
	RegisterMessagingRoutes(api, hb)
	RegisterRoomRoutes(api, hb)
}
