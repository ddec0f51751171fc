package cmd

import (
	"fmt"
	"time"

	"expertmeet/config"
	"expertmeet/database/repository"
	"expertmeet/handlers"
	"expertmeet/middleware"
	"expertmeet/routes"
	"expertmeet/services/availability"
	"expertmeet/services/booking"
	"expertmeet/services/callroom"
	"expertmeet/services/lead"
	"expertmeet/services/messaging"
	"expertmeet/services/notification"
	"expertmeet/services/payment"
	"expertmeet/services/signaling"
	"expertmeet/services/storage"
	"expertmeet/services/usage"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Infra carries the external capabilities. Nil members disable the feature
// that needs them: no FCM means no pushes, no queue means no reminders, no
// blob store means no document uploads.
type Infra struct {
	RuleCache availability.RuleCache
	Channel   signaling.MessageChannel
	Presence  signaling.PresenceTracker
	FCM       notification.Sender
	Queue     booking.Enqueuer
	Blobs     storage.BlobStore
	StripeKey string
}

// App is the assembled service graph behind the HTTP API.
type App struct {
	Repos         *repository.Set
	Availability  *availability.DefaultAvailabilityService
	Usage         *usage.DefaultUsageService
	Leads         *lead.DefaultLeadService
	Booking       *booking.DefaultBookingEngine
	Messaging     *messaging.DefaultMessagingService
	Notifications *notification.DefaultNotificationService
	Documents     storage.DocumentService
	Payments      payment.PaymentService
	RoomAccess    *callroom.Access
	Channel       signaling.MessageChannel
	Presence      signaling.PresenceTracker
}

func NewApp(repos *repository.Set, infra Infra, logger *zap.Logger) (*App, error) {
	if infra.Channel == nil || infra.Presence == nil {
		return nil, fmt.Errorf("app initialization error: signaling channel and presence are required")
	}
	a := &App{Repos: repos, Channel: infra.Channel, Presence: infra.Presence}
	var err error

	if a.Availability, err = availability.NewDefaultAvailabilityService(repos.Availability, infra.RuleCache, logger.Named("availability")); err != nil {
		return nil, err
	}
	if a.Usage, err = usage.NewDefaultUsageService(repos.Usage, repos.Plans, config.AppConfig.FreePlanName, logger.Named("usage")); err != nil {
		return nil, err
	}
	if a.Leads, err = lead.NewDefaultLeadService(repos.Leads, repos.Appointments, repos.Messages, logger.Named("lead")); err != nil {
		return nil, err
	}
	rooms := callroom.UUIDProvisioner{}
	if a.RoomAccess, err = callroom.NewAccess(repos.Appointments, repos.Messages); err != nil {
		return nil, err
	}

	if a.Booking, err = booking.NewDefaultBookingEngine(repos.Profiles, repos.Appointments, a.Usage, rooms, a.Leads, logger.Named("booking")); err != nil {
		return nil, err
	}
	if mins := config.AppConfig.ReminderLeadMinutes; mins > 0 {
		a.Booking.ReminderLead = time.Duration(mins) * time.Minute
	}
	if infra.Queue != nil {
		a.Booking.Reminders = infra.Queue
	}

	if a.Messaging, err = messaging.NewDefaultMessagingService(repos.Messages, repos.Profiles, a.Usage, a.Leads, rooms, logger.Named("messaging")); err != nil {
		return nil, err
	}

	if infra.FCM != nil {
		if a.Notifications, err = notification.NewDefaultNotificationService(repos.Profiles, infra.FCM, logger.Named("notification")); err != nil {
			return nil, err
		}
		a.Booking.Notifier = a.Notifications
		a.Messaging.Pusher = a.Notifications
	}

	if infra.Blobs != nil {
		docs, err := storage.NewDefaultDocumentService(infra.Blobs, repos.Documents, repos.Messages, repos.Profiles, a.Usage, config.AppConfig.DocumentsFolder, logger.Named("storage"))
		if err != nil {
			return nil, err
		}
		a.Documents = docs
	}

	if infra.StripeKey != "" {
		payments, err := payment.NewStripePaymentService(repos.Appointments, repos.Profiles, infra.StripeKey, config.AppConfig.Currency, logger.Named("payment"))
		if err != nil {
			return nil, err
		}
		a.Payments = payments
	}
	return a, nil
}

// Handlers assembles the handler bundle.
func (a *App) Handlers() *handlers.HandlerBundle {
	profileHandler := handlers.NewProfileHandler(a.Repos.Profiles)
	availabilityHandler := handlers.NewAvailabilityHandler(a.Availability)
	appointmentHandler := handlers.NewAppointmentHandler(a.Booking, a.Payments)
	dashboardHandler := handlers.NewDashboardHandler(a.Usage, a.Leads)
	messageHandler := handlers.NewMessageHandler(a.Messaging)
	documentHandler := handlers.NewDocumentHandler(a.Documents)
	roomHandler := handlers.NewRoomHandler(a.RoomAccess, a.Channel, a.Presence)

	return &handlers.HandlerBundle{
		// Profile endpoints.
		GetProviderHandler:    profileHandler.GetProviderHandler,
		GetMyProfileHandler:   profileHandler.GetMyProfileHandler,
		UpdateProfileHandler:  profileHandler.UpdateProfileHandler,
		UpdateFCMTokenHandler: profileHandler.UpdateFCMTokenHandler,

		// Availability endpoints.
		ProviderSlotsHandler:      availabilityHandler.ProviderSlotsHandler,
		CreateAvailabilityHandler: availabilityHandler.CreateAvailabilityHandler,
		ListAvailabilityHandler:   availabilityHandler.ListAvailabilityHandler,
		DeleteAvailabilityHandler: availabilityHandler.DeleteAvailabilityHandler,

		// Appointment endpoints.
		BookAppointmentHandler:    appointmentHandler.BookAppointmentHandler,
		ListAppointmentsHandler:   appointmentHandler.ListAppointmentsHandler,
		GetAppointmentHandler:     appointmentHandler.GetAppointmentHandler,
		CancelAppointmentHandler:  appointmentHandler.CancelAppointmentHandler,
		ConfirmAppointmentHandler: appointmentHandler.ConfirmAppointmentHandler,
		PaymentIntentHandler:      appointmentHandler.PaymentIntentHandler,

		// Provider dashboard endpoints.
		UsageSummaryHandler: dashboardHandler.UsageSummaryHandler,
		ListLeadsHandler:    dashboardHandler.ListLeadsHandler,
		UpdateLeadHandler:   dashboardHandler.UpdateLeadHandler,

		// Messaging endpoints.
		SendMessageHandler:  messageHandler.SendMessageHandler,
		ConversationHandler: messageHandler.ConversationHandler,
		StartCallHandler:    messageHandler.StartCallHandler,

		// Document endpoints.
		UploadDocumentHandler: documentHandler.UploadDocumentHandler,
		ListDocumentsHandler:  documentHandler.ListDocumentsHandler,

		// Room endpoints.
		RelaySignalHandler:  roomHandler.RelaySignalHandler,
		RoomEventsHandler:   roomHandler.RoomEventsHandler,
		JoinRoomHandler:     roomHandler.JoinRoomHandler,
		LeaveRoomHandler:    roomHandler.LeaveRoomHandler,
		RoomPresenceHandler: roomHandler.RoomPresenceHandler,
	}
}

// NewRouter builds the Gin engine with the global middleware and every route.
func NewRouter(a *App, logger *zap.Logger) *gin.Engine {
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger.Named("http")))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	routes.RegisterRoutes(router, a.Handlers())
	return router
}
