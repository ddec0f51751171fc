package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Profile endpoints
	GetProviderHandler    gin.HandlerFunc
	GetMyProfileHandler   gin.HandlerFunc
	UpdateProfileHandler  gin.HandlerFunc
	UpdateFCMTokenHandler gin.HandlerFunc

	// Availability endpoints
	ProviderSlotsHandler      gin.HandlerFunc
	CreateAvailabilityHandler gin.HandlerFunc
	ListAvailabilityHandler   gin.HandlerFunc
	DeleteAvailabilityHandler gin.HandlerFunc

	// Appointment endpoints
	BookAppointmentHandler    gin.HandlerFunc
	ListAppointmentsHandler   gin.HandlerFunc
	GetAppointmentHandler     gin.HandlerFunc
	CancelAppointmentHandler  gin.HandlerFunc
	ConfirmAppointmentHandler gin.HandlerFunc
	PaymentIntentHandler      gin.HandlerFunc

	// Provider dashboard endpoints
	UsageSummaryHandler gin.HandlerFunc
	ListLeadsHandler    gin.HandlerFunc
	UpdateLeadHandler   gin.HandlerFunc

	// Messaging endpoints
	SendMessageHandler  gin.HandlerFunc
	ConversationHandler gin.HandlerFunc
	StartCallHandler    gin.HandlerFunc

	// Document endpoints
	UploadDocumentHandler gin.HandlerFunc
	ListDocumentsHandler  gin.HandlerFunc

	// Room endpoints
	RelaySignalHandler  gin.HandlerFunc
	RoomEventsHandler   gin.HandlerFunc
	JoinRoomHandler     gin.HandlerFunc
	LeaveRoomHandler    gin.HandlerFunc
	RoomPresenceHandler gin.HandlerFunc
}
