package handlers

import (
	"net/http"

	"expertmeet/middleware"
	"expertmeet/models"
	"expertmeet/services/booking"
	"expertmeet/services/payment"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AppointmentHandler struct {
	Engine   booking.BookingEngine
	Payments payment.PaymentService
}

func NewAppointmentHandler(engine booking.BookingEngine, payments payment.PaymentService) *AppointmentHandler {
	return &AppointmentHandler{Engine: engine, Payments: payments}
}

func (h *AppointmentHandler) BookAppointmentHandler(c *gin.Context) {
	clientID, ok := callerID(c)
	if !ok {
		return
	}
	var req models.BookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	appt, err := h.Engine.BookAppointment(c.Request.Context(), clientID, req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("appointment booked",
		zap.String("appointmentId", appt.ID),
		zap.String("providerId", appt.ProviderID),
		zap.String("method", string(appt.Method)))
	c.JSON(http.StatusCreated, gin.H{"appointment": appt})
}

func (h *AppointmentHandler) ListAppointmentsHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	appts, err := h.Engine.ListAppointments(c.Request.Context(), userID, models.Role(middleware.Role(c)))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts})
}

func (h *AppointmentHandler) GetAppointmentHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	appt, err := h.Engine.GetAppointment(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

// CancelAppointmentHandler cancels any appointment by id; either party may cancel.
func (h *AppointmentHandler) CancelAppointmentHandler(c *gin.Context) {
	if _, ok := callerID(c); !ok {
		return
	}
	appt, err := h.Engine.CancelAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func (h *AppointmentHandler) ConfirmAppointmentHandler(c *gin.Context) {
	providerID, ok := callerID(c)
	if !ok {
		return
	}
	appt, err := h.Engine.ConfirmAppointment(c.Request.Context(), providerID, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointment": appt})
}

func (h *AppointmentHandler) PaymentIntentHandler(c *gin.Context) {
	clientID, ok := callerID(c)
	if !ok {
		return
	}
	if h.Payments == nil {
		utils.RespondError(c, utils.NewAppError(utils.KindConfiguration, "payments are not configured"))
		return
	}
	intent, err := h.Payments.CreatePaymentIntent(c.Request.Context(), clientID, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}
