package handlers

import (
	"net/http"

	"expertmeet/services/storage"
	"expertmeet/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxDocumentBytes caps a single multipart upload.
const MaxDocumentBytes = 25 << 20

type DocumentHandler struct {
	Service storage.DocumentService
}

func NewDocumentHandler(svc storage.DocumentService) *DocumentHandler {
	return &DocumentHandler{Service: svc}
}

// UploadDocumentHandler accepts multipart form fields `file` and `providerId`.
// providerId is ignored for provider uploads.
func (h *DocumentHandler) UploadDocumentHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if h.Service == nil {
		utils.RespondError(c, utils.NewAppError(utils.KindConfiguration, "document storage is not configured"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "File not provided", err.Error())
		return
	}
	if fileHeader.Size > MaxDocumentBytes {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "File too large", "documents are limited to 25 MiB")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		getLogger(c).Error("failed to open uploaded file", zap.Error(err))
		utils.JSONError(c, http.StatusBadRequest, "Could not read uploaded file", "")
		return
	}
	defer file.Close()

	doc, err := h.Service.UploadDocument(c.Request.Context(), storage.UploadInput{
		OwnerID:    userID,
		ProviderID: c.PostForm("providerId"),
		Filename:   fileHeader.Filename,
		SizeBytes:  fileHeader.Size,
		Content:    file,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"document": doc})
}

func (h *DocumentHandler) ListDocumentsHandler(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	if h.Service == nil {
		utils.RespondError(c, utils.NewAppError(utils.KindConfiguration, "document storage is not configured"))
		return
	}
	docs, err := h.Service.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}
