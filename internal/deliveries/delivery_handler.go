package deliveries

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edy93762/gesto-de-epi-sub000/internal/documents"
)

type DeliveryHandler struct {
	Service *DeliveryService
}

func NewDeliveryHandler(s *DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{Service: s}
}

func (h *DeliveryHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/deliveries", h.GetDeliveries)
	router.GET("/deliveries/last", h.GetLastDelivery)
	router.GET("/deliveries/:id", h.GetDelivery)
	router.GET("/deliveries/:id/slip", h.GetSlip)
	router.DELETE("/deliveries/:id", h.DeleteDelivery)
	router.GET("/collaborators/:id/history", h.GetCollaboratorHistory)
}

func (h *DeliveryHandler) GetDeliveries(c *gin.Context) {
	var query DeliveryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "details": err.Error()})
		return
	}

	records, err := h.Service.List(c.Request.Context(), query.Employee)
	if err != nil {
		abort(c, "Failed to fetch deliveries", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *DeliveryHandler) GetLastDelivery(c *gin.Context) {
	var query LastDeliveryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid query", "details": err.Error()})
		return
	}

	last, err := h.Service.LastDelivery(c.Request.Context(), query.Employee)
	if err != nil {
		abort(c, "Failed to fetch last delivery", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": query.Employee, "lastDelivery": last})
}

func (h *DeliveryHandler) GetDelivery(c *gin.Context) {
	rec, err := h.Service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, "Failed to fetch delivery", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *DeliveryHandler) GetSlip(c *gin.Context) {
	doc, err := h.Service.Slip(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, "Failed to render delivery slip", err)
		return
	}
	sendPDF(c, doc)
}

func (h *DeliveryHandler) GetCollaboratorHistory(c *gin.Context) {
	doc, err := h.Service.CollaboratorHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, "Failed to render history", err)
		return
	}
	sendPDF(c, doc)
}

func (h *DeliveryHandler) DeleteDelivery(c *gin.Context) {
	if err := h.Service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, "Failed to delete delivery", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery deleted successfully"})
}

func sendPDF(c *gin.Context, doc *documents.Document) {
	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
