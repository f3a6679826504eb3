package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/logger"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/service"
	"github.com/romarvz/PPIV-Consultora-de-Idiomas-sub001/internal/types"
)

type SequenceHandler struct {
	numbering service.NumberingService
	log       *logger.Logger
}

func NewSequenceHandler(numbering service.NumberingService, log *logger.Logger) *SequenceHandler {
	return &SequenceHandler{
		numbering: numbering,
		log:       log,
	}
}

// @Summary Get a counter's current value
// @Description Read the counter without consuming a number. 0 means the
// category has never issued.
// @Tags Sequences
// @Accept json
// @Produce json
// @Param category path string true "Document category"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /sequences/{category} [get]
func (h *SequenceHandler) GetCurrentValue(c *gin.Context) {
	category := types.DocumentCategory(c.Param("category"))

	value, err := h.numbering.CurrentValue(c.Request.Context(), category)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"category":   category,
		"last_value": value,
	})
}

// @Summary Reset a counter
// @Description Set a counter back to zero. Previously issued documents keep
// their numbers.
// @Tags Sequences
// @Accept json
// @Produce json
// @Param category path string true "Document category"
// @Success 204
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /sequences/{category}/reset [post]
func (h *SequenceHandler) ResetCounter(c *gin.Context) {
	category := types.DocumentCategory(c.Param("category"))

	if err := h.numbering.ResetCounter(c.Request.Context(), category); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}
