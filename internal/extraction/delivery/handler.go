package delivery

import (
	"io"
	"net/http"

	"report-intake/internal/extraction/usecase"

	"github.com/gin-gonic/gin"
)

// maxUploadSize bounds an uploaded report
const maxUploadSize = 32 << 20

// ExtractionHandler exposes the name extractor over HTTP
type ExtractionHandler struct {
	extractor usecase.NameExtractor
}

// NewExtractionHandler creates a new ExtractionHandler
func NewExtractionHandler(extractor usecase.NameExtractor) *ExtractionHandler {
	return &ExtractionHandler{extractor: extractor}
}

// POST /extract-name/
// ExtractName reads the multipart "file" field and returns the patient name
// with the stage that produced it.
func (h *ExtractionHandler) ExtractName(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.extractor.Extract(content, header.Filename))
}
