package api

import (
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"glasshouse/server/internal/importer"
	"glasshouse/server/internal/models"
	"glasshouse/server/internal/report"
)

type Handler struct {
	reports  *report.Service
	importer *importer.Importer
	logger   *logrus.Logger
}

type ImportRequest struct {
	SalesPath    string `json:"sales_path"`
	ListingsPath string `json:"listings_path"`
}

func NewHandler(reports *report.Service, imp *importer.Importer, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	return &Handler{
		reports:  reports,
		importer: imp,
		logger:   logger,
	}
}

// GetReport returns the latest assembled report document.
func (h *Handler) GetReport(c *gin.Context) {
	doc, err := h.reports.Latest()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get report"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

// GetReportErrors returns the per-record validation errors from the
// last report run.
func (h *Handler) GetReportErrors(c *gin.Context) {
	doc, err := h.reports.Latest()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"skipped_records": doc.Warnings.SkippedRecords,
		"errors":          doc.Warnings.Errors,
	})
}

// GetSales returns classified sales, filterable by city, cohort and
// era.
func (h *Handler) GetSales(c *gin.Context) {
	sales, _, _, err := h.reports.ClassifiedRecords(c.Query("city"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get sales")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get sales"})
		return
	}

	cohort := c.Query("cohort")
	era := c.Query("era")

	filtered := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		if cohort != "" && string(s.Cohort) != cohort {
			continue
		}
		if era != "" && !matchesEra(era, s.IsKazEra) {
			continue
		}
		filtered = append(filtered, s)
	}
	c.JSON(http.StatusOK, filtered)
}

// GetListings returns classified listings, filterable by city, cohort
// and underwater status.
func (h *Handler) GetListings(c *gin.Context) {
	_, listings, _, err := h.reports.ClassifiedRecords(c.Query("city"))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get listings"})
		return
	}

	cohort := c.Query("cohort")
	underwater := c.Query("underwater")

	filtered := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if cohort != "" && string(l.Cohort) != cohort {
			continue
		}
		if underwater != "" {
			want, err := strconv.ParseBool(underwater)
			if err == nil && l.IsUnderwater != want {
				continue
			}
		}
		filtered = append(filtered, l)
	}
	c.JSON(http.StatusOK, filtered)
}

// GetMarkets returns the market matrix with recommended actions.
func (h *Handler) GetMarkets(c *gin.Context) {
	doc, err := h.reports.Latest()
	if err != nil {
		h.logger.WithError(err).Error("Failed to get markets")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get markets"})
		return
	}
	c.JSON(http.StatusOK, doc.Current.Markets)
}

// ImportCSV enqueues a CSV import batch.
func (h *Handler) ImportCSV(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.SalesPath == "" && req.ListingsPath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sales_path or listings_path is required"})
		return
	}

	result, err := h.importer.ImportFiles(req.SalesPath, req.ListingsPath)
	if err != nil {
		h.logger.WithError(err).Error("Failed to import CSV")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, result)
}

// Regenerate recomputes the report and persists a new snapshot.
func (h *Handler) Regenerate(c *gin.Context) {
	doc, err := h.reports.Regenerate()
	if err != nil {
		h.logger.WithError(err).Error("Failed to regenerate report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to regenerate report"})
		return
	}
	c.JSON(http.StatusOK, doc)
}

func matchesEra(era string, isKazEra bool) bool {
	switch era {
	case "kaz_era":
		return isKazEra
	case "legacy":
		return !isKazEra
	default:
		return true
	}
}
