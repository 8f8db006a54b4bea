package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glasshouse/server/config"
	"glasshouse/server/internal/database"
	"glasshouse/server/internal/importer"
	"glasshouse/server/internal/models"
	"glasshouse/server/internal/queue"
	"glasshouse/server/internal/report"
)

func f64(v float64) *float64 { return &v }

func setupRouter(t *testing.T) (*gin.Engine, *queue.RecordQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "glasshouse.db")
	db, err := database.NewDatabase(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	gdb, err := database.OpenGorm(path)
	require.NoError(t, err)

	sales := []models.Sale{
		{
			PropertyID:    "GH-A",
			City:          "Phoenix",
			State:         "AZ",
			PurchaseDate:  time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC),
			SaleDate:      time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC),
			PurchasePrice: f64(300000),
			SalePrice:     f64(340000),
		},
		{
			PropertyID:    "GH-B",
			City:          "Tampa",
			State:         "FL",
			PurchaseDate:  time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
			SaleDate:      time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
			PurchasePrice: f64(250000),
			SalePrice:     f64(245000),
		},
	}
	require.NoError(t, database.UpsertSales(gdb, "seed", sales))

	logger := logrus.New()
	svc, err := report.NewService(db, config.DefaultMetricsConfig(), nil, logger)
	require.NoError(t, err)

	q := queue.NewRecordQueue(10, logger)
	imp := importer.NewImporter(q, logger)

	router := gin.New()
	SetupRoutes(router, svc, imp, logger)
	return router, q
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetReport(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/report", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc models.ReportDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, 2, doc.Current.Performance.SaleCount)
	assert.Equal(t, 50.0, doc.Current.Performance.WinRate)
	assert.Equal(t, 100.0, doc.Current.V3.KazEra.WinRate)
}

func TestGetReportErrors(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/report/errors", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SkippedRecords int                  `json:"skipped_records"`
		Errors         []models.RecordError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Zero(t, body.SkippedRecords)
}

func TestGetSales_Filters(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/sales", "")
	require.Equal(t, http.StatusOK, w.Code)
	var sales []models.Sale
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sales))
	assert.Len(t, sales, 2)

	w = doRequest(router, http.MethodGet, "/api/sales?cohort=toxic", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, "GH-B", sales[0].PropertyID)

	w = doRequest(router, http.MethodGet, "/api/sales?era=kaz_era", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, "GH-A", sales[0].PropertyID)

	w = doRequest(router, http.MethodGet, "/api/sales?city=Phoenix", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sales))
	require.Len(t, sales, 1)
	assert.Equal(t, "GH-A", sales[0].PropertyID)
}

func TestGetMarkets(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodGet, "/api/markets", "")
	require.Equal(t, http.StatusOK, w.Code)

	var markets []models.MarketAggregate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &markets))
	require.Len(t, markets, 2)
	assert.Equal(t, "Phoenix, AZ", markets[0].Market)
	assert.Equal(t, models.ActionGrow, markets[0].Action)
	assert.Equal(t, models.ActionExit, markets[1].Action)
}

func TestImportCSV(t *testing.T) {
	router, q := setupRouter(t)

	csvPath := filepath.Join(t.TempDir(), "sales.csv")
	content := "Property ID,Purchase Date,Sale Date,Sale Price,Purchase Price\n" +
		"GH-C,2025-10-01,2025-10-20,310000,290000\n"
	require.NoError(t, os.WriteFile(csvPath, []byte(content), 0644))

	w := doRequest(router, http.MethodPost, "/api/import", `{"sales_path": "`+csvPath+`"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	var result importer.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.SaleCount)
	assert.Equal(t, 1, q.Len())
}

func TestImportCSV_BadRequest(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/import", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(router, http.MethodPost, "/api/import", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegenerate(t *testing.T) {
	router, _ := setupRouter(t)

	w := doRequest(router, http.MethodPost, "/api/regenerate", "")
	require.Equal(t, http.StatusOK, w.Code)

	var doc models.ReportDocument
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, 2, doc.Current.Performance.SaleCount)
}
