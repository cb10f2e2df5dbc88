package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewired-gh/symptomscope/internal/ingest"
	"github.com/rewired-gh/symptomscope/internal/models"
	"github.com/rewired-gh/symptomscope/internal/render"
	"github.com/rewired-gh/symptomscope/internal/series"
	"github.com/rewired-gh/symptomscope/internal/storage"
)

const batchCSV = `date,weekday,time of day,category,rating/amount,detail,notes
"5th Jan 2022","Wednesday","am","Symptom","1","Headache (Mild)",""
"5th Jan 2022","Wednesday","pre","Symptom","1","Headache (Mild)",""
"6th Jan 2022","Thursday","pm","Symptom","3","Headache (Severe)",""
"6th Jan 2022","Thursday","mid","Symptom","2","Nausea (Moderate)",""
"6th Jan 2022","Thursday","am","Mood","4","Calm",""
`

func newTestServer(t *testing.T) (*Server, *storage.Holder) {
	t.Helper()
	holder := storage.NewHolder()
	projector := series.New(series.Window{
		Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	return NewServer(holder, projector, ingest.NewDecoder(""), render.Options{Width: 400, Height: 300}, 1), holder
}

func loadedServer(t *testing.T) (*Server, *storage.Holder) {
	t.Helper()
	s, holder := newTestServer(t)
	records, err := ingest.NewDecoder("").Decode(strings.NewReader(batchCSV))
	require.NoError(t, err)
	_, err = holder.Rebuild(records)
	require.NoError(t, err)
	return s, holder
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestNoBatchLoaded(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{
		"/api/v1/categories",
		"/api/v1/categories/Headache/range",
		"/api/v1/categories/Headache/records",
		"/api/v1/series",
		"/api/v1/series/chart.svg",
	} {
		rec := do(t, s, http.MethodGet, target, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
	}
}

func TestListCategories(t *testing.T) {
	s, holder := loadedServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp categoriesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, holder.Current().ID(), resp.BatchID)
	assert.Equal(t, []string{"Headache", "Nausea"}, resp.Categories)
}

func TestCategoryRange(t *testing.T) {
	s, _ := loadedServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/categories/Headache/range", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Category string    `json:"category"`
		Earliest time.Time `json:"earliest"`
		Latest   time.Time `json:"latest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Headache", resp.Category)
	assert.True(t, resp.Earliest.Equal(time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, resp.Latest.Equal(time.Date(2022, 1, 6, 18, 0, 0, 0, time.UTC)))

	rec = do(t, s, http.MethodGet, "/api/v1/categories/Dizziness/range", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategoryRecords(t *testing.T) {
	s, _ := loadedServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/categories/Headache/records", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []models.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 3)
	assert.Equal(t, models.DayPartPre, records[0].DayPart)
	assert.Equal(t, models.DayPartAM, records[1].DayPart)
	assert.Equal(t, models.DayPartPM, records[2].DayPart)

	rec = do(t, s, http.MethodGet, "/api/v1/categories/Dizziness/records", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSeries(t *testing.T) {
	s, _ := loadedServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/series?category=Headache&start=2022-01-05&end=2022-01-05", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp series.Series
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Headache", resp.Category)
	require.Len(t, resp.Points, 2)
	assert.True(t, resp.Points[0].X.Equal(time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC)))
	assert.True(t, resp.Points[1].X.Equal(time.Date(2022, 1, 5, 6, 0, 0, 0, time.UTC)))
}

func TestGetSeries_Defaults(t *testing.T) {
	s, _ := loadedServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/series", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp series.Series
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Headache", resp.Category)
	assert.Len(t, resp.Points, 3)
}

func TestGetSeries_Errors(t *testing.T) {
	s, _ := loadedServer(t)
	tests := []struct {
		name   string
		target string
		status int
	}{
		{"bad start", "/api/v1/series?start=5th-Jan", http.StatusBadRequest},
		{"bad end", "/api/v1/series?end=2022-13-01", http.StatusBadRequest},
		{"reversed window", "/api/v1/series?start=2022-01-06&end=2022-01-05", http.StatusBadRequest},
		{"unknown category", "/api/v1/series?category=Dizziness", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestGetSeries_EmptyWindow(t *testing.T) {
	s, _ := loadedServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/series?category=Nausea&start=2022-02-01&end=2022-02-07", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"points":[]`)
}

func TestGetChart(t *testing.T) {
	s, _ := loadedServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/series/chart.svg?category=Headache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<svg")

	rec = do(t, s, http.MethodGet, "/api/v1/series/chart.svg?category=Nausea&start=2022-02-01&end=2022-02-07", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostBatch(t *testing.T) {
	s, holder := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/v1/batches", batchCSV)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, holder.Current().ID(), resp.BatchID)
	assert.Equal(t, 4, resp.Records)
	assert.Equal(t, 2, resp.Categories)
	assert.Equal(t, 0, resp.Collisions)
}

func TestPostBatch_RejectedKeepsPrevious(t *testing.T) {
	s, holder := loadedServer(t)
	before := holder.Current().ID()

	bad := `date,weekday,time of day,category,rating/amount,detail,notes
"5th Jan 2022","Wednesday","dusk","Symptom","1","Headache (Mild)",""
`
	rec := do(t, s, http.MethodPost, "/api/v1/batches", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, before, holder.Current().ID())

	rec = do(t, s, http.MethodPost, "/api/v1/batches", "date,category\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, before, holder.Current().ID())
}

func TestPostBatch_TooLarge(t *testing.T) {
	s, holder := newTestServer(t)
	var sb strings.Builder
	sb.WriteString("date,weekday,time of day,category,rating/amount,detail,notes\n")
	row := `"5th Jan 2022","Wednesday","am","Mood","4","Calm","` + strings.Repeat("x", 1000) + "\"\n"
	for sb.Len() <= 1<<20 {
		sb.WriteString(row)
	}

	rec := do(t, s, http.MethodPost, "/api/v1/batches", sb.String())
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Nil(t, holder.Current())
}
