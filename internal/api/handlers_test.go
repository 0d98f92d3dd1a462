package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"godoor/adapters/memory"
	"godoor/app"
	"godoor/domain/core"
	"godoor/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter() *gin.Engine {
	svc := app.NewAnalysisService(memory.NewAnalysisRepository(), nil, nil)
	return NewRouter(NewAnalysisHandler(svc, nil, 0, nil), nil, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func analysisBody() map[string]interface{} {
	return map[string]interface{}{
		"hierarchy":     []string{"Best", "Mid", "Worst"},
		"treatment_arm": "Drug",
		"control_arm":   "Placebo",
		"records": []map[string]string{
			{"patient_id": "T1", "arm": "Drug", "outcome": "Best"},
			{"patient_id": "T2", "arm": "Drug", "outcome": "Best"},
			{"arm": "Drug", "outcome": "Mid"},
			{"patient_id": "C1", "arm": "Placebo", "outcome": "Mid"},
			{"patient_id": "C2", "arm": "Placebo", "outcome": "Worst"},
			{"patient_id": "C3", "arm": "Placebo", "outcome": "Worst"},
		},
	}
}

func TestCreateAndFetchAnalysis(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/api/v1/analyses", analysisBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode(t, w)
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "/api/v1/analyses/"+id, w.Header().Get("Location"))

	result := created["result"].(map[string]interface{})
	assert.Equal(t, float64(9), result["n_pairs"])
	assert.Equal(t, float64(8), result["treatment_wins"])
	assert.Equal(t, "Infinity", result["win_ratio"])

	w = do(t, router, http.MethodGet, "/api/v1/analyses/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id, decode(t, w)["id"])

	w = do(t, router, http.MethodGet, "/api/v1/analyses?limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])
}

func TestCreateAnalysis_Errors(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		status int
		code   string
	}{
		{"unknown outcome", func(b map[string]interface{}) {
			b["records"] = []map[string]string{
				{"arm": "Drug", "outcome": "Best"},
				{"arm": "Placebo", "outcome": "Zombie"},
				{"arm": "Placebo", "outcome": "Ghost"},
			}
		}, http.StatusUnprocessableEntity, errors.CodeUnknownOutcome},
		{"duplicate outcome", func(b map[string]interface{}) {
			b["hierarchy"] = []string{"Best", "Best"}
		}, http.StatusBadRequest, errors.CodeConfiguration},
		{"same arm", func(b map[string]interface{}) {
			b["control_arm"] = "Drug"
		}, http.StatusBadRequest, errors.CodeInvalidInput},
		{"empty control arm", func(b map[string]interface{}) {
			b["control_arm"] = "Nobody"
		}, http.StatusUnprocessableEntity, errors.CodeInsufficientSample},
		{"missing field", func(b map[string]interface{}) {
			delete(b, "treatment_arm")
		}, http.StatusBadRequest, errors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := analysisBody()
			tt.mutate(body)
			w := do(t, router, http.MethodPost, "/api/v1/analyses", body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.code, decode(t, w)["code"])
		})
	}
}

func TestCreateAnalysis_UnknownLabelsListed(t *testing.T) {
	body := analysisBody()
	body["records"] = []map[string]string{
		{"arm": "Drug", "outcome": "Zombie"},
		{"arm": "Placebo", "outcome": "Ghost"},
		{"arm": "Placebo", "outcome": "Zombie"},
	}
	w := do(t, newTestRouter(), http.MethodPost, "/api/v1/analyses", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []interface{}{"Ghost", "Zombie"}, decode(t, w)["labels"])
}

func TestGetAnalysis_NotFoundAndBadID(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodGet, "/api/v1/analyses/"+core.NewAnalysisID().String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.CodeNotFound, decode(t, w)["code"])

	w = do(t, router, http.MethodGet, "/api/v1/analyses/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteAnalysis(t *testing.T) {
	router := newTestRouter()
	w := do(t, router, http.MethodPost, "/api/v1/analyses", analysisBody())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = do(t, router, http.MethodDelete, "/api/v1/analyses/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodDelete, "/api/v1/analyses/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetReport_Formats(t *testing.T) {
	router := newTestRouter()
	w := do(t, router, http.MethodPost, "/api/v1/analyses", analysisBody())
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	tests := []struct {
		format      string
		contentType string
		contains    string
	}{
		{"text", "text/plain", "DOOR ANALYSIS RESULTS"},
		{"markdown", "text/markdown", "## Outcome distribution"},
		{"html", "text/html", "<table>"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := do(t, router, http.MethodGet, "/api/v1/analyses/"+id+"/report?format="+tt.format, nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), tt.contentType))
			assert.Contains(t, w.Body.String(), tt.contains)
		})
	}

	w = do(t, router, http.MethodGet, "/api/v1/analyses/"+id+"/report?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompare(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/api/v1/compare", map[string]interface{}{
		"treatment": []int{1, 2, 5},
		"control":   []int{3, 4},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, float64(2), out["win_ratio"])
	assert.Equal(t, "exact", out["test_method"])

	w = do(t, router, http.MethodPost, "/api/v1/compare", map[string]interface{}{
		"treatment": []int{},
		"control":   []int{1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, router, http.MethodPost, "/api/v1/compare", map[string]interface{}{
		"treatment": []int{0},
		"control":   []int{1},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestValidateHierarchy(t *testing.T) {
	router := newTestRouter()

	w := do(t, router, http.MethodPost, "/api/v1/hierarchies/validate", map[string]interface{}{
		"outcomes": []string{"Alive", "Dead"},
		"labels":   []string{"Alive", "Alive", "Dead"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, true, out["valid"])
	assert.Equal(t, map[string]interface{}{"Alive": float64(1), "Dead": float64(2)}, out["ranks"])

	w = do(t, router, http.MethodPost, "/api/v1/hierarchies/validate", map[string]interface{}{
		"outcomes": []string{"Alive", "Dead"},
		"labels":   []string{"Alive", "Missing"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, []interface{}{"Missing"}, decode(t, w)["labels"])
}

func TestListAnalyses_BadLimit(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/api/v1/analyses?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	w := do(t, newTestRouter(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
