package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atelierhq/planner-api/internal/models"
	"github.com/atelierhq/planner-api/internal/service"
	"github.com/atelierhq/planner-api/pkg/response"
)

type settingStoreMock struct {
	byKey map[string]*models.Setting
}

func (m *settingStoreMock) FindByKey(ctx context.Context, key string) (*models.Setting, error) {
	if s, ok := m.byKey[key]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *settingStoreMock) List(ctx context.Context) ([]models.Setting, error) {
	out := make([]models.Setting, 0, len(m.byKey))
	for _, s := range m.byKey {
		out = append(out, *s)
	}
	return out, nil
}

func (m *settingStoreMock) Upsert(ctx context.Context, s *models.Setting) error {
	if m.byKey == nil {
		m.byKey = map[string]*models.Setting{}
	}
	m.byKey[s.Key] = s
	return nil
}

func newSettingsHandlerUnderTest(store *settingStoreMock) *SettingsHandler {
	return NewSettingsHandler(service.NewSettingService(store, zap.NewNop()))
}

func TestSettingsHandlerRulesAppliesDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSettingsHandlerUnderTest(&settingStoreMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/settings/rules", nil)
	c.Request = req

	handler.Rules(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.PlanningRules `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	defaults := models.DefaultPlanningRules()
	assert.Equal(t, defaults.LeadTimeIdealWeeks, envelope.Data.LeadTimeIdealWeeks)
	assert.Equal(t, defaults.LeadTimeMinimumWeeks, envelope.Data.LeadTimeMinimumWeeks)
}

func TestSettingsHandlerUpsertRoundTrips(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &settingStoreMock{}
	handler := newSettingsHandlerUnderTest(store)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := []byte(`{"key":"publication_lead_time_ideal_weeks","value":10,"category":"planning","label":"Ideal lead time"}`)
	req, _ := http.NewRequest(http.MethodPut, "/settings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Upsert(c)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, store.byKey, models.SettingLeadTimeIdealWeeks)
	assert.JSONEq(t, `10`, string(store.byKey[models.SettingLeadTimeIdealWeeks].Value))
}

func TestSettingsHandlerUpsertRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSettingsHandlerUnderTest(&settingStoreMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/settings", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Upsert(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
}
