package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seogen/internal/dto"
	"seogen/internal/middleware"
	"seogen/internal/models"
	"seogen/internal/repository"
	"seogen/internal/service"
	"seogen/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type historyTestEnv struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtManager *utils.JWTManager
}

func newHistoryTestEnv(t *testing.T) *historyTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Generation{}))

	generationRepo := repository.NewGenerationRepository(db)
	quotaService := service.NewQuotaService(generationRepo)
	h := NewHistoryHandler(generationRepo, quotaService)

	jwtManager := utils.NewJWTManager("test-secret", "HS256", time.Hour)

	r := gin.New()
	authorized := r.Group("/api")
	authorized.Use(middleware.AuthMiddleware(jwtManager))
	{
		authorized.GET("/generations", h.ListGenerations)
		authorized.POST("/generations", h.CreateGeneration)
		authorized.DELETE("/generations/:id", h.DeleteGeneration)
		authorized.GET("/credits", h.GetCredits)
	}

	return &historyTestEnv{router: r, db: db, jwtManager: jwtManager}
}

func (e *historyTestEnv) request(t *testing.T, method, path, body string, userID uint) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	token, err := e.jwtManager.GenerateToken(userID, "tester", false)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *historyTestEnv) seed(t *testing.T, userID uint, topic string, createdAt time.Time) *models.Generation {
	t.Helper()
	g := &models.Generation{
		UserID:    userID,
		Topic:     topic,
		Keyword:   "keyword",
		Output:    "output",
		CreatedAt: createdAt,
	}
	require.NoError(t, e.db.Create(g).Error)
	return g
}

// decodeData 解析统一响应中的data字段
func decodeData(t *testing.T, body []byte, out interface{}) {
	t.Helper()

	var resp struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

func TestListGenerationsNewestFirst(t *testing.T) {
	env := newHistoryTestEnv(t)

	base := time.Now().Add(-time.Hour)
	env.seed(t, 1, "最早的记录", base)
	env.seed(t, 1, "最新的记录", base.Add(10*time.Minute))
	env.seed(t, 2, "别人的记录", base.Add(20*time.Minute))

	w := env.request(t, http.MethodGet, "/api/generations", "", 1)
	require.Equal(t, http.StatusOK, w.Code)

	var data dto.GenerationListResponse
	decodeData(t, w.Body.Bytes(), &data)

	require.Equal(t, int64(2), data.Total)
	assert.Equal(t, "最新的记录", data.Generations[0].Topic)
	assert.Equal(t, "最早的记录", data.Generations[1].Topic)
}

func TestListGenerationsEmpty(t *testing.T) {
	env := newHistoryTestEnv(t)

	w := env.request(t, http.MethodGet, "/api/generations", "", 1)
	require.Equal(t, http.StatusOK, w.Code)

	var data dto.GenerationListResponse
	decodeData(t, w.Body.Bytes(), &data)
	assert.Equal(t, int64(0), data.Total)
	assert.Empty(t, data.Generations)
}

func TestCreateGeneration(t *testing.T) {
	env := newHistoryTestEnv(t)

	body := `{"topic":"宠物健康","keyword":"狗粮","output":"## 一、引言\n..."}`
	w := env.request(t, http.MethodPost, "/api/generations", body, 1)
	require.Equal(t, http.StatusOK, w.Code)

	var data dto.GenerationResponse
	decodeData(t, w.Body.Bytes(), &data)
	assert.NotZero(t, data.ID)
	assert.Equal(t, "宠物健康", data.Topic)

	var count int64
	require.NoError(t, env.db.Model(&models.Generation{}).Where("user_id = ?", 1).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateGenerationMissingOutput(t *testing.T) {
	env := newHistoryTestEnv(t)

	w := env.request(t, http.MethodPost, "/api/generations", `{"topic":"t","keyword":"k"}`, 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteGeneration(t *testing.T) {
	env := newHistoryTestEnv(t)
	g := env.seed(t, 1, "待删除", time.Now())

	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/generations/%d", g.ID), "", 1)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Generation{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteGenerationNotOwned(t *testing.T) {
	env := newHistoryTestEnv(t)
	g := env.seed(t, 2, "别人的记录", time.Now())

	// 删除他人记录应返回404,且记录保留
	w := env.request(t, http.MethodDelete, fmt.Sprintf("/api/generations/%d", g.ID), "", 1)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var count int64
	require.NoError(t, env.db.Model(&models.Generation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestDeleteGenerationInvalidID(t *testing.T) {
	env := newHistoryTestEnv(t)

	w := env.request(t, http.MethodDelete, "/api/generations/abc", "", 1)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCredits(t *testing.T) {
	env := newHistoryTestEnv(t)

	for i := 0; i < 4; i++ {
		env.seed(t, 1, "记录", time.Now())
	}

	w := env.request(t, http.MethodGet, "/api/credits", "", 1)
	require.Equal(t, http.StatusOK, w.Code)

	var data dto.CreditsResponse
	decodeData(t, w.Body.Bytes(), &data)
	assert.Equal(t, int64(4), data.Used)
	assert.Equal(t, 6, data.Remaining)
	assert.Equal(t, service.CreditCeiling, data.Ceiling)
}

func TestHistoryRequiresAuth(t *testing.T) {
	env := newHistoryTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/generations", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
