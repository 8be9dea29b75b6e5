package handlers_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"task-collab/backend/internal/handlers"
	"task-collab/backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MockAuthService struct {
	refreshFails bool
	revokeFails  bool
	revokedToken string
}

func (m *MockAuthService) LoginUser(db *gorm.DB, username, password string) (*models.User, error) {
	return nil, errors.New("not used")
}

func (m *MockAuthService) GenerateToken(db *gorm.DB, user *models.User) (string, string, error) {
	return "access", "refresh", nil
}

func (m *MockAuthService) RefreshToken(db *gorm.DB, refreshToken string) (string, string, int64, error) {
	if m.refreshFails {
		return "", "", 0, errors.New("token not found")
	}
	return "new-access", "new-refresh", 3600, nil
}

func (m *MockAuthService) RevokeToken(db *gorm.DB, refreshToken string) error {
	m.revokedToken = refreshToken
	if m.revokeFails {
		return errors.New("token not found")
	}
	return nil
}

func setupRefreshRouter(mock *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := handlers.NewRefreshHandler(nil, mock)
	router.POST("/token/refresh", handler.Refresh)
	return router
}

func setupLogoutRouter(mock *MockAuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := handlers.NewLogoutHandler(nil, mock)
	router.POST("/logout", handler.Logout)
	return router
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRefresh_RotatesTokenPair(t *testing.T) {
	router := setupRefreshRouter(&MockAuthService{})

	w := postJSON(router, "/token/refresh", gin.H{"refresh_token": "old-refresh"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp["access_token"] != "new-access" || resp["refresh_token"] != "new-refresh" {
		t.Errorf("Expected rotated token pair, got %v", resp)
	}
	if resp["token_type"] != "Bearer" {
		t.Errorf("Expected Bearer token type, got %v", resp["token_type"])
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	router := setupRefreshRouter(&MockAuthService{refreshFails: true})

	w := postJSON(router, "/token/refresh", gin.H{"refresh_token": "stale"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	router := setupRefreshRouter(&MockAuthService{})

	w := postJSON(router, "/token/refresh", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	mock := &MockAuthService{}
	router := setupLogoutRouter(mock)

	w := postJSON(router, "/logout", gin.H{"refresh_token": "live-token"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if mock.revokedToken != "live-token" {
		t.Errorf("Expected live-token to be revoked, got %q", mock.revokedToken)
	}
}

func TestLogout_UnknownTokenStillSucceeds(t *testing.T) {
	router := setupLogoutRouter(&MockAuthService{revokeFails: true})

	w := postJSON(router, "/logout", gin.H{"refresh_token": "never-issued"})
	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d for unknown token, got %d", http.StatusOK, w.Code)
	}
}

func TestLogout_MissingToken(t *testing.T) {
	router := setupLogoutRouter(&MockAuthService{})

	w := postJSON(router, "/logout", gin.H{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}
