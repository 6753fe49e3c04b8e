package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqdev/uauth/internal/domain"
)

func gatedRequest(t *testing.T, f *routerFixture, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminEndpoint_AdminAllowed(t *testing.T) {
	f := newRouterFixture()
	admin := sampleStoredUser(domain.RoleAdmin)
	token := f.grantAccess(t, admin)

	rec := gatedRequest(t, f, http.MethodGet, "/api/v1/admin/", token)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "admin", data["resource"])
	assert.Equal(t, "read", data["action"])
	assert.Equal(t, admin.Email, data["actor"])
}

func TestAdminEndpoint_AllMethods(t *testing.T) {
	f := newRouterFixture()
	admin := sampleStoredUser(domain.RoleAdmin)
	token := f.grantAccess(t, admin)

	tests := []struct {
		method string
		action string
	}{
		{http.MethodGet, "read"},
		{http.MethodPost, "create"},
		{http.MethodPut, "update"},
		{http.MethodDelete, "delete"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := gatedRequest(t, f, tt.method, "/api/v1/admin/", token)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			data := body["data"].(map[string]any)
			assert.Equal(t, tt.action, data["action"])
		})
	}
}

func TestAdminEndpoint_ManagerForbidden(t *testing.T) {
	f := newRouterFixture()
	manager := sampleStoredUser(domain.RoleManager)
	token := f.grantAccess(t, manager)

	rec := gatedRequest(t, f, http.MethodGet, "/api/v1/admin/", token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestAdminEndpoint_PlainUserForbidden(t *testing.T) {
	f := newRouterFixture()
	user := sampleStoredUser(domain.RoleUser)
	token := f.grantAccess(t, user)

	rec := gatedRequest(t, f, http.MethodGet, "/api/v1/admin/", token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminEndpoint_Unauthenticated(t *testing.T) {
	f := newRouterFixture()

	rec := gatedRequest(t, f, http.MethodGet, "/api/v1/admin/", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManagementEndpoint_ManagerAllowed(t *testing.T) {
	f := newRouterFixture()
	manager := sampleStoredUser(domain.RoleManager)
	token := f.grantAccess(t, manager)

	tests := []struct {
		method string
		action string
	}{
		{http.MethodGet, "read"},
		{http.MethodPost, "create"},
		{http.MethodPut, "update"},
		{http.MethodDelete, "delete"},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := gatedRequest(t, f, tt.method, "/api/v1/management/", token)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := decodeBody(t, rec)
			data := body["data"].(map[string]any)
			assert.Equal(t, "management", data["resource"])
			assert.Equal(t, tt.action, data["action"])
		})
	}
}

func TestManagementEndpoint_AdminAllowed(t *testing.T) {
	f := newRouterFixture()
	admin := sampleStoredUser(domain.RoleAdmin)
	token := f.grantAccess(t, admin)

	rec := gatedRequest(t, f, http.MethodDelete, "/api/v1/management/", token)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestManagementEndpoint_PlainUserForbidden(t *testing.T) {
	f := newRouterFixture()
	user := sampleStoredUser(domain.RoleUser)
	token := f.grantAccess(t, user)

	rec := gatedRequest(t, f, http.MethodGet, "/api/v1/management/", token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestManagementEndpoint_Unauthenticated(t *testing.T) {
	f := newRouterFixture()

	rec := gatedRequest(t, f, http.MethodGet, "/api/v1/management/", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
