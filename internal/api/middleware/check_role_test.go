package middleware

import (
	"net/http/httptest"
	"testing"

	"Homeroom/internal/pkg/consts"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCheckRoles(role string, required ...string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/attachments/upload", nil)
	if role != "" {
		c.Set("role", role)
	}
	CheckRoles(required...)(c)
	return c, w
}

func TestCheckRolesAllowsListedRole(t *testing.T) {
	for _, role := range []string{consts.RoleTeacher, consts.RoleAdmin} {
		c, _ := runCheckRoles(role, consts.RoleTeacher, consts.RoleAdmin)
		assert.False(t, c.IsAborted(), "角色 %s 应放行", role)
	}
}

func TestCheckRolesRejectsOtherRoles(t *testing.T) {
	c, w := runCheckRoles(consts.RoleGuardian, consts.RoleTeacher, consts.RoleAdmin)
	require.True(t, c.IsAborted())
	assert.Contains(t, w.Body.String(), "权限不足")
}

func TestCheckRolesRejectsMissingRole(t *testing.T) {
	c, _ := runCheckRoles("", consts.RoleTeacher)
	assert.True(t, c.IsAborted())
}
