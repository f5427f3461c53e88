package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anoa.com/devconnector/internal/middleware"
	"anoa.com/devconnector/internal/modules/user/repository"
	"anoa.com/devconnector/internal/modules/user/service"
	"anoa.com/devconnector/internal/testutil"
	"anoa.com/devconnector/pkg/token"
	"anoa.com/devconnector/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type errorsBody struct {
	Errors []struct {
		Param string `json:"param"`
		Msg   string `json:"msg"`
	} `json:"errors"`
}

func setupRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Setup()

	db := testutil.NewDB(t)
	tokens := token.NewService("test-secret", time.Hour)
	h := NewUserHandler(service.NewUserService(repository.NewUserRepository(db), tokens, bcrypt.MinCost))
	auth := middleware.NewAuthMiddleware(tokens)

	r := gin.New()
	r.POST("/api/user", h.Register)
	r.POST("/api/auth", h.Login)
	r.GET("/api/auth", auth.RequireAuth(), h.Me)
	return r
}

func do(r *gin.Engine, method, path, body, tok string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set(middleware.TokenHeader, tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterLoginMe(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/user", `{"name":"Ann","email":"ann@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var reg struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reg))
	require.NotEmpty(t, reg.Token)

	w = do(r, http.MethodPost, "/api/user", `{"name":"Ann","email":"ann@x.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"User already exists"}]}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth", `{"email":"ann@x.com","password":"wrong"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid credentials"}]}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth", `{"email":"ann@x.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/auth", "", reg.Token)
	require.Equal(t, http.StatusOK, w.Code)

	var me map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, "Ann", me["name"])
	assert.Equal(t, "ann@x.com", me["email"])
	assert.NotEmpty(t, me["_id"])
	assert.NotContains(t, me, "password")
}

func TestRegister_Validation(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/user", `{"name":"","email":"not-an-email","password":"123"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorsBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 3)
	assert.Equal(t, "name", body.Errors[0].Param)
	assert.Equal(t, "Name is required", body.Errors[0].Msg)
	assert.Equal(t, "Please include a valid email", body.Errors[1].Msg)
	assert.Equal(t, "Please enter a password with 6 or more characters", body.Errors[2].Msg)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	r := setupRouter(t)
	want := `{"errors":[{"param":"password","msg":"Please enter a password with 72 or fewer bytes"}]}`

	body := fmt.Sprintf(`{"name":"Ann","email":"ann@x.com","password":%q}`, strings.Repeat("a", 73))
	w := do(r, http.MethodPost, "/api/user", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, want, w.Body.String())

	// 40 characters but 80 bytes: passes binding, rejected by bcrypt.
	body = fmt.Sprintf(`{"name":"Ann","email":"ann@x.com","password":%q}`, strings.Repeat("é", 40))
	w = do(r, http.MethodPost, "/api/user", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, want, w.Body.String())

	body = fmt.Sprintf(`{"name":"Ann","email":"ann@x.com","password":%q}`, strings.Repeat("a", 72))
	w = do(r, http.MethodPost, "/api/user", body, "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestLogin_Validation(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodPost, "/api/auth", `{"email":"ann@x.com"}`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"param":"password","msg":"Please enter password"}]}`, w.Body.String())

	w = do(r, http.MethodPost, "/api/auth", `{bad json`, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"errors":[{"msg":"Invalid request body"}]}`, w.Body.String())
}

func TestMe_NoToken(t *testing.T) {
	r := setupRouter(t)

	w := do(r, http.MethodGet, "/api/auth", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"msg":"No token, authorization denied"}`, w.Body.String())
}
