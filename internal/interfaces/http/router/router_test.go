package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.version)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.version)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	var order []string

	g := NewDomainGroup("messages", "/messages").Use(func(c *gin.Context) {
		order = append(order, "group")
	})
	g.GET("/:id", func(c *gin.Context) {
		order = append(order, "handler")
		c.String(http.StatusOK, c.Param("id"))
	})

	NewRouter(engine).
		Use(func(c *gin.Context) { order = append(order, "api") }).
		Register(g).
		Setup()

	w := serve(engine, http.MethodGet, "/api/v1/messages/42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "42", w.Body.String())
	assert.Equal(t, []string{"api", "group", "handler"}, order)
}

func TestDomainGroup_Methods(t *testing.T) {
	engine := gin.New()
	g := NewDomainGroup("channels", "/channels")
	reply := func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) }
	g.GET("", reply).POST("", reply).PUT("/:id", reply).DELETE("/:id", reply)
	g.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "GET", serve(engine, http.MethodGet, "/api/v1/channels").Body.String())
	assert.Equal(t, "POST", serve(engine, http.MethodPost, "/api/v1/channels").Body.String())
	assert.Equal(t, "PUT", serve(engine, http.MethodPut, "/api/v1/channels/1").Body.String())
	assert.Equal(t, "DELETE", serve(engine, http.MethodDelete, "/api/v1/channels/1").Body.String())
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/channels/1/x").Code)
}

func TestDomainGroup_Subgroups(t *testing.T) {
	engine := gin.New()
	system := NewDomainGroup("system", "/system")
	params := system.Group("parameters", "/parameters")
	params.GET("/:key", func(c *gin.Context) { c.String(http.StatusOK, c.Param("key")) })
	system.RegisterRoutes(engine.Group("/api/v1"))

	assert.Equal(t, "system", system.Name())
	assert.Equal(t, "/parameters", params.Prefix())

	w := serve(engine, http.MethodGet, "/api/v1/system/parameters/mail.catchall.domain")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mail.catchall.domain", w.Body.String())
}
