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

func get(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	assert.Equal(t, "v2", NewRouter(gin.New(), WithAPIVersion("v2")).apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	assert.Len(t, r.registrars, 1)
	r.Setup()

	w := get(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Use(func(c *gin.Context) {
		c.Header("X-Group", "api")
		c.Next()
	})

	g := NewDomainGroup("/test")
	g.GET("/a", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.Register(g).Setup()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "api", get(engine, http.MethodGet, "/api/v1/test/a").Header().Get("X-Group"))
	assert.Empty(t, get(engine, http.MethodGet, "/outside").Header().Get("X-Group"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("registers GET and POST routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("/test")
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, get(engine, http.MethodGet, "/api/v1/test/items").Code)
		assert.Equal(t, http.StatusCreated, get(engine, http.MethodPost, "/api/v1/test/items").Code)
	})

	t.Run("applies group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("/test")
		g.Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusForbidden)
		})
		g.GET("/items", func(c *gin.Context) { c.Status(http.StatusOK) })

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusForbidden, get(engine, http.MethodGet, "/api/v1/test/items").Code)
	})

	t.Run("registers subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("/fulfillment")
		g.Group("/queue").GET("/:id", func(c *gin.Context) {
			c.String(http.StatusOK, c.Param("id"))
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := get(engine, http.MethodGet, "/api/v1/fulfillment/queue/42")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "42", w.Body.String())
	})

	t.Run("subgroups run parent middleware first", func(t *testing.T) {
		engine := gin.New()
		var order []string
		g := NewDomainGroup("/imports")
		g.Use(func(c *gin.Context) { order = append(order, "imports"); c.Next() })
		jobs := g.Group("/jobs")
		jobs.Use(func(c *gin.Context) { order = append(order, "jobs"); c.Next() })
		jobs.GET("", func(c *gin.Context) { c.Status(http.StatusOK) })

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, get(engine, http.MethodGet, "/api/v1/imports/jobs").Code)
		assert.Equal(t, []string{"imports", "jobs"}, order)
	})
}
