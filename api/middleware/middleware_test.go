package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anoixa/facility-image-store/internal/auth"
	"github.com/anoixa/facility-image-store/internal/building"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, time.Minute)
	defer rl.StopCleanup()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	newReq := func(ip string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		return req
	}

	assert.Equal(t, http.StatusOK, perform(router, newReq("1.1.1.1")).Code)
	assert.Equal(t, http.StatusOK, perform(router, newReq("1.1.1.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, perform(router, newReq("1.1.1.1")).Code)
	assert.Equal(t, http.StatusOK, perform(router, newReq("2.2.2.2")).Code)

	rl.StopCleanup()
}

func TestIPRateLimiter_Evict(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, time.Second)
	defer rl.StopCleanup()

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))

	rl.evict(time.Now().Add(time.Hour))
	assert.True(t, rl.Allow("a"))
}

func TestBearerAuth(t *testing.T) {
	svc, err := auth.NewJWTService(testSecret, time.Hour)
	require.NoError(t, err)
	token, _, err := svc.GenerateAccessToken("shell", "b-7")
	require.NoError(t, err)

	router := gin.New()
	router.Use(BearerAuth(svc))
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextSubjectKey)+"|"+c.GetString(ContextTokenBuilding))
	})

	tests := []struct {
		name   string
		header string
		code   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "Bearer", http.StatusBadRequest},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"ok", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := perform(router, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "shell|b-7", w.Body.String())
			}
		})
	}
}

func TestBearerAuth_Disabled(t *testing.T) {
	svc, err := auth.NewJWTService("", 0)
	require.NoError(t, err)

	router := gin.New()
	router.Use(BearerAuth(svc))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, perform(router, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRequireBuilding(t *testing.T) {
	router := gin.New()
	router.Use(RequireBuilding())
	router.GET("/", func(c *gin.Context) {
		id, err := building.RequireID(c.Request.Context())
		require.NoError(t, err)
		c.String(http.StatusOK, id)
	})

	w := perform(router, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusPreconditionRequired, w.Code)
	assert.Contains(t, w.Body.String(), "no building selected")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(BuildingHeader, "b-1")
	w = perform(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b-1", w.Body.String())

	w = perform(router, httptest.NewRequest(http.MethodGet, "/?buildingId=b-2", nil))
	assert.Equal(t, "b-2", w.Body.String())
}

func TestRequireBuilding_TokenClaimWins(t *testing.T) {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(ContextTokenBuilding, "b-token")
		c.Next()
	})
	router.Use(RequireBuilding())
	router.GET("/", func(c *gin.Context) {
		id, err := building.RequireID(c.Request.Context())
		require.NoError(t, err)
		c.String(http.StatusOK, id)
	})

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantBody string
	}{
		{name: "claim only", wantCode: http.StatusOK, wantBody: "b-token"},
		{name: "matching header", header: "b-token", wantCode: http.StatusOK, wantBody: "b-token"},
		{name: "other header", header: "b-other", wantCode: http.StatusForbidden},
		{name: "other query", query: "b-other", wantCode: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/"
			if tt.query != "" {
				target += "?buildingId=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set(BuildingHeader, tt.header)
			}
			w := perform(router, req)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), "does not match")
			}
		})
	}
}

func TestConcurrencyLimiter(t *testing.T) {
	cl := NewConcurrencyLimiter(1)
	release := make(chan struct{})
	entered := make(chan struct{})

	router := gin.New()
	router.Use(cl.Middleware())
	router.GET("/", func(c *gin.Context) {
		if c.Query("block") == "1" {
			close(entered)
			<-release
		}
		c.Status(http.StatusOK)
	})

	done := make(chan int)
	go func() {
		done <- perform(router, httptest.NewRequest(http.MethodGet, "/?block=1", nil)).Code
	}()
	<-entered

	assert.Equal(t, http.StatusServiceUnavailable, perform(router, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}
