package cmtgingonic

import (
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/honeycombio/libhoney-go/transmission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
)

func ExampleMiddleware() {
	// Setup a new gin Router, not using the Default here so that we can put
	// the comment middleware in before the middleware provided by Gin
	router := gin.New()
	router.Use(
		Middleware(map[string]struct{}{"limit": {}}),
		gin.Logger(),
		gin.Recovery(),
	)

	router.GET("/flavors/:id", func(c *gin.Context) {
		// pass c.Request.Context() to cmtsql or cmtsqlx calls
		c.String(http.StatusOK, "rose")
	})

	log.Fatal(router.Run("127.0.0.1:8080"))
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mo := &transmission.MockSender{}
	require.NoError(t, client.Init(client.Config{Transmission: mo}))
	defer client.Close()

	var seen interface{}
	router := gin.New()
	router.Use(Middleware(map[string]struct{}{"limit": {}}))
	router.GET("/flavors/:id", func(c *gin.Context) {
		seen = sqlcomment.CommentFromContext(c.Request.Context())
		c.String(http.StatusCreated, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/flavors/7?limit=5&offset=10", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "GET /flavors/:id", seen)

	evs := mo.Events()
	require.Len(t, evs, 1)
	fields := evs[0].Data
	assert.Equal(t, http.StatusCreated, fields["response.status_code"])
	assert.Equal(t, "7", fields["handler.vars.id"])
	assert.Equal(t, "5", fields["handler.query.limit"])
	assert.NotContains(t, fields, "handler.query.offset")
	assert.Equal(t, "GET /flavors/:id", fields["sqlcomment.comment"])
}
