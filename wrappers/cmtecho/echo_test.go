package cmtecho

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/honeycombio/libhoney-go/transmission"
	echo "github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
)

func TestEchoMiddleware(t *testing.T) {
	mo := &transmission.MockSender{}
	require.NoError(t, client.Init(client.Config{Transmission: mo}))
	defer client.Close()

	var seen interface{}
	router := echo.New()
	router.Use(New().Middleware())
	router.GET("/hello/:name", func(c echo.Context) error {
		seen = sqlcomment.CommentFromContext(c.Request().Context())
		return c.String(http.StatusOK, "hi")
	})
	router.GET("/teapot", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusTeapot, "short and stout")
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/hello/pooh", nil))
	assert.Equal(t, "GET /hello/:name", seen)

	evs := mo.Events()
	require.Len(t, evs, 1, "one event is created with one request through the Middleware")
	fields := evs[0].Data
	assert.Equal(t, http.StatusOK, fields["response.status_code"])
	assert.Equal(t, "pooh", fields["route.params.name"])
	assert.Equal(t, "GET /hello/:name", fields["sqlcomment.comment"])

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
	evs = mo.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, http.StatusTeapot, evs[1].Data["response.status_code"])
	assert.Contains(t, evs[1].Data, "handler.error")
}
