package cmthttprouter

import (
	"log"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/honeycombio/libhoney-go/transmission"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqlcomment "github.com/honeycombio/sqlcomment-go"
	"github.com/honeycombio/sqlcomment-go/client"
)

func ExampleNew() {
	// assume you have handlers named hello and index
	var hello func(w http.ResponseWriter, r *http.Request, _ httprouter.Params)
	var index func(w http.ResponseWriter, r *http.Request, _ httprouter.Params)

	router := New()
	router.GET("/hello/:name", hello)
	router.GET("/", index)

	log.Fatal(http.ListenAndServe(":8080", router))
}

func TestHTTPRouterMiddleware(t *testing.T) {
	mo := &transmission.MockSender{}
	require.NoError(t, client.Init(client.Config{Transmission: mo}))
	defer client.Close()

	var seen interface{}
	router := httprouter.New()
	router.GET("/hello/:name", Middleware("/hello/:name", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		seen = sqlcomment.CommentFromContext(r.Context())
		w.WriteHeader(http.StatusCreated)
	}))

	r := httptest.NewRequest("GET", "/hello/pooh", nil)
	router.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, "GET /hello/:name", seen)
	evs := mo.Events()
	require.Len(t, evs, 1, "one event is created with one request through the Middleware")
	fields := evs[0].Data
	assert.Equal(t, http.StatusCreated, fields["response.status_code"])
	assert.Equal(t, "pooh", fields["handler.vars.name"])
	assert.Equal(t, "/hello/:name", fields["handler.route"])
}

func TestRouterWrapsEveryHandle(t *testing.T) {
	mo := &transmission.MockSender{}
	require.NoError(t, client.Init(client.Config{Transmission: mo}))
	defer client.Close()

	seen := map[string]interface{}{}
	record := func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		seen[r.Method] = sqlcomment.CommentFromContext(r.Context())
	}
	router := New()
	router.POST("/flavors", record)
	router.DELETE("/flavors/:id", record)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/flavors", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("DELETE", "/flavors/4", nil))

	assert.Equal(t, "POST /flavors", seen["POST"])
	assert.Equal(t, "DELETE /flavors/:id", seen["DELETE"])
	assert.Len(t, mo.Events(), 2)
}
