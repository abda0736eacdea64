package cmtecho

import (
	"sync"

	echo "github.com/labstack/echo/v4"

	"github.com/honeycombio/sqlcomment-go/wrappers/common"
)

// EchoWrapper annotates requests served by an Echo router.
type EchoWrapper struct {
	handlerNames map[string]string
	once         sync.Once
}

// New returns a new EchoWrapper struct
func New() *EchoWrapper {
	return &EchoWrapper{}
}

// Middleware returns an echo.MiddlewareFunc to be used with Echo.Use()
func (e *EchoWrapper) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r, ev := common.StartRequest(c.Request(), c.Path())
			defer ev.Send()
			// push the annotated context on to the request
			c.SetRequest(r)

			handlerName := e.handlerName(c)
			if handlerName == "" {
				handlerName = "handler"
			}
			ev.AddField("handler.name", handlerName)
			for _, name := range c.ParamNames() {
				// add field for each path param
				ev.AddField("route.params."+name, c.Param(name))
			}

			// invoke next middleware in chain
			err := next(c)
			if err != nil {
				// let the error handler write the response so its status is
				// the one recorded
				c.Error(err)
				ev.AddField("handler.error", err.Error())
			}

			ev.AddField("response.status_code", c.Response().Status)
			ev.AddField("response.size", c.Response().Size)
			return err
		}
	}
}

// The name of c.Handler() is an anonymous function, so build a map of
// request paths to handler names on the first request and look names up from
// it afterwards.
func (e *EchoWrapper) handlerName(c echo.Context) string {
	e.once.Do(func() {
		routes := c.Echo().Routes()
		e.handlerNames = make(map[string]string, len(routes))
		for _, r := range routes {
			e.handlerNames[r.Method+r.Path] = r.Name
		}
	})

	return e.handlerNames[c.Request().Method+c.Path()]
}
