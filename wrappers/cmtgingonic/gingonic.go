package cmtgingonic

import (
	"github.com/gin-gonic/gin"

	"github.com/honeycombio/sqlcomment-go/wrappers/common"
)

// Middleware annotates requests and sends one event per request. The values
// of any GET query params named in queryParams are added to the event; pass
// nil to record none.
func Middleware(queryParams map[string]struct{}) gin.HandlerFunc {
	return func(c *gin.Context) {
		r, ev := common.StartRequest(c.Request, c.FullPath())
		defer ev.Send()
		// push the annotated context on to the request
		c.Request = r

		// pull out any variables in the URL
		for _, param := range c.Params {
			ev.AddField("handler.vars."+param.Key, param.Value)
		}

		// pull out any GET query params we were asked for
		for key, value := range c.Request.URL.Query() {
			if _, ok := queryParams[key]; !ok {
				continue
			}
			if len(value) > 1 {
				ev.AddField("handler.query."+key, value)
			} else if len(value) == 1 {
				ev.AddField("handler.query."+key, value[0])
			} else {
				ev.AddField("handler.query."+key, nil)
			}
		}

		ev.AddField("handler.name", c.HandlerName())
		// Run the next function in the Middleware chain
		c.Next()

		ev.AddField("response.status_code", c.Writer.Status())
		if len(c.Errors) > 0 {
			ev.AddField("handler.error", c.Errors.String())
		}
	}
}
