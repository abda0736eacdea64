package propagation

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	traceID  = "0af7651916cd43dd8448eb211c80319c"
	parentID = "b7ad6b7169203331"
)

func TestW3CRoundTrip(t *testing.T) {
	prop, err := UnmarshalW3CTraceContext("00-" + traceID + "-" + parentID + "-01")
	require.NoError(t, err)
	assert.Equal(t, traceID, prop.TraceID)
	assert.Equal(t, parentID, prop.ParentID)
	assert.Equal(t, byte(1), prop.TraceFlags)
	assert.Equal(t, "00-"+traceID+"-"+parentID+"-01", MarshalW3CTraceContext(prop))
}

func TestW3CRejects(t *testing.T) {
	for _, h := range []string{
		"",
		"00-" + traceID + "-" + parentID,
		"ff-" + traceID + "-" + parentID + "-01",
		"00-" + traceID + "-" + parentID + "-01-extra",
		"00-" + traceID[:30] + "-" + parentID + "-01",
		"00-" + traceID + "-B7AD6B7169203331-01",
		"00-00000000000000000000000000000000-" + parentID + "-01",
		"00-" + traceID + "-0000000000000000-01",
		"00-" + traceID + "-" + parentID + "-zz",
	} {
		_, err := UnmarshalW3CTraceContext(h)
		assert.Error(t, err, h)
	}
	assert.Equal(t, "", MarshalW3CTraceContext(nil))
	assert.Equal(t, "", MarshalW3CTraceContext(&PropagationContext{TraceID: traceID}))
}

func TestHoneycombRoundTrip(t *testing.T) {
	prop := &PropagationContext{
		TraceID:  "abcdef123456",
		ParentID: "0102030405",
		Dataset:  "my dataset",
		TraceContext: map[string]interface{}{
			"userID":  float64(1),
			"toRetry": true,
		},
	}
	header := MarshalHoneycombTraceContext(prop)
	assert.Contains(t, header, "1;trace_id=abcdef123456,parent_id=0102030405,dataset=my+dataset,context=")

	back, err := UnmarshalHoneycombTraceContext(header)
	require.NoError(t, err)
	assert.Equal(t, prop, back)
}

func TestHoneycombRejects(t *testing.T) {
	_, err := UnmarshalHoneycombTraceContext("2;trace_id=a,parent_id=b")
	assert.Error(t, err)
	_, err = UnmarshalHoneycombTraceContext("1;parent_id=b")
	assert.Error(t, err)
	_, err = UnmarshalHoneycombTraceContext("1;trace_id=a,parent_id=b,context=!!!")
	assert.Error(t, err)
	assert.Equal(t, "", MarshalHoneycombTraceContext(nil))
}

func TestFromHeaders(t *testing.T) {
	h := http.Header{}
	assert.Nil(t, FromHeaders(h.Get))
	assert.Nil(t, FromHeaders(nil))

	h.Set(HoneycombTraceHeader, "1;trace_id=abc,parent_id=def")
	prop := FromHeaders(h.Get)
	require.NotNil(t, prop)
	assert.Equal(t, "trace_id=abc parent_id=def", prop.Comment())

	// traceparent wins when both are present
	h.Set(W3CTraceparentHeader, "00-"+traceID+"-"+parentID+"-00")
	prop = FromHeaders(h.Get)
	require.NotNil(t, prop)
	assert.Equal(t, traceID, prop.TraceID)

	// a broken traceparent falls back to the honeycomb header
	h.Set(W3CTraceparentHeader, "garbage")
	assert.Equal(t, "abc", FromHeaders(h.Get).TraceID)
}

func TestComment(t *testing.T) {
	var nilProp *PropagationContext
	assert.Equal(t, "", nilProp.Comment())
	assert.Equal(t, "", (&PropagationContext{TraceID: "a"}).Comment())
}
