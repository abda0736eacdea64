package propagation

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// HoneycombTraceHeader is the header set by Honeycomb beelines.
const HoneycombTraceHeader = "X-Honeycomb-Trace"

// MarshalHoneycombTraceContext uses the information in prop to create a trace context header
// in the Honeycomb trace header format. If prop is nil, the returned value is an empty string.
func MarshalHoneycombTraceContext(prop *PropagationContext) string {
	if prop == nil {
		return ""
	}
	tcJSON, err := json.Marshal(prop.TraceContext)
	if err != nil {
		// if we couldn't marshal the trace level fields, leave it to blank
		tcJSON = []byte("")
	}
	tcB64 := base64.StdEncoding.EncodeToString(tcJSON)

	var datasetClause string
	if prop.Dataset != "" {
		datasetClause = fmt.Sprintf("dataset=%s,", url.QueryEscape(prop.Dataset))
	}

	return fmt.Sprintf(
		"%d;trace_id=%s,parent_id=%s,%scontext=%s",
		1,
		prop.TraceID,
		prop.ParentID,
		datasetClause,
		tcB64,
	)
}

// UnmarshalHoneycombTraceContext parses a header in the Honeycomb trace
// header format. Only version 1 is understood.
func UnmarshalHoneycombTraceContext(header string) (*PropagationContext, error) {
	getVer := strings.SplitN(header, ";", 2)
	if getVer[0] != "1" {
		return nil, &propagationError{fmt.Sprintf("unsupported header version %s", getVer[0]), nil}
	}
	if len(getVer) < 2 {
		return nil, &propagationError{"missing trace fields", nil}
	}
	prop := &PropagationContext{}
	var tcB64 string
	for _, kv := range strings.Split(getVer[1], ",") {
		keyval := strings.SplitN(kv, "=", 2)
		if len(keyval) != 2 {
			continue
		}
		switch keyval[0] {
		case "trace_id":
			prop.TraceID = keyval[1]
		case "parent_id":
			prop.ParentID = keyval[1]
		case "dataset":
			prop.Dataset, _ = url.QueryUnescape(keyval[1])
		case "context":
			tcB64 = keyval[1]
		}
	}
	if prop.TraceID == "" && prop.ParentID != "" {
		return nil, &propagationError{"parent_id without trace_id", nil}
	}
	if tcB64 != "" {
		data, err := base64.StdEncoding.DecodeString(tcB64)
		if err != nil {
			return nil, &propagationError{"unable to decode base64 trace context", err}
		}
		prop.TraceContext = make(map[string]interface{})
		if err := json.Unmarshal(data, &prop.TraceContext); err != nil {
			return nil, &propagationError{"unable to unmarshal trace context", err}
		}
	}
	return prop, nil
}
