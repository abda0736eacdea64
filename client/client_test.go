package client

import (
	"testing"

	"github.com/honeycombio/libhoney-go/transmission"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientWrappersWorkWithoutInit(t *testing.T) {
	client = nil
	// None of these should cause panics
	Close()
	Flush()
	AddField("foo", "bar")
	// we should get a closed channel back that doesn't panic or block forever
	for range TxResponses() {
		t.Fatal("expected no responses")
	}
}

func TestInitSendsThroughTransmission(t *testing.T) {
	mock := &transmission.MockSender{}
	require.NoError(t, Init(Config{
		WriteKey:     "placeholder",
		Dataset:      "placeholder",
		APIHost:      "placeholder",
		ServiceName:  "flavors",
		Transmission: mock,
	}))
	defer func() { client = nil }()

	ev := NewBuilder().NewEvent()
	ev.AddField("db.comment", "menu page")
	require.NoError(t, ev.Send())
	Flush()

	events := mock.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "menu page", events[0].Data["db.comment"])
	assert.Equal(t, "flavors", events[0].Data["service_name"])
	assert.Equal(t, version, events[0].Data["meta.sqlcomment_version"])
	assert.Equal(t, "placeholder", events[0].Dataset)
}
