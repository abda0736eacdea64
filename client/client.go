// Package client holds the libhoney client that the wrappers send their
// events through. Until Init is called every function here is a safe no-op.
package client

import (
	"fmt"

	libhoney "github.com/honeycombio/libhoney-go"
	"github.com/honeycombio/libhoney-go/transmission"
)

const (
	defaultWriteKey = "writekey-placeholder"
	defaultDataset  = "sqlcomment-go"

	version = "0.1.0"
)

// Config is where you configure your Honeycomb write key and dataset name.
// WriteKey is the only field needed to actually send events to Honeycomb.
type Config struct {
	// WriteKey is your Honeycomb authentication token.
	// default: writekey-placeholder
	WriteKey string
	// Dataset is the name of the Honeycomb dataset events are sent to.
	// default: sqlcomment-go
	Dataset string
	// ServiceName identifies your application. If set it is added to every
	// event as `service_name`.
	ServiceName string
	// SampleRate is a positive integer; 1 in SampleRate events is sent.
	// default: 1
	SampleRate uint
	// APIHost is the Honeycomb API server. default: https://api.honeycomb.io/
	APIHost string
	// STDOUT when true prints events to STDOUT *instead* of sending them to
	// Honeycomb; useful for development. default: false
	STDOUT bool
	// Mute when true discards every event; useful for tests and CI.
	// default: false
	Mute bool
	// Debug prints each transmission response to STDOUT.
	Debug bool
	// Transmission overrides where events go. It wins over STDOUT and Mute.
	// Tests pass a *transmission.MockSender here.
	Transmission transmission.Sender
}

var client *libhoney.Client

// Init creates the package client. It may be called again to replace it; the
// previous client is closed first.
func Init(config Config) error {
	if config.WriteKey == "" {
		config.WriteKey = defaultWriteKey
	}
	if config.Dataset == "" {
		config.Dataset = defaultDataset
	}
	if config.SampleRate == 0 {
		config.SampleRate = 1
	}
	var tx transmission.Sender
	if config.STDOUT {
		tx = &transmission.WriterSender{}
	}
	if config.Mute {
		tx = &transmission.DiscardSender{}
	}
	if config.Transmission != nil {
		tx = config.Transmission
	}
	clientConfig := libhoney.ClientConfig{
		APIKey:       config.WriteKey,
		Dataset:      config.Dataset,
		SampleRate:   config.SampleRate,
		Transmission: tx,
	}
	if config.APIHost != "" {
		clientConfig.APIHost = config.APIHost
	}
	c, err := libhoney.NewClient(clientConfig)
	if err != nil {
		return fmt.Errorf("creating libhoney client: %w", err)
	}
	Close()
	client = c

	client.AddField("meta.sqlcomment_version", version)
	if config.ServiceName != "" {
		client.AddField("service_name", config.ServiceName)
	}
	if config.Debug {
		go readResponses(client.TxResponses())
	}
	return nil
}

// Close flushes pending events and shuts the client down. Builders made
// before Close must not be used afterwards.
func Close() {
	if client != nil {
		client.Close()
		client = nil
	}
}

// Flush sends any pending events.
func Flush() {
	if client != nil {
		client.Flush()
	}
}

// AddField adds a field to every event created from now on.
func AddField(name string, val interface{}) {
	if client != nil {
		client.AddField(name, val)
	}
}

// NewBuilder returns a builder attached to the package client, or a detached
// builder whose events go nowhere if Init has not been called.
func NewBuilder() *libhoney.Builder {
	if client != nil {
		return client.NewBuilder()
	}
	return &libhoney.Builder{}
}

// TxResponses returns the client's response queue, or a closed channel if
// there is no client.
func TxResponses() chan transmission.Response {
	if client != nil {
		return client.TxResponses()
	}
	c := make(chan transmission.Response)
	close(c)
	return c
}

// readResponses prints transmission responses to STDOUT for debugging.
func readResponses(responses chan transmission.Response) {
	for r := range responses {
		var metadata string
		if r.Metadata != nil {
			metadata = fmt.Sprintf("%s", r.Metadata)
		}
		if r.StatusCode >= 200 && r.StatusCode < 300 {
			message := "Successfully sent event to Honeycomb"
			if metadata != "" {
				message += fmt.Sprintf(": %s", metadata)
			}
			fmt.Printf("%s\n", message)
		} else {
			fmt.Printf("Error sending event to Honeycomb! %s had code %d, err %v and response body %s \n",
				metadata, r.StatusCode, r.Err, r.Body)
		}
	}
}
