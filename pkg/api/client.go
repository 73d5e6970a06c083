package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pion/logging"
)

// Transport is the authenticated channel the client reads documents over.
// *transport.Client satisfies it.
type Transport interface {
	Get(ctx context.Context, resource string) ([]byte, error)
}

// Config collects the options for an API client.
type Config struct {
	Transport Transport

	// LoggerFactory is used to produce loggers. Defaults to a
	// logging.DefaultLoggerFactory.
	LoggerFactory logging.LoggerFactory
}

// Client reads the typed device documents an appliance serves next to the
// DOP2 tree.
type Client struct {
	tp  Transport
	log logging.LeveledLogger
}

// NewClient creates an API client over an authenticated transport.
func NewClient(config Config) (*Client, error) {
	if config.Transport == nil {
		return nil, ErrNoTransport
	}
	loggerFactory := config.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Client{
		tp:  config.Transport,
		log: loggerFactory.NewLogger("api"),
	}, nil
}

// ListDevices returns every appliance the host reports, keyed by device ID.
func (c *Client) ListDevices(ctx context.Context) (map[string]Device, error) {
	body, err := c.tp.Get(ctx, "/Devices/")
	if err != nil {
		return nil, err
	}

	var listing map[string]struct {
		Ident identDocument              `json:"Ident"`
		State map[string]json.RawMessage `json:"State"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}

	devices := make(map[string]Device, len(listing))
	for id, entry := range listing {
		var state stateDocument
		if len(entry.State) > 0 {
			if err := unmarshalFields(entry.State, &state); err != nil {
				return nil, fmt.Errorf("%w: device %s: %v", ErrMalformedDocument, id, err)
			}
		}
		devices[id] = Device{
			ID:    id,
			Ident: identFromDocument(entry.Ident),
			State: stateFromDocument(state, entry.State),
		}
	}
	c.log.Debugf("listed %d devices", len(devices))
	return devices, nil
}

// GetDeviceIdent fetches the Ident document of one appliance.
func (c *Client) GetDeviceIdent(ctx context.Context, deviceID string) (DeviceIdent, error) {
	body, err := c.tp.Get(ctx, deviceResource(deviceID, "Ident"))
	if err != nil {
		return DeviceIdent{}, err
	}
	var doc identDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return DeviceIdent{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return identFromDocument(doc), nil
}

// GetDeviceState fetches the State document of one appliance.
func (c *Client) GetDeviceState(ctx context.Context, deviceID string) (DeviceState, error) {
	body, err := c.tp.Get(ctx, deviceResource(deviceID, "State"))
	if err != nil {
		return DeviceState{}, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return DeviceState{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	var doc stateDocument
	if err := unmarshalFields(raw, &doc); err != nil {
		return DeviceState{}, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	return stateFromDocument(doc, raw), nil
}

func deviceResource(deviceID, document string) string {
	return "/Devices/" + url.PathEscape(deviceID) + "/" + document
}

// unmarshalFields re-encodes a raw field map into a typed document. Keeps
// the raw map available to callers without decoding the body twice off the
// wire.
func unmarshalFields(raw map[string]json.RawMessage, v any) error {
	merged, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(merged, v)
}
