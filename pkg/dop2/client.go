package dop2

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/logging"

	"github.com/smarthut/mielelocal/pkg/generation"
	"github.com/smarthut/mielelocal/pkg/transport"
)

// Transport is the signed exchange the leaf I/O runs on. Satisfied by
// *transport.Client.
type Transport interface {
	Get(ctx context.Context, resource string) ([]byte, error)
	Put(ctx context.Context, resource string, body []byte) ([]byte, error)
}

// Config configures a Client.
type Config struct {
	// Transport performs the signed HTTP exchanges. Required.
	Transport Transport

	// Detector is the generation detector and capability cache. A fresh
	// one is created when nil; supply one to share across layers.
	Detector *generation.Detector

	// LoggerFactory creates the client logger.
	// If nil, a default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Client performs raw and decoded leaf I/O against one appliance
// connection. Reads of unrelated leaves may run concurrently; the
// read-validate-write setting update serializes per (device, address).
type Client struct {
	tp  Transport
	det *generation.Detector
	log logging.LeveledLogger

	// settingMu serializes read-validate-write sequences per
	// (device, address) so validation cannot race a concurrent write.
	mu        sync.Mutex
	settingMu map[settingLockKey]*sync.Mutex
}

type settingLockKey struct {
	deviceID string
	addr     Address
}

// ErrNoTransport is returned when a Client is constructed without one.
var ErrNoTransport = errors.New("dop2: no transport configured")

// NewClient creates a DOP2 client over the given transport.
func NewClient(config Config) (*Client, error) {
	if config.Transport == nil {
		return nil, ErrNoTransport
	}
	if config.Detector == nil {
		config.Detector = generation.NewDetector(config.LoggerFactory)
	}
	if config.LoggerFactory == nil {
		config.LoggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Client{
		tp:        config.Transport,
		det:       config.Detector,
		log:       config.LoggerFactory.NewLogger("dop2"),
		settingMu: make(map[settingLockKey]*sync.Mutex),
	}, nil
}

// Detector exposes the capability cache for collaborators (capability
// heuristics, connection management).
func (c *Client) Detector() *generation.Detector {
	return c.det
}

// ReadLeaf reads the raw bytes of one leaf. A successful read marks the
// leaf available in the capability cache; a not-found response marks it
// unavailable. Network and authorization failures propagate untouched
// since they say nothing about leaf availability.
func (c *Client) ReadLeaf(ctx context.Context, deviceID string, addr Address) ([]byte, error) {
	raw, err := c.tp.Get(ctx, addr.Path(deviceID))
	if err != nil {
		return nil, c.observeFailure(deviceID, addr, err)
	}
	c.det.MarkAvailable(deviceID, generation.Leaf{Unit: addr.Unit, Attribute: addr.Attribute})
	return raw, nil
}

// WriteLeaf writes raw bytes to one leaf. Cache bookkeeping matches
// ReadLeaf.
func (c *Client) WriteLeaf(ctx context.Context, deviceID string, addr Address, payload []byte) error {
	_, err := c.tp.Put(ctx, addr.Path(deviceID), payload)
	if err != nil {
		return c.observeFailure(deviceID, addr, err)
	}
	c.det.MarkAvailable(deviceID, generation.Leaf{Unit: addr.Unit, Attribute: addr.Attribute})
	return nil
}

// observeFailure translates a transport failure and updates the capability
// cache for conclusive not-found responses only.
func (c *Client) observeFailure(deviceID string, addr Address, err error) error {
	if transport.IsNotFound(err) {
		c.det.MarkUnavailable(deviceID, generation.Leaf{Unit: addr.Unit, Attribute: addr.Attribute})
		return fmt.Errorf("%w: %s on %s", ErrLeafNotFound, addr, deviceID)
	}
	return err
}

// ReadDecoded reads a leaf and decodes it through the schema registry.
func (c *Client) ReadDecoded(ctx context.Context, deviceID string, addr Address) (Value, error) {
	raw, err := c.ReadLeaf(ctx, deviceID, addr)
	if err != nil {
		return nil, err
	}
	return Decode(addr.Unit, addr.Attribute, raw)
}

// DetectGeneration classifies the appliance, probing representative
// leaves when no cached classification exists.
func (c *Client) DetectGeneration(ctx context.Context, deviceID string) generation.Generation {
	return c.det.Detect(ctx, deviceID, c.probe)
}

// ForceDetectGeneration discards the cached classification and re-probes.
func (c *Client) ForceDetectGeneration(ctx context.Context, deviceID string) generation.Generation {
	return c.det.ForceDetect(ctx, deviceID, c.probe)
}

func (c *Client) probe(ctx context.Context, deviceID string, unit, attribute int) ([]byte, error) {
	return c.ReadLeaf(ctx, deviceID, At(unit, attribute))
}

// GetSetting reads and decodes one setting by its ID.
func (c *Client) GetSetting(ctx context.Context, deviceID string, settingID uint16) (SettingValue, error) {
	addr := LeafSettingValue.WithIndex(int(settingID), 0)
	v, err := c.ReadDecoded(ctx, deviceID, addr)
	if err != nil {
		return SettingValue{}, err
	}
	s, ok := v.(SettingValue)
	if !ok {
		return SettingValue{}, fmt.Errorf("%w: leaf %s did not decode to a setting", ErrInvalidStructure, addr)
	}
	if s.ID == 0 {
		s.ID = settingID
	}
	return s, nil
}

// SetSetting updates one setting. The current value and its bounds are
// read first; a proposed value outside [min, max] fails with ErrOutOfRange
// before any write is issued. The whole read-validate-write sequence is a
// critical section per (device, address).
func (c *Client) SetSetting(ctx context.Context, deviceID string, settingID uint16, newValue uint16) error {
	addr := LeafSettingValue.WithIndex(int(settingID), 0)

	lock := c.settingLock(deviceID, addr)
	lock.Lock()
	defer lock.Unlock()

	current, err := c.GetSetting(ctx, deviceID, settingID)
	if err != nil {
		return err
	}
	if err := current.CheckBounds(newValue); err != nil {
		return err
	}

	current.Current = newValue
	payload, err := Encode(addr.Unit, addr.Attribute, current)
	if err != nil {
		return err
	}

	c.log.Debugf("device %s: setting %d -> %d", deviceID, settingID, newValue)
	return c.WriteLeaf(ctx, deviceID, addr, payload)
}

func (c *Client) settingLock(deviceID string, addr Address) *sync.Mutex {
	key := settingLockKey{deviceID: deviceID, addr: addr}
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.settingMu[key]
	if !ok {
		lock = &sync.Mutex{}
		c.settingMu[key] = lock
	}
	return lock
}
