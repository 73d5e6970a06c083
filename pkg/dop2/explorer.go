package dop2

import (
	"context"
	"errors"
	"sync"
)

// knownLeaves lists the attributes worth probing per unit, based on
// observed appliance trees. The explorer tries these before anything else.
var knownLeaves = map[int][]int{
	1:  {2, 3, 4},
	2:  {105, 119, 138, 256, 286, 293, 1584, 6195},
	3:  {1000},
	14: {1570, 1571, 2570},
}

// Tree is a snapshot of the decodable part of a device's DOP2 tree.
type Tree struct {
	DeviceID string

	// Leaves maps unit -> attribute -> decoded value. Unknown leaves are
	// kept as RawValue.
	Leaves map[int]map[int]Value
}

// Explorer walks appliance DOP2 trees, caching both successful reads and
// leaves that turned out to be absent so repeated exploration stays cheap.
type Explorer struct {
	client *Client

	mu       sync.Mutex
	explored map[string]map[Address]Value
	failed   map[string]map[Address]struct{}
}

// NewExplorer creates an explorer over an existing DOP2 client.
func NewExplorer(client *Client) *Explorer {
	return &Explorer{
		client:   client,
		explored: make(map[string]map[Address]Value),
		failed:   make(map[string]map[Address]struct{}),
	}
}

// ClearCache drops cached results for one device, or for all devices when
// deviceID is empty.
func (e *Explorer) ClearCache(deviceID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if deviceID == "" {
		e.explored = make(map[string]map[Address]Value)
		e.failed = make(map[string]map[Address]struct{})
		return
	}
	delete(e.explored, deviceID)
	delete(e.failed, deviceID)
}

// ExploreLeaf reads and decodes one leaf, consulting the cache first.
// Returns ErrLeafNotFound for leaves cached as absent.
func (e *Explorer) ExploreLeaf(ctx context.Context, deviceID string, addr Address) (Value, error) {
	e.mu.Lock()
	if v, ok := e.explored[deviceID][addr]; ok {
		e.mu.Unlock()
		return v, nil
	}
	if _, ok := e.failed[deviceID][addr]; ok {
		e.mu.Unlock()
		return nil, ErrLeafNotFound
	}
	e.mu.Unlock()

	raw, err := e.client.ReadLeaf(ctx, deviceID, addr)
	if err != nil {
		if errors.Is(err, ErrLeafNotFound) {
			e.recordFailure(deviceID, addr)
		}
		return nil, err
	}

	v, err := DecodeAny(addr.Unit, addr.Attribute, raw)
	if err != nil {
		return nil, err
	}
	e.recordSuccess(deviceID, addr, v)
	return v, nil
}

// ExploreDevice walks every known leaf and returns the resulting tree.
// Absent leaves are skipped; transport failures abort the walk since the
// remaining probes would fail the same way.
func (e *Explorer) ExploreDevice(ctx context.Context, deviceID string) (*Tree, error) {
	tree := &Tree{
		DeviceID: deviceID,
		Leaves:   make(map[int]map[int]Value),
	}

	for unit, attributes := range knownLeaves {
		for _, attribute := range attributes {
			v, err := e.ExploreLeaf(ctx, deviceID, At(unit, attribute))
			if err != nil {
				if errors.Is(err, ErrLeafNotFound) {
					continue
				}
				return nil, err
			}
			if tree.Leaves[unit] == nil {
				tree.Leaves[unit] = make(map[int]Value)
			}
			tree.Leaves[unit][attribute] = v
		}
	}
	return tree, nil
}

func (e *Explorer) recordSuccess(deviceID string, addr Address, v Value) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.explored[deviceID] == nil {
		e.explored[deviceID] = make(map[Address]Value)
	}
	e.explored[deviceID][addr] = v
}

func (e *Explorer) recordFailure(deviceID string, addr Address) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.failed[deviceID] == nil {
		e.failed[deviceID] = make(map[Address]struct{})
	}
	e.failed[deviceID][addr] = struct{}{}
}
