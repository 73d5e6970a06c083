package generation

import (
	"context"
	"sync"

	"github.com/pion/logging"
)

// ProbeFunc reads one leaf from one appliance. It is supplied by the raw
// I/O layer so the detector stays free of transport concerns. A nil error
// means the leaf exists and was read.
type ProbeFunc func(ctx context.Context, deviceID string, unit, attribute int) ([]byte, error)

// Detector owns the per-device capability cache and generation
// classification. It is owned by a client instance, never global state.
//
// Availability transitions are monotonic: once a leaf is confirmed
// available, later transient failures never demote it. Only an explicit
// Reset discards what was learned. All methods are safe for concurrent use.
type Detector struct {
	mu sync.RWMutex

	// classified caches the generation per device id once a probe run
	// reached a non-Unknown verdict.
	classified map[string]Generation

	// available maps device id -> leaf -> confirmed availability.
	available map[string]map[Leaf]bool

	// lastFamily is the family of the most recent successful leaf access
	// per device, used to order fallback attempts while unclassified.
	lastFamily map[string]Generation

	log logging.LeveledLogger
}

// NewDetector creates an empty detector.
// A nil loggerFactory selects the default factory.
func NewDetector(loggerFactory logging.LoggerFactory) *Detector {
	if loggerFactory == nil {
		loggerFactory = logging.NewDefaultLoggerFactory()
	}
	return &Detector{
		classified: make(map[string]Generation),
		available:  make(map[string]map[Leaf]bool),
		lastFamily: make(map[string]Generation),
		log:        loggerFactory.NewLogger("generation"),
	}
}

// MarkAvailable records that a leaf was read or written successfully.
func (d *Detector) MarkAvailable(deviceID string, leaf Leaf) {
	d.mu.Lock()
	defer d.mu.Unlock()

	leaves := d.available[deviceID]
	if leaves == nil {
		leaves = make(map[Leaf]bool)
		d.available[deviceID] = leaves
	}
	if !leaves[leaf] {
		d.log.Debugf("device %s: leaf %d/%d available", deviceID, leaf.Unit, leaf.Attribute)
	}
	leaves[leaf] = true
	d.lastFamily[deviceID] = FamilyOf(leaf)
}

// MarkUnavailable records that the appliance reported the leaf does not
// exist. A leaf already confirmed available keeps that status; transient
// failures must not be reported here at all.
func (d *Detector) MarkUnavailable(deviceID string, leaf Leaf) {
	d.mu.Lock()
	defer d.mu.Unlock()

	leaves := d.available[deviceID]
	if leaves == nil {
		leaves = make(map[Leaf]bool)
		d.available[deviceID] = leaves
	}
	if leaves[leaf] {
		// Monotonic: confirmed-available wins over a later not-found.
		return
	}
	leaves[leaf] = false
}

// Available reports the cached availability of a leaf. The second return
// is false when the leaf has never been probed on this device.
func (d *Detector) Available(deviceID string, leaf Leaf) (available, known bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	leaves, ok := d.available[deviceID]
	if !ok {
		return false, false
	}
	available, known = leaves[leaf]
	return available, known
}

// AvailableLeaves returns all leaves confirmed available on a device.
func (d *Detector) AvailableLeaves(deviceID string) []Leaf {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Leaf
	for leaf, ok := range d.available[deviceID] {
		if ok {
			out = append(out, leaf)
		}
	}
	return out
}

// Classification returns the cached generation for a device. The second
// return is false when the device has not been classified yet.
func (d *Detector) Classification(deviceID string) (Generation, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	g, ok := d.classified[deviceID]
	return g, ok
}

// Reset discards everything learned about a device: availability,
// classification, and fallback ordering.
func (d *Detector) Reset(deviceID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.classified, deviceID)
	delete(d.available, deviceID)
	delete(d.lastFamily, deviceID)
}

// Detect classifies a device, probing one representative leaf per family
// through the supplied probe. A cached non-Unknown classification is
// returned without any network traffic; ForceDetect re-probes.
//
// Detect never fails outright: when every probe fails the device stays
// Unknown and the caller may still proceed with family fallback.
func (d *Detector) Detect(ctx context.Context, deviceID string, probe ProbeFunc) Generation {
	if g, ok := d.Classification(deviceID); ok {
		return g
	}

	results := make(map[Generation]bool, 3)
	for _, leaf := range []Leaf{ProbeCurrent, ProbeLegacy, ProbeSemiPro} {
		if _, err := probe(ctx, deviceID, leaf.Unit, leaf.Attribute); err == nil {
			results[FamilyOf(leaf)] = true
			d.MarkAvailable(deviceID, leaf)
		} else {
			d.log.Debugf("device %s: probe %d/%d failed: %v", deviceID, leaf.Unit, leaf.Attribute, err)
		}
	}

	g := classify(results)
	if g != Unknown {
		d.mu.Lock()
		d.classified[deviceID] = g
		d.mu.Unlock()
		d.log.Infof("device %s classified as %s", deviceID, g)
	}
	return g
}

// ForceDetect discards the cached classification and probes again.
// Availability knowledge is kept; re-probing may upgrade unavailable
// leaves to available but never the reverse.
func (d *Detector) ForceDetect(ctx context.Context, deviceID string, probe ProbeFunc) Generation {
	d.mu.Lock()
	delete(d.classified, deviceID)
	d.mu.Unlock()
	return d.Detect(ctx, deviceID, probe)
}

// classify derives a generation from probe outcomes. Semi-professional
// appliances also expose the current-family core leaves, so the semi-pro
// probe outranks the others.
func classify(results map[Generation]bool) Generation {
	switch {
	case results[SemiPro]:
		return SemiPro
	case results[Current]:
		return Current
	case results[Legacy]:
		return Legacy
	default:
		return Unknown
	}
}

// FallbackOrder returns the schema families to try for a device, most
// promising first. A classified device leads with its own family; an
// unclassified one leads with the family of its most recent successful
// access. The remaining families follow in a fixed order so behavior is
// deterministic.
func (d *Detector) FallbackOrder(deviceID string) []Generation {
	first := Unknown
	if g, ok := d.Classification(deviceID); ok {
		first = g
	} else {
		d.mu.RLock()
		first = d.lastFamily[deviceID]
		d.mu.RUnlock()
	}

	order := make([]Generation, 0, 3)
	if first != Unknown {
		order = append(order, first)
	}
	for _, g := range []Generation{Current, Legacy, SemiPro} {
		if g != first {
			order = append(order, g)
		}
	}
	return order
}
