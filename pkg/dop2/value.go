package dop2

import "fmt"

// Value is a decoded leaf payload. The set of implementations is closed:
// decoders produce exactly the types in this file.
type Value interface {
	leafValue()
}

// RawValue is the passthrough for leaves without a registered codec.
type RawValue []byte

func (RawValue) leafValue() {}

// CombinedState is the appliance/operation/process state triple from leaf
// 2/256.
type CombinedState struct {
	ApplianceState uint16
	OperationState uint16
	ProcessState   uint16
}

func (CombinedState) leafValue() {}

// SettingValue is one appliance setting from leaf 2/105: the current value
// plus its bounds. Writes must stay within [Min, Max].
type SettingValue struct {
	ID      uint16
	Current uint16
	Min     uint16
	Max     uint16
	Default uint16
}

func (SettingValue) leafValue() {}

// Range returns the allowed [min, max] bounds.
func (s SettingValue) Range() (min, max uint16) {
	return s.Min, s.Max
}

// CheckBounds validates a proposed new value against the decoded bounds.
func (s SettingValue) CheckBounds(value uint16) error {
	if value < s.Min || value > s.Max {
		return fmt.Errorf("%w: %d not in [%d, %d] for setting %d",
			ErrOutOfRange, value, s.Min, s.Max, s.ID)
	}
	return nil
}

// HoursOfOperation is the lifetime operating-hours counter from leaf 2/119.
type HoursOfOperation uint32

func (HoursOfOperation) leafValue() {}

// CycleCounter is the lifetime cycle counter from leaf 2/138.
type CycleCounter uint32

func (CycleCounter) leafValue() {}

// ProcessData carries the lifetime energy and water totals from leaf
// 2/6195.
type ProcessData struct {
	EnergyWh uint32
	WaterL   uint32
}

func (ProcessData) leafValue() {}

// ProgramIDList is the current-family program list from leaf 2/1584: the
// ordered program identifiers supported by the appliance.
type ProgramIDList []uint16

func (ProgramIDList) leafValue() {}

// ProgramEntry is one program in the legacy program list (leaf 14/1570).
// NameID indexes the legacy string table.
type ProgramEntry struct {
	ID     uint16
	NameID uint16
}

// ProgramEntryList is the decoded legacy program list.
type ProgramEntryList []ProgramEntry

func (ProgramEntryList) leafValue() {}

// OptionEntry is one option in the legacy option list (leaf 14/1571).
type OptionEntry struct {
	ID      uint16
	NameID  uint16
	Default uint16

	// Allowed enumerates the legal values; empty means unrestricted.
	Allowed []uint16
}

// OptionEntryList is the decoded legacy option list for one program.
type OptionEntryList []OptionEntry

func (OptionEntryList) leafValue() {}

// StringTable maps string IDs to text, decoded from leaf 14/2570. Name
// fields elsewhere are indexes into this table.
type StringTable map[uint16]string

func (StringTable) leafValue() {}

// Option is one adjustable option in an assembled program catalog, with
// its name resolved against the string table where possible.
type Option struct {
	ID      uint16
	Name    string
	Default uint16
	Min     uint16
	Max     uint16
	Allowed []uint16
}

// Program is one selectable program in an assembled catalog.
type Program struct {
	ID      uint16
	Name    string
	Options []Option
}

// Catalog is the assembled program catalog for one appliance.
type Catalog struct {
	// Family is the schema family the catalog was read from.
	Family string

	Programs []Program
}

// ConsumptionStats aggregates the lifetime counters. Nil fields mean the
// corresponding leaf was unavailable on this appliance.
type ConsumptionStats struct {
	Hours    *uint32
	Cycles   *uint32
	EnergyWh *uint32
	WaterL   *uint32
}
