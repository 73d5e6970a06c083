// Package dop2 implements the DOP2 binary sub-protocol: leaf addressing,
// raw leaf I/O over the signed transport, and the binary codec that turns
// raw leaf bytes into typed values.
//
// A leaf is one binary resource on one appliance, addressed by a
// (unit, attribute, idx1, idx2) tuple. The schema of a leaf depends on the
// appliance generation; see the generation package.
package dop2

import (
	"fmt"
	"net/url"
)

// Address identifies one DOP2 leaf on one appliance. Idx1 and Idx2 select
// sub-instances within an attribute (e.g. a specific setting ID) and
// default to zero.
type Address struct {
	Unit      int
	Attribute int
	Idx1      int
	Idx2      int
}

// At builds an Address with zero indexes.
func At(unit, attribute int) Address {
	return Address{Unit: unit, Attribute: attribute}
}

// WithIndex returns a copy of the address with the given sub-indexes.
func (a Address) WithIndex(idx1, idx2 int) Address {
	a.Idx1 = idx1
	a.Idx2 = idx2
	return a
}

// Path renders the leaf resource path for a device:
// /Devices/<percent-encoded id>/DOP2/<unit>/<attribute>?idx1=<i1>&idx2=<i2>
func (a Address) Path(deviceID string) string {
	return fmt.Sprintf("/Devices/%s/DOP2/%d/%d?idx1=%d&idx2=%d",
		url.PathEscape(deviceID), a.Unit, a.Attribute, a.Idx1, a.Idx2)
}

// String returns the address in unit/attribute[idx1,idx2] form for logs.
func (a Address) String() string {
	if a.Idx1 == 0 && a.Idx2 == 0 {
		return fmt.Sprintf("%d/%d", a.Unit, a.Attribute)
	}
	return fmt.Sprintf("%d/%d[%d,%d]", a.Unit, a.Attribute, a.Idx1, a.Idx2)
}

// Well-known leaves. The unit groups follow the firmware layout: unit 1
// hosts system information, unit 2 the core appliance data, unit 3
// semi-professional extensions, and unit 14 the legacy catalog leaves.
var (
	LeafSystemInfo   = At(1, 2)
	LeafSystemStatus = At(1, 3)
	LeafSystemConfig = At(1, 4)

	LeafCombinedState    = At(2, 256)
	LeafSettingValue     = At(2, 105)
	LeafHoursOfOperation = At(2, 119)
	LeafCycleCounter     = At(2, 138)
	LeafDeviceState      = At(2, 286)
	LeafDeviceIdent      = At(2, 293)
	LeafProgramList      = At(2, 1584)
	LeafProcessData      = At(2, 6195)

	LeafSemiProConfig = At(3, 1000)

	LeafLegacyProgramList = At(14, 1570)
	LeafLegacyOptionList  = At(14, 1571)
	LeafLegacyStringTable = At(14, 2570)
)
