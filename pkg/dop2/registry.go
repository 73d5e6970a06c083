package dop2

import "fmt"

// leafKey identifies a codec by unit and attribute. Index parameters never
// change the layout, so they are not part of the key.
type leafKey struct {
	unit      int
	attribute int
}

// leafCodec bundles the decode and optional encode strategy for one leaf.
type leafCodec struct {
	decode func([]byte) (Value, error)
	encode func(Value) ([]byte, error)
}

// registry maps known leaves to their codecs. Built once at process start
// and read-only afterwards; the two catalog families coexist here under
// their distinct unit numbers and the caller picks the family per device.
var registry = map[leafKey]leafCodec{
	{2, 256}:   {decode: decodeCombinedState},
	{2, 105}:   {decode: decodeSettingValue, encode: encodeSettingValue},
	{2, 119}:   {decode: decodeHoursOfOperation},
	{2, 138}:   {decode: decodeCycleCounter},
	{2, 6195}:  {decode: decodeProcessData},
	{2, 1584}:  {decode: decodeProgramIDList},
	{14, 1570}: {decode: decodeProgramEntryList},
	{14, 1571}: {decode: decodeOptionEntryList},
	{14, 2570}: {decode: decodeStringTable},
}

// Known reports whether a codec is registered for the leaf.
func Known(unit, attribute int) bool {
	_, ok := registry[leafKey{unit, attribute}]
	return ok
}

// Decode turns raw leaf bytes into a typed value.
func Decode(unit, attribute int, raw []byte) (Value, error) {
	c, ok := registry[leafKey{unit, attribute}]
	if !ok {
		return nil, fmt.Errorf("%w: %d/%d", ErrUnknownLeaf, unit, attribute)
	}
	return c.decode(raw)
}

// DecodeAny is Decode with raw passthrough for unregistered leaves, used
// by the explorer which walks attributes it has no schema for.
func DecodeAny(unit, attribute int, raw []byte) (Value, error) {
	if !Known(unit, attribute) {
		out := make(RawValue, len(raw))
		copy(out, raw)
		return out, nil
	}
	return Decode(unit, attribute, raw)
}

// Encode turns a typed value into leaf bytes for a write. Most leaves are
// read-only; encoding validates bounds before any payload is produced.
func Encode(unit, attribute int, v Value) ([]byte, error) {
	c, ok := registry[leafKey{unit, attribute}]
	if !ok {
		return nil, fmt.Errorf("%w: %d/%d", ErrUnknownLeaf, unit, attribute)
	}
	if c.encode == nil {
		return nil, fmt.Errorf("%w: %d/%d", ErrUnsupportedWrite, unit, attribute)
	}
	return c.encode(v)
}

// decodeCombinedState parses leaf 2/256: three u16 state words.
func decodeCombinedState(raw []byte) (Value, error) {
	r := newPayloadReader(raw)
	a, err := r.u16()
	if err != nil {
		return nil, err
	}
	o, err := r.u16()
	if err != nil {
		return nil, err
	}
	p, err := r.u16()
	if err != nil {
		return nil, err
	}
	return CombinedState{ApplianceState: a, OperationState: o, ProcessState: p}, nil
}

// decodeSettingValue parses leaf 2/105. The full layout is five u16 words:
// setting ID, current, min, max, default. Some firmware answers a compact
// four-byte {current, max} form; that variant decodes with Min zero and
// Default mirroring the current value.
func decodeSettingValue(raw []byte) (Value, error) {
	r := newPayloadReader(raw)

	if len(raw) == 4 {
		current, err := r.u16()
		if err != nil {
			return nil, err
		}
		max, err := r.u16()
		if err != nil {
			return nil, err
		}
		return SettingValue{Current: current, Max: max, Default: current}, nil
	}

	var words [5]uint16
	for i := range words {
		w, err := r.u16()
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	s := SettingValue{
		ID:      words[0],
		Current: words[1],
		Min:     words[2],
		Max:     words[3],
		Default: words[4],
	}
	if s.Min > s.Max {
		return nil, fmt.Errorf("%w: setting %d has min %d > max %d",
			ErrInvalidStructure, s.ID, s.Min, s.Max)
	}
	return s, nil
}

// encodeSettingValue builds the write payload for leaf 2/105: setting ID
// followed by the new value, both u16. Bounds are validated against the
// value's own [Min, Max] before anything is produced.
func encodeSettingValue(v Value) ([]byte, error) {
	s, ok := v.(SettingValue)
	if !ok {
		return nil, fmt.Errorf("%w: expected SettingValue, got %T", ErrShapeMismatch, v)
	}
	if err := s.CheckBounds(s.Current); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 4)
	out = appendU16(out, s.ID)
	out = appendU16(out, s.Current)
	return out, nil
}

func decodeHoursOfOperation(raw []byte) (Value, error) {
	v, err := newPayloadReader(raw).u32()
	if err != nil {
		return nil, err
	}
	return HoursOfOperation(v), nil
}

func decodeCycleCounter(raw []byte) (Value, error) {
	v, err := newPayloadReader(raw).u32()
	if err != nil {
		return nil, err
	}
	return CycleCounter(v), nil
}

// decodeProcessData parses leaf 2/6195: lifetime energy (Wh) and water (l)
// as consecutive u32 counters.
func decodeProcessData(raw []byte) (Value, error) {
	r := newPayloadReader(raw)
	energy, err := r.u32()
	if err != nil {
		return nil, err
	}
	water, err := r.u32()
	if err != nil {
		return nil, err
	}
	return ProcessData{EnergyWh: energy, WaterL: water}, nil
}

// decodeProgramIDList parses leaf 2/1584: a u16 count followed by that
// many u16 program identifiers.
func decodeProgramIDList(raw []byte) (Value, error) {
	r := newPayloadReader(raw)
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	if int(count)*2 > r.remaining() {
		return nil, fmt.Errorf("%w: program list claims %d entries, %d bytes left",
			ErrInvalidStructure, count, r.remaining())
	}
	list := make(ProgramIDList, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := r.u16()
		if err != nil {
			return nil, err
		}
		list = append(list, id)
	}
	return list, nil
}

// decodeProgramEntryList parses leaf 14/1570: a u16 count followed by
// {program ID, name ID} pairs.
func decodeProgramEntryList(raw []byte) (Value, error) {
	r := newPayloadReader(raw)
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	if int(count)*4 > r.remaining() {
		return nil, fmt.Errorf("%w: legacy program list claims %d entries, %d bytes left",
			ErrInvalidStructure, count, r.remaining())
	}
	list := make(ProgramEntryList, 0, count)
	for i := 0; i < int(count); i++ {
		id, err := r.u16()
		if err != nil {
			return nil, err
		}
		nameID, err := r.u16()
		if err != nil {
			return nil, err
		}
		list = append(list, ProgramEntry{ID: id, NameID: nameID})
	}
	return list, nil
}

// decodeOptionEntryList parses leaf 14/1571: a u16 count of entries, each
// {option ID, name ID, default, allowed-count, allowed values...}. The
// allowed-value set is a nested variable-length array.
func decodeOptionEntryList(raw []byte) (Value, error) {
	r := newPayloadReader(raw)
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	list := make(OptionEntryList, 0, count)
	for i := 0; i < int(count); i++ {
		var words [4]uint16
		for j := range words {
			w, err := r.u16()
			if err != nil {
				return nil, err
			}
			words[j] = w
		}
		entry := OptionEntry{ID: words[0], NameID: words[1], Default: words[2]}
		allowedCount := int(words[3])
		if allowedCount*2 > r.remaining() {
			return nil, fmt.Errorf("%w: option %d claims %d allowed values, %d bytes left",
				ErrInvalidStructure, entry.ID, allowedCount, r.remaining())
		}
		for j := 0; j < allowedCount; j++ {
			v, err := r.u16()
			if err != nil {
				return nil, err
			}
			entry.Allowed = append(entry.Allowed, v)
		}
		list = append(list, entry)
	}
	return list, nil
}

// decodeStringTable parses leaf 14/2570: a u16 count of entries, each
// {string ID, u8 length, UTF-8 bytes}.
func decodeStringTable(raw []byte) (Value, error) {
	r := newPayloadReader(raw)
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	table := make(StringTable, count)
	for i := 0; i < int(count); i++ {
		id, err := r.u16()
		if err != nil {
			return nil, err
		}
		length, err := r.u8()
		if err != nil {
			return nil, err
		}
		text, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		table[id] = string(text)
	}
	return table, nil
}
