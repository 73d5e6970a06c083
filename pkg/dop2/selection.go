package dop2

import "fmt"

// BuildProgramSelection serializes a program selection into the binary
// payload the appliance expects: the u16 program ID followed by a
// {u16 option ID, u16 value} pair for every option of the program, in
// catalog order. Options missing from chosen fall back to their catalog
// default; chosen IDs the program does not have are rejected.
func BuildProgramSelection(program Program, chosen map[uint16]uint16) ([]byte, error) {
	remaining := make(map[uint16]uint16, len(chosen))
	for id, v := range chosen {
		remaining[id] = v
	}

	payload := make([]byte, 0, 2+4*len(program.Options))
	payload = appendU16(payload, program.ID)

	for _, opt := range program.Options {
		value, ok := remaining[opt.ID]
		if ok {
			delete(remaining, opt.ID)
			if err := checkAllowed(opt, value); err != nil {
				return nil, err
			}
		} else {
			value = opt.Default
		}
		payload = appendU16(payload, opt.ID)
		payload = appendU16(payload, value)
	}

	if len(remaining) > 0 {
		for id := range remaining {
			return nil, fmt.Errorf("%w: program %d has no option %d",
				ErrShapeMismatch, program.ID, id)
		}
	}
	return payload, nil
}

// checkAllowed validates a chosen value against the option's constraints:
// an explicit allowed set when present, otherwise the [Min, Max] bounds
// when they are meaningful.
func checkAllowed(opt Option, value uint16) error {
	if len(opt.Allowed) > 0 {
		for _, v := range opt.Allowed {
			if v == value {
				return nil
			}
		}
		return fmt.Errorf("%w: %d not allowed for option %d", ErrOutOfRange, value, opt.ID)
	}
	if opt.Max > opt.Min && (value < opt.Min || value > opt.Max) {
		return fmt.Errorf("%w: %d not in [%d, %d] for option %d",
			ErrOutOfRange, value, opt.Min, opt.Max, opt.ID)
	}
	return nil
}
