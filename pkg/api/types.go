package api

import "encoding/json"

// localizedValue is the {value_raw, value_localized} pair the appliance
// wraps most enum fields in.
type localizedValue struct {
	ValueRaw  int    `json:"value_raw"`
	Localized string `json:"value_localized"`
}

type identDocument struct {
	DeviceName       string         `json:"DeviceName"`
	Type             localizedValue `json:"Type"`
	DeviceIdentLabel struct {
		FabNumber string `json:"FabNumber"`
		TechType  string `json:"TechType"`
	} `json:"DeviceIdentLabel"`
}

type stateDocument struct {
	Status        localizedValue `json:"status"`
	ProgramID     int            `json:"ProgramID"`
	ProgramType   localizedValue `json:"programType"`
	ProgramPhase  localizedValue `json:"programPhase"`
	RemainingTime int            `json:"remainingTime"`
	StartTime     int            `json:"startTime"`
	ElapsedTime   int            `json:"elapsedTime"`
}

// DeviceIdent describes one appliance as reported by its Ident document.
type DeviceIdent struct {
	DeviceName string
	Type       DeviceType
	TypeName   string
	FabNumber  string
	TechType   string
}

// DeviceState is the decoded State document of one appliance. Raw keeps
// the full document so callers can reach model-specific fields.
type DeviceState struct {
	Status        Status
	StatusName    string
	ProgramID     int
	ProgramType   string
	ProgramPhase  ProgramPhase
	PhaseName     string
	RemainingTime int
	StartTime     int
	ElapsedTime   int

	Raw map[string]json.RawMessage
}

// Device pairs a device ID with its Ident and State documents.
type Device struct {
	ID    string
	Ident DeviceIdent
	State DeviceState
}

// Name returns the user-assigned device name, falling back to the
// technical type when none is set.
func (d Device) Name() string {
	if d.Ident.DeviceName != "" {
		return d.Ident.DeviceName
	}
	return d.Ident.TechType
}

func identFromDocument(doc identDocument) DeviceIdent {
	return DeviceIdent{
		DeviceName: doc.DeviceName,
		Type:       DeviceType(doc.Type.ValueRaw),
		TypeName:   doc.Type.Localized,
		FabNumber:  doc.DeviceIdentLabel.FabNumber,
		TechType:   doc.DeviceIdentLabel.TechType,
	}
}

func stateFromDocument(doc stateDocument, raw map[string]json.RawMessage) DeviceState {
	return DeviceState{
		Status:        Status(doc.Status.ValueRaw),
		StatusName:    doc.Status.Localized,
		ProgramID:     doc.ProgramID,
		ProgramType:   doc.ProgramType.Localized,
		ProgramPhase:  ProgramPhase(doc.ProgramPhase.ValueRaw),
		PhaseName:     doc.ProgramPhase.Localized,
		RemainingTime: doc.RemainingTime,
		StartTime:     doc.StartTime,
		ElapsedTime:   doc.ElapsedTime,
		Raw:           raw,
	}
}
