package api

import (
	"context"
	"errors"
	"testing"
)

type fakeTransport struct {
	responses map[string][]byte
	gets      []string
}

func (f *fakeTransport) Get(_ context.Context, resource string) ([]byte, error) {
	f.gets = append(f.gets, resource)
	if body, ok := f.responses[resource]; ok {
		return body, nil
	}
	return nil, errors.New("unexpected resource " + resource)
}

const identJSON = `{
	"DeviceName": "Cellar washer",
	"Type": {"value_raw": 1, "value_localized": "Washing machine"},
	"DeviceIdentLabel": {"FabNumber": "000123456789", "TechType": "WMV960"}
}`

const stateJSON = `{
	"status": {"value_raw": 5, "value_localized": "Running"},
	"ProgramID": 1,
	"programType": {"value_raw": 1, "value_localized": "Own program"},
	"programPhase": {"value_raw": 260, "value_localized": "Main wash"},
	"remainingTime": 49,
	"startTime": 0,
	"elapsedTime": 23,
	"targetTemperature": [{"value_raw": 6000}]
}`

func newTestClient(t *testing.T, tp Transport) *Client {
	t.Helper()
	client, err := NewClient(Config{Transport: tp})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGetDeviceIdent(t *testing.T) {
	tp := &fakeTransport{responses: map[string][]byte{
		"/Devices/000123456789/Ident": []byte(identJSON),
	}}

	ident, err := newTestClient(t, tp).GetDeviceIdent(context.Background(), "000123456789")
	if err != nil {
		t.Fatalf("GetDeviceIdent: %v", err)
	}
	if ident.DeviceName != "Cellar washer" {
		t.Errorf("DeviceName = %q", ident.DeviceName)
	}
	if ident.Type != DeviceWashingMachine {
		t.Errorf("Type = %v, want WashingMachine", ident.Type)
	}
	if ident.TypeName != "Washing machine" {
		t.Errorf("TypeName = %q", ident.TypeName)
	}
	if ident.FabNumber != "000123456789" || ident.TechType != "WMV960" {
		t.Errorf("label = %q / %q", ident.FabNumber, ident.TechType)
	}
}

func TestGetDeviceState(t *testing.T) {
	tp := &fakeTransport{responses: map[string][]byte{
		"/Devices/000123456789/State": []byte(stateJSON),
	}}

	state, err := newTestClient(t, tp).GetDeviceState(context.Background(), "000123456789")
	if err != nil {
		t.Fatalf("GetDeviceState: %v", err)
	}
	if state.Status != StatusRunning || state.StatusName != "Running" {
		t.Errorf("status = %v / %q", state.Status, state.StatusName)
	}
	if !state.Status.Active() {
		t.Error("Running status should be active")
	}
	if state.ProgramID != 1 {
		t.Errorf("ProgramID = %d", state.ProgramID)
	}
	if state.ProgramPhase != PhaseWashingMachineWashing {
		t.Errorf("ProgramPhase = %v", state.ProgramPhase)
	}
	if state.RemainingTime != 49 || state.ElapsedTime != 23 {
		t.Errorf("times = %d / %d", state.RemainingTime, state.ElapsedTime)
	}
	if _, ok := state.Raw["targetTemperature"]; !ok {
		t.Error("model-specific field missing from Raw")
	}
}

func TestGetDeviceStateEscapesID(t *testing.T) {
	tp := &fakeTransport{responses: map[string][]byte{
		"/Devices/dev%2F1/State": []byte(stateJSON),
	}}
	if _, err := newTestClient(t, tp).GetDeviceState(context.Background(), "dev/1"); err != nil {
		t.Fatalf("GetDeviceState: %v", err)
	}
}

func TestListDevices(t *testing.T) {
	listing := `{
		"000123456789": {"Ident": ` + identJSON + `, "State": ` + stateJSON + `},
		"000987654321": {"Ident": {"DeviceName": "", "Type": {"value_raw": 7, "value_localized": "Dishwasher"}, "DeviceIdentLabel": {"FabNumber": "000987654321", "TechType": "G7100"}}, "State": {"status": {"value_raw": 1, "value_localized": "Off"}}}
	}`
	tp := &fakeTransport{responses: map[string][]byte{
		"/Devices/": []byte(listing),
	}}

	devices, err := newTestClient(t, tp).ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}

	washer := devices["000123456789"]
	if washer.Name() != "Cellar washer" {
		t.Errorf("washer name = %q", washer.Name())
	}
	if washer.State.Status != StatusRunning {
		t.Errorf("washer status = %v", washer.State.Status)
	}

	dishwasher := devices["000987654321"]
	if dishwasher.Name() != "G7100" {
		t.Errorf("unnamed device should fall back to tech type, got %q", dishwasher.Name())
	}
	if dishwasher.Ident.Type != DeviceDishwasher {
		t.Errorf("dishwasher type = %v", dishwasher.Ident.Type)
	}
	if dishwasher.State.Status != StatusOff {
		t.Errorf("dishwasher status = %v", dishwasher.State.Status)
	}
}

func TestListDevicesMalformed(t *testing.T) {
	tp := &fakeTransport{responses: map[string][]byte{
		"/Devices/": []byte("not json"),
	}}
	if _, err := newTestClient(t, tp).ListDevices(context.Background()); !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestNewClientRequiresTransport(t *testing.T) {
	if _, err := NewClient(Config{}); !errors.Is(err, ErrNoTransport) {
		t.Errorf("expected ErrNoTransport, got %v", err)
	}
}
