package integration

import (
	"bytes"
	"context"
	"testing"

	"github.com/smarthut/mielelocal/pkg/api"
	"github.com/smarthut/mielelocal/pkg/crypto"
	"github.com/smarthut/mielelocal/pkg/dop2"
	"github.com/smarthut/mielelocal/pkg/generation"
	"github.com/smarthut/mielelocal/pkg/transport"
)

const deviceID = "000123456789"

func newStack(t *testing.T) (*fakeAppliance, *transport.Client) {
	t.Helper()
	creds, err := crypto.GenerateCredentials()
	if err != nil {
		t.Fatalf("GenerateCredentials: %v", err)
	}
	appliance := newFakeAppliance(t, creds)

	tp, err := transport.NewClient(transport.Config{
		Host:        appliance.host(),
		Credentials: creds,
		HTTPClient:  appliance.server.Client(),
	})
	if err != nil {
		t.Fatalf("transport.NewClient: %v", err)
	}
	return appliance, tp
}

func TestE2E_DeviceDocuments(t *testing.T) {
	appliance, tp := newStack(t)
	appliance.setDocument("/Devices/"+deviceID+"/Ident", []byte(`{
		"DeviceName": "Basement washer",
		"Type": {"value_raw": 1, "value_localized": "Washing machine"},
		"DeviceIdentLabel": {"FabNumber": "000123456789", "TechType": "WMV960"}
	}`))
	appliance.setDocument("/Devices/"+deviceID+"/State", []byte(`{
		"status": {"value_raw": 5, "value_localized": "Running"},
		"ProgramID": 1,
		"programPhase": {"value_raw": 260, "value_localized": "Main wash"},
		"remainingTime": 42,
		"elapsedTime": 10
	}`))

	client, err := api.NewClient(api.Config{Transport: tp})
	if err != nil {
		t.Fatalf("api.NewClient: %v", err)
	}

	ident, err := client.GetDeviceIdent(context.Background(), deviceID)
	if err != nil {
		t.Fatalf("GetDeviceIdent: %v", err)
	}
	if ident.Type != api.DeviceWashingMachine || ident.TechType != "WMV960" {
		t.Errorf("unexpected ident %+v", ident)
	}

	state, err := client.GetDeviceState(context.Background(), deviceID)
	if err != nil {
		t.Fatalf("GetDeviceState: %v", err)
	}
	if state.Status != api.StatusRunning || state.RemainingTime != 42 {
		t.Errorf("unexpected state %+v", state)
	}
	if state.ProgramPhase != api.PhaseWashingMachineWashing {
		t.Errorf("phase = %v", state.ProgramPhase)
	}
}

func TestE2E_GenerationAndSettings(t *testing.T) {
	appliance, tp := newStack(t)

	statePath := dop2.LeafCombinedState.Path(deviceID)
	appliance.setLeaf(statePath, u16be(5, 1, 260))

	settingPath := dop2.LeafSettingValue.WithIndex(7, 0).Path(deviceID)
	appliance.setLeaf(settingPath, u16be(7, 20, 0, 90, 40))

	client, err := dop2.NewClient(dop2.Config{Transport: tp})
	if err != nil {
		t.Fatalf("dop2.NewClient: %v", err)
	}

	if gen := client.DetectGeneration(context.Background(), deviceID); gen != generation.Current {
		t.Fatalf("generation = %v, want Current", gen)
	}

	setting, err := client.GetSetting(context.Background(), deviceID, 7)
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if setting.Current != 20 || setting.Max != 90 {
		t.Errorf("setting = %+v", setting)
	}

	if err := client.SetSetting(context.Background(), deviceID, 7, 60); err != nil {
		t.Fatalf("SetSetting: %v", err)
	}
	if got := appliance.lastWrite(settingPath); !bytes.Equal(got, u16be(7, 60)) {
		t.Errorf("written payload = %x, want %x", got, u16be(7, 60))
	}

	if err := client.SetSetting(context.Background(), deviceID, 7, 95); err == nil {
		t.Error("out-of-range write must fail")
	}
}

func TestE2E_ProgramCatalog(t *testing.T) {
	appliance, tp := newStack(t)

	appliance.setLeaf(dop2.LeafProgramList.Path(deviceID), u16be(2, 1, 4))
	appliance.setLeaf(dop2.LeafSettingValue.WithIndex(1, 0).Path(deviceID),
		u16be(1, 40, 0, 90, 40))
	appliance.setLeaf(dop2.LeafSettingValue.WithIndex(4, 0).Path(deviceID),
		u16be(4, 30, 0, 40, 30))

	client, err := dop2.NewClient(dop2.Config{Transport: tp})
	if err != nil {
		t.Fatalf("dop2.NewClient: %v", err)
	}

	catalog, err := client.ProgramCatalog(context.Background(), deviceID)
	if err != nil {
		t.Fatalf("ProgramCatalog: %v", err)
	}
	if len(catalog.Programs) != 2 {
		t.Fatalf("got %d programs, want 2", len(catalog.Programs))
	}
	if catalog.Programs[0].ID != 1 || catalog.Programs[1].ID != 4 {
		t.Errorf("program IDs = %d, %d", catalog.Programs[0].ID, catalog.Programs[1].ID)
	}
}
