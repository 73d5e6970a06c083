package api

import "strconv"

// Status is the appliance status code reported in the State document.
type Status int

const (
	StatusNoUse             Status = 0
	StatusOff               Status = 1
	StatusOn                Status = 2
	StatusProgrammed        Status = 3
	StatusWaitingToStart    Status = 4
	StatusRunning           Status = 5
	StatusPaused            Status = 6
	StatusEndedSuccessfully Status = 7
	StatusFailure           Status = 8
	StatusAbort             Status = 9
	StatusIdle              Status = 10
	StatusRinse             Status = 11
	StatusService           Status = 12
)

var statusNames = map[Status]string{
	StatusNoUse:             "NoUse",
	StatusOff:               "Off",
	StatusOn:                "On",
	StatusProgrammed:        "Programmed",
	StatusWaitingToStart:    "WaitingToStart",
	StatusRunning:           "Running",
	StatusPaused:            "Paused",
	StatusEndedSuccessfully: "EndedSuccessfully",
	StatusFailure:           "Failure",
	StatusAbort:             "Abort",
	StatusIdle:              "Idle",
	StatusRinse:             "Rinse",
	StatusService:           "Service",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Status(" + strconv.Itoa(int(s)) + ")"
}

// Active reports whether the appliance is doing something a client would
// want to watch (running, paused or waiting for a delayed start).
func (s Status) Active() bool {
	switch s {
	case StatusWaitingToStart, StatusRunning, StatusPaused, StatusRinse:
		return true
	}
	return false
}

// ProgramPhase is the phase code within a running program. Codes are
// banded per appliance family; 256 and up belong to washing machines.
type ProgramPhase int

const (
	PhaseNotUsed                ProgramPhase = 0
	PhaseProgress               ProgramPhase = 1
	PhaseWashingMachineIdle     ProgramPhase = 256
	PhaseWashingMachinePreWash  ProgramPhase = 257
	PhaseWashingMachineSoak     ProgramPhase = 258
	PhaseWashingMachineWashing  ProgramPhase = 260
	PhaseWashingMachineRinse    ProgramPhase = 261
	PhaseWashingMachineFinished ProgramPhase = 268
)

var phaseNames = map[ProgramPhase]string{
	PhaseNotUsed:                "NotUsed",
	PhaseProgress:               "Progress",
	PhaseWashingMachineIdle:     "Idle",
	PhaseWashingMachinePreWash:  "PreWash",
	PhaseWashingMachineSoak:     "Soak",
	PhaseWashingMachineWashing:  "Washing",
	PhaseWashingMachineRinse:    "Rinse",
	PhaseWashingMachineFinished: "Finished",
}

func (p ProgramPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "ProgramPhase(" + strconv.Itoa(int(p)) + ")"
}

// DeviceType is the appliance family code from the Ident document.
type DeviceType int

const (
	DeviceNoUse          DeviceType = 0
	DeviceWashingMachine DeviceType = 1
	DeviceTumbleDryer    DeviceType = 2
	DeviceDishwasher     DeviceType = 7
	DeviceOven           DeviceType = 12
)

var deviceTypeNames = map[DeviceType]string{
	DeviceNoUse:          "NoUse",
	DeviceWashingMachine: "WashingMachine",
	DeviceTumbleDryer:    "TumbleDryer",
	DeviceDishwasher:     "Dishwasher",
	DeviceOven:           "Oven",
}

func (d DeviceType) String() string {
	if name, ok := deviceTypeNames[d]; ok {
		return name
	}
	return "DeviceType(" + strconv.Itoa(int(d)) + ")"
}
