package proc

// needsFW is the authoritative set of instruction kinds requiring exclusive
// firmware access (movement, pin I/O, calibration, sequence invocation, and
// others per the external interface contract).
var needsFW = kindSet(
	"config_update",
	"_if",
	"write_pin",
	"read_pin",
	"move_absolute",
	"set_servo_angle",
	"move_relative",
	"home",
	"find_home",
	"toggle_pin",
	"zero",
	"calibrate",
	"sequence",
	"rpc_request",
)

// allowedWhenLocked is the authoritative set of instruction kinds that may
// execute while the system is emergency-locked.
var allowedWhenLocked = kindSet(
	"check_updates",
	"config_update",
	"uninstall_farmware",
	"update_farmware",
	"rpc_request",
	"rpc_ok",
	"rpc_error",
	"install",
	"read_status",
	"sync",
	"power_off",
	"reboot",
	"factory_reset",
	"set_user_env",
	"install_first_party_farmware",
	"change_ownership",
	"dump_info",
	"_if",
	"send_message",
	"sequence",
	"wait",
	"execute",
	"execute_script",
	"emergency_lock",
	"emergency_unlock",
)

func kindSet(kinds ...string) map[InstructionKind]struct{} {
	m := make(map[InstructionKind]struct{}, len(kinds))
	for _, k := range kinds {
		m[InstructionKind(k)] = struct{}{}
	}
	return m
}

// NeedsFirmware reports whether kind requires exclusive firmware access.
func NeedsFirmware(kind InstructionKind) bool {
	_, ok := needsFW[kind]
	return ok
}

// AllowedWhenLocked reports whether kind may execute during emergency-lock.
func AllowedWhenLocked(kind InstructionKind) bool {
	_, ok := allowedWhenLocked[kind]
	return ok
}

// Well-known instruction kinds referenced directly by the core (the
// remainder are opaque tags only ever compared against the two sets above).
const (
	KindRPCRequest      InstructionKind = "rpc_request"
	KindEmergencyLock   InstructionKind = "emergency_lock"
	KindEmergencyUnlock InstructionKind = "emergency_unlock"
	KindSequence        InstructionKind = "sequence"
)
