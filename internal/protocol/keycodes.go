package protocol

// Motion event actions (android.view.MotionEvent / KeyEvent).
const (
	ActionDown uint8 = 0
	ActionUp   uint8 = 1
	ActionMove uint8 = 2
)

// Screen orientation lock modes passed to the server.
const (
	LockOrientationUnlocked = -1
	LockOrientationInitial  = -2
	LockOrientation0        = 0
	LockOrientation1        = 1
	LockOrientation2        = 2
	LockOrientation3        = 3
)

// Screen power modes for SetScreenPowerMode.
const (
	PowerModeOff    uint8 = 0
	PowerModeNormal uint8 = 2
)

// Android keycodes. Opaque integers as far as this client is concerned; the
// server hands them straight to the input subsystem. Only the commonly
// injected ones are named here, any other android.view.KeyEvent value works.
const (
	KeycodeUnknown    uint32 = 0
	KeycodeHome       uint32 = 3
	KeycodeBack       uint32 = 4
	Keycode0          uint32 = 7
	Keycode9          uint32 = 16
	KeycodeDpadUp     uint32 = 19
	KeycodeDpadDown   uint32 = 20
	KeycodeDpadLeft   uint32 = 21
	KeycodeDpadRight  uint32 = 22
	KeycodeDpadCenter uint32 = 23
	KeycodeVolumeUp   uint32 = 24
	KeycodeVolumeDown uint32 = 25
	KeycodePower      uint32 = 26
	KeycodeCamera     uint32 = 27
	KeycodeA          uint32 = 29
	KeycodeZ          uint32 = 54
	KeycodeTab        uint32 = 61
	KeycodeSpace      uint32 = 62
	KeycodeEnter      uint32 = 66
	KeycodeDel        uint32 = 67
	KeycodeMenu       uint32 = 82
	KeycodeEscape     uint32 = 111
	KeycodeForwardDel uint32 = 112
	KeycodeMoveHome   uint32 = 122
	KeycodeMoveEnd    uint32 = 123
	KeycodeAppSwitch  uint32 = 187
	KeycodeSleep      uint32 = 223
	KeycodeWakeup     uint32 = 224
	KeycodeCut        uint32 = 277
	KeycodeCopy       uint32 = 278
	KeycodePaste      uint32 = 279
)
