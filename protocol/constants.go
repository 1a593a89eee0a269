package protocol

// Line markers emitted by the console.
const (
	// MarkerOK prefixes a reply to a command issued on this connection.
	MarkerOK = "OK"

	// MarkerOKMulti prefixes a reply carrying several values (OKm), sent by
	// some firmwares for multi-value parameters.
	MarkerOKMulti = "OKm"

	// MarkerError prefixes a console-side failure of the command at the head
	// of the queue: ERROR <verb> <message>
	MarkerError = "ERROR"

	// MarkerNotify prefixes an unsolicited change notification.
	MarkerNotify = "NOTIFY"
)

// Protocol delimiters
const (
	// LF terminates every line on the wire. Consoles accept and may emit a
	// preceding CR, which the reader strips.
	LF = "\n"

	// CR is tolerated before LF on inbound lines.
	CR = "\r"

	// Space separates tokens.
	Space = " "

	// Quote delimits string values that may contain spaces.
	Quote = '"'

	// Escape precedes a literal quote or backslash inside a quoted value.
	Escape = '\\'
)

// Well-known verbs. The list is not exhaustive; any verb matching the verb
// syntax can be sent, see Grammar for how replies to unknown verbs are read.
const (
	VerbGet          = "get"
	VerbSet          = "set"
	VerbSceneRecall  = "ssrecall_ex"
	VerbSceneCurrent = "sscurrent_ex"
	VerbSceneUpdate  = "ssupdate_ex"
	VerbSceneInfo    = "ssinfo_ex"
	VerbDevInfo      = "devinfo"
	VerbDevStatus    = "devstatus"
	VerbParamInfo    = "prminfo"
	VerbMeterStart   = "mtrstart"
	VerbMeterStop    = "mtrstop"
	VerbSceneMode    = "scpmode"
	VerbEvent        = "event"
)

// Protocol limits
const (
	// DefaultMaxLineLength bounds a single buffered inbound line.
	DefaultMaxLineLength = 64 * 1024

	// MaxVerbLength bounds the verb token of a command.
	MaxVerbLength = 32
)
