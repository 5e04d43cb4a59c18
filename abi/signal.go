package abi

import "fmt"

// Signal is a signal number, BSD numbering.
type Signal int

// Signals this core can raise or report against.
const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGQUIT Signal = 3
	SIGILL  Signal = 4
	SIGKILL Signal = 9
	SIGBUS  Signal = 10
	SIGSEGV Signal = 11
	SIGSYS  Signal = 12
	SIGALRM Signal = 14
	SIGTERM Signal = 15
)

func (sig Signal) String() string {
	if name, ok := signalNames[sig]; ok {
		return name
	}
	return fmt.Sprintf("{Signal %d}", int(sig))
}

var signalNames = map[Signal]string{
	SIGHUP:  "SIGHUP",
	SIGINT:  "SIGINT",
	SIGQUIT: "SIGQUIT",
	SIGILL:  "SIGILL",
	SIGKILL: "SIGKILL",
	SIGBUS:  "SIGBUS",
	SIGSEGV: "SIGSEGV",
	SIGSYS:  "SIGSYS",
	SIGALRM: "SIGALRM",
	SIGTERM: "SIGTERM",
}
