package kernel

import (
	hclog "github.com/hashicorp/go-hclog"

	"github.com/vanir-os/vanir/abi"
)

// UserMemory is the kernel's view of user-addressable memory: unchecked
// word reads plus the validity predicate guarding stack-passed syscall
// arguments.
type UserMemory interface {
	// ReadWord reads the 32-bit value at addr. Reads are unchecked;
	// unmapped addresses read as zero.
	ReadWord(addr uint32) uint32

	// Valid reports whether addr lies in user-accessible memory.
	Valid(addr uint32) bool
}

// Hooks are the collaborator interfaces the dispatcher consumes. They are
// owned by the kernel proper (or the machine model under test); this core
// only calls them.
type Hooks struct {
	// Post delivers sig to p through the signal path. Policy (default
	// action, handler setup) lives behind it.
	Post func(p *Proc, sig abi.Signal)

	// UserRet runs the return-to-user bookkeeping with the resume
	// address and the system time recorded at trap entry.
	UserRet func(p *Proc, pc uint32, syst uint64)

	// Halt stops the machine with a diagnostic. It must not return.
	Halt func(msg string)

	// LED drives the kernel-activity indicator. Side channel only.
	LED func(on bool)

	// EnableIntr unmasks interrupts once the trap frame is safely on
	// the kernel stack.
	EnableIntr func()
}

// Stats are the system-wide trap metering counters.
type Stats struct {
	Traps    uint64
	Syscalls uint64
}

// Kernel is the syscall entry/dispatch core. One instance per machine.
type Kernel struct {
	L     hclog.Logger
	Table *SyscallTable
	Mem   UserMemory
	Hooks Hooks

	// UserDataEnd is the top of the user data/stack region; stack usage
	// is accounted as the distance from the user SP up to it.
	UserDataEnd uint32

	Stats Stats
}

func NewKernel(l hclog.Logger, table *SyscallTable, mem UserMemory, hooks Hooks, userDataEnd uint32) *Kernel {
	return &Kernel{
		L:           l,
		Table:       table,
		Mem:         mem,
		Hooks:       hooks,
		UserDataEnd: userDataEnd,
	}
}

func (k *Kernel) halt(msg string) {
	k.Hooks.Halt(msg)
	panic("kernel: halt hook returned")
}
