package kernel

import (
	"github.com/vanir-os/vanir/abi"
	"github.com/vanir-os/vanir/arch/armm"
)

// Rusage accumulates per-process resource usage. Only the system-time
// counter matters to this core: the dispatcher snapshots it at trap entry
// and hands it to the user-return hook.
type Rusage struct {
	UserTime uint64
	SysTime  uint64
}

// Proc is the kernel-side state of one process: the pieces of the
// traditional proc entry and u-area the trap path touches. Exactly one
// Proc is hot at any instant; there is one hardware thread and the
// machine decides which process trapped.
type Proc struct {
	Pid int

	// Frame points at the active trap frame for the duration of one
	// trap; between traps it is stale.
	Frame *armm.TrapFrame

	// Error and RVal carry the outcome of the in-flight syscall. Code
	// holds the address of the trapping instruction, kept so a signal
	// handler can report where the trap happened.
	Error abi.Errno
	RVal  uint32
	Args  [6]uint32
	Code  uint32

	// Stack and data segment bookkeeping, user-space addresses.
	// StackBase/StackSize track the high-water mark of observed stack
	// use; growing them is pure accounting.
	DataBase  uint32
	DataSize  uint32
	StackBase uint32
	StackSize uint32

	// UAreaEnd is the first kernel address past this proc's fixed state
	// block. A trap frame stacked below it means the kernel stack has
	// run down into process state.
	UAreaEnd uint32

	Rusage Rusage

	qsave *checkpoint

	signals Signals
}

// DataEnd is the first address past the data segment; a user SP below it
// means the process has trashed its own stack.
func (p *Proc) DataEnd() uint32 {
	return p.DataBase + p.DataSize
}
