package kernel

import hclog "github.com/hashicorp/go-hclog"

// Code is a decoded syscall code: the low 8 bits of the trapping svc
// instruction's encoding.
type Code uint8

// SyscallFn implements one system call. Handlers read their decoded
// arguments from the Proc and report through Error and RVal; they may be
// abandoned at any point via the Proc's checkpoint.
type SyscallFn func(l hclog.Logger, k *Kernel, p *Proc)

// Sysent is one syscall table entry.
type Sysent struct {
	// NArg is the declared argument count; only the first NArg slots of
	// Proc.Args are decoded.
	NArg int

	Call SyscallFn
}

// SyscallTable maps syscall codes to entries. Entry 0 doubles as the
// fallback: any code past the end of the table resolves to it. That is
// documented behavior, not a bounds violation.
type SyscallTable struct {
	entries []Sysent
}

// NewSyscallTable builds a table from entries. Entry 0 must be present;
// it is the out-of-range fallback.
func NewSyscallTable(entries []Sysent) *SyscallTable {
	if len(entries) == 0 {
		panic("kernel: empty syscall table")
	}
	return &SyscallTable{entries: entries}
}

func (t *SyscallTable) Len() int {
	return len(t.entries)
}

// Lookup returns the entry for code, or entry 0 when code is out of
// range.
func (t *SyscallTable) Lookup(code Code) *Sysent {
	if int(code) < len(t.entries) {
		return &t.entries[code]
	}
	return &t.entries[0]
}
