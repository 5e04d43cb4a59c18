package kernel

import (
	"testing"

	hclog "github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"

	"github.com/vanir-os/vanir/abi"
	"github.com/vanir-os/vanir/arch/armm"
)

const (
	tUAreaEnd    = 0x20000400
	tUserDataEnd = 0x20020000
	tFrameAddr   = 0x20007000
	tPC          = 0x20008002 // svc at tPC - 2
	tSP          = 0x20010000
	tDataBase    = 0x20009000
	tDataSize    = 0x1000
)

type fakeMem struct {
	words map[uint32]uint32
	valid func(addr uint32) bool
}

func (f *fakeMem) ReadWord(addr uint32) uint32 {
	return f.words[addr]
}

func (f *fakeMem) Valid(addr uint32) bool {
	if f.valid != nil {
		return f.valid(addr)
	}
	return true
}

type hookRec struct {
	posted []abi.Signal
	resume []uint32
	systs  []uint64
	led    []bool
	halted string
	intr   int
}

func (r *hookRec) hooks() Hooks {
	return Hooks{
		Post:    func(p *Proc, sig abi.Signal) { r.posted = append(r.posted, sig) },
		UserRet: func(p *Proc, pc uint32, syst uint64) { r.resume = append(r.resume, pc); r.systs = append(r.systs, syst) },
		Halt:    func(msg string) { r.halted = msg; panic("halted") },
		LED:     func(on bool) { r.led = append(r.led, on) },
		EnableIntr: func() {
			r.intr++
		},
	}
}

// svcWord stages an svc #code encoding at the trap instruction address.
func svcWord(mem *fakeMem, code uint8) {
	mem.words[tPC-armm.InsnSize] = 0xdf00 | uint32(code)
}

func newFrame() *armm.TrapFrame {
	return &armm.TrapFrame{
		R0: 10, R1: 11, R2: 12, R3: 13,
		SP: tSP, LR: 0x20008001, PC: tPC, PSR: 0,
	}
}

func newProc() *Proc {
	return &Proc{
		Pid:      7,
		DataBase: tDataBase,
		DataSize: tDataSize,
		UAreaEnd: tUAreaEnd,
	}
}

func TestSyscall(t *testing.T) {
	n := neko.Modern(t)

	l := hclog.NewNullLogger()

	newKernel := func(table *SyscallTable, mem *fakeMem, rec *hookRec) *Kernel {
		return NewKernel(l, table, mem, rec.hooks(), tUserDataEnd)
	}

	n.It("returns a value with the carry flag cleared on success", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.Error = abi.EINVAL }},
			{NArg: 3, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.RVal = 7 }},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 1)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		frame := newFrame()
		frame.PSR = armm.PSRCarry // stale error flag from a prior call

		k.Syscall(p, frame, tFrameAddr)

		require.Equal(t, uint32(7), frame.R0)
		require.Zero(t, frame.PSR&armm.PSRCarry)
		require.Equal(t, [6]uint32{10, 11, 12, 13, 0, 0}, p.Args)
		require.Equal(t, uint32(tPC), frame.PC)
	})

	n.It("returns the error code with the carry flag set on failure", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.Error = abi.EINVAL }},
			{NArg: 1, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.Error = abi.EBADF }},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 1)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		frame := newFrame()

		k.Syscall(p, frame, tFrameAddr)

		require.Equal(t, uint32(abi.EBADF), frame.R0)
		require.NotZero(t, frame.PSR&armm.PSRCarry)
		require.Equal(t, uint32(tPC), frame.PC)
	})

	n.It("rewinds the return address on restart and touches nothing else", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.Error = abi.EINVAL }},
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.Error = abi.ERESTART }},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 1)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		frame := newFrame()
		before := *frame

		k.Syscall(p, frame, tFrameAddr)

		require.Equal(t, before.PC-armm.InsnSize, frame.PC)
		require.Equal(t, before.R0, frame.R0)
		require.Equal(t, before.PSR, frame.PSR)

		// The user-return hook sees the rewound address.
		require.Equal(t, []uint32{before.PC - armm.InsnSize}, rec.resume)
	})

	n.It("leaves the frame bit-for-bit alone on a suppressed return", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.Error = abi.EINVAL }},
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) { p.Error = abi.EJUSTRETURN }},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 1)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		frame := newFrame()
		frame.PSR = armm.PSRCarry | armm.PSRStkAlign
		before := *frame

		k.Syscall(p, frame, tFrameAddr)

		require.Equal(t, before, *frame)
	})

	n.It("sends out-of-range codes to entry 0", func(t *testing.T) {
		var gotNosys bool

		table := NewSyscallTable([]Sysent{
			{NArg: 2, Call: func(l hclog.Logger, k *Kernel, p *Proc) { gotNosys = true; p.RVal = 99 }},
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {}},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 200)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		frame := newFrame()

		k.Syscall(p, frame, tFrameAddr)

		require.True(t, gotNosys)
		require.Equal(t, uint32(99), frame.R0)

		// Entry 0's argument count applies too.
		require.Equal(t, uint32(10), p.Args[0])
		require.Equal(t, uint32(11), p.Args[1])
	})

	n.It("halts when the frame lands inside the u-area, not at its edge", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {}},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 0)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		// First address past the block is fine.
		k.Syscall(newProc(), newFrame(), tUAreaEnd)
		require.Empty(t, rec.halted)

		// One word below it is fatal.
		require.Panics(t, func() {
			k.Syscall(newProc(), newFrame(), tUAreaEnd-4)
		})
		require.Equal(t, "kernel stack overflow", rec.halted)
	})

	n.It("faults the process when its stack pointer is under the data segment", func(t *testing.T) {
		var invoked bool

		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) { invoked = true }},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 0)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		// Exactly at the data segment end is accepted.
		p := newProc()
		frame := newFrame()
		frame.SP = p.DataEnd()
		k.Syscall(p, frame, tFrameAddr)
		require.True(t, invoked)
		require.Empty(t, rec.posted)

		// One word below it is a process fault; no dispatch happens but
		// the return bookkeeping still runs.
		invoked = false
		p = newProc()
		frame = newFrame()
		frame.SP = p.DataEnd() - 4
		k.Syscall(p, frame, tFrameAddr)

		require.False(t, invoked)
		require.Equal(t, []abi.Signal{abi.SIGSEGV}, rec.posted)
		require.Equal(t, []uint32{tPC, tPC}, rec.resume)

		sig, ok := p.TakeSignal()
		require.True(t, ok)
		require.Equal(t, abi.SIGSEGV, sig)
	})

	n.It("grows the recorded stack monotonically", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {}},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 0)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()

		deep := newFrame()
		deep.SP = tSP - 0x800
		k.Syscall(p, deep, tFrameAddr)

		require.Equal(t, uint32(tUserDataEnd-(tSP-0x800)), p.StackSize)
		require.Equal(t, uint32(tSP-0x800), p.StackBase)

		// A shallower trap never shrinks the accounting.
		shallow := newFrame()
		k.Syscall(p, shallow, tFrameAddr)

		require.Equal(t, uint32(tUserDataEnd-(tSP-0x800)), p.StackSize)
		require.Equal(t, uint32(tSP-0x800), p.StackBase)
	})

	n.It("reads the fifth and sixth arguments from the user stack", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {}},
			{NArg: 6, Call: func(l hclog.Logger, k *Kernel, p *Proc) {}},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 1)
		mem.words[tSP+32] = 0x55
		mem.words[tSP+36] = 0x66
		mem.words[tSP+40] = 0x77

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		k.Syscall(p, newFrame(), tFrameAddr)

		require.Equal(t, uint32(0x55), p.Args[4])
		require.Equal(t, uint32(0x66), p.Args[5])

		// With the alignment-padding bit set the reads shift up a word.
		p = newProc()
		frame := newFrame()
		frame.PSR = armm.PSRStkAlign
		k.Syscall(p, frame, tFrameAddr)

		require.Equal(t, uint32(0x66), p.Args[4])
		require.Equal(t, uint32(0x77), p.Args[5])
	})

	n.It("keeps a stale argument when its stack address fails validation", func(t *testing.T) {
		var got [6]uint32

		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {}},
			{NArg: 6, Call: func(l hclog.Logger, k *Kernel, p *Proc) { got = p.Args }},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 1)
		mem.words[tSP+36] = 0x66
		mem.valid = func(addr uint32) bool { return addr != tSP+32 }

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		p.Args[4] = 0xdeadbeef // leftover from an earlier call

		k.Syscall(p, newFrame(), tFrameAddr)

		// Dispatch still happened, the slot kept its stale value.
		require.Equal(t, uint32(0xdeadbeef), got[4])
		require.Equal(t, uint32(0x66), got[5])
	})

	n.It("lands just past invocation when a handler is aborted", func(t *testing.T) {
		var after bool

		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {}},
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {
				p.Abort(abi.EINTR)
				after = true
			}},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 1)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		frame := newFrame()
		k.Syscall(p, frame, tFrameAddr)

		require.False(t, after)
		require.Equal(t, uint32(abi.EINTR), frame.R0)
		require.NotZero(t, frame.PSR&armm.PSRCarry)
	})

	n.It("meters traps and snapshots system time for the return hook", func(t *testing.T) {
		table := NewSyscallTable([]Sysent{
			{NArg: 0, Call: func(l hclog.Logger, k *Kernel, p *Proc) {
				// Time accrued during the call is not what userret gets.
				p.Rusage.SysTime += 5
			}},
		})

		mem := &fakeMem{words: map[uint32]uint32{}}
		svcWord(mem, 0)

		var rec hookRec
		k := newKernel(table, mem, &rec)

		p := newProc()
		p.Rusage.SysTime = 42

		k.Syscall(p, newFrame(), tFrameAddr)

		require.Equal(t, uint64(1), k.Stats.Traps)
		require.Equal(t, uint64(1), k.Stats.Syscalls)
		require.Equal(t, []uint64{42}, rec.systs)
		require.Equal(t, 1, rec.intr)

		// Indicator bracketed the dispatch.
		require.Equal(t, []bool{true, false}, rec.led)
	})

	n.Meow()
}
