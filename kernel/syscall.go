package kernel

import (
	"github.com/vanir-os/vanir/abi"
	"github.com/vanir-os/vanir/arch/armm"
)

// Syscall handles one supervisor-call trap against p. frame is the
// kernel-side copy of the trap frame and frameAddr the kernel-stack
// address it was stacked at. On return the frame is ready for the
// trampoline's restore phase.
func (k *Kernel) Syscall(p *Proc, frame *armm.TrapFrame, frameAddr uint32) {
	syst := p.Rusage.SysTime

	// The frame landing inside the fixed per-process state block means
	// the kernel stack has been exhausted. Nothing below here can be
	// trusted; stop the machine.
	if frameAddr < p.UAreaEnd {
		k.halt("kernel stack overflow")
		// NOTREACHED
	}

	k.Stats.Traps++
	k.Stats.Syscalls++

	// The frame is safely on the kernel stack now; long syscall bodies
	// must not hold off timers and devices.
	k.Hooks.EnableIntr()

	p.Error = 0
	p.Frame = frame
	p.Code = frame.PC - armm.InsnSize

	k.Hooks.LED(true)

	sp := frame.SP
	if sp < p.DataEnd() {
		// Process has trashed its own stack; give it a segmentation
		// violation to halt it in its tracks.
		k.PostSignal(p, abi.SIGSEGV)
	} else {
		if p.StackSize < k.UserDataEnd-sp {
			// New stack high-water mark. Accounting only; no memory
			// moves here.
			p.StackSize = k.UserDataEnd - sp
			p.StackBase = sp
		}

		k.dispatch(p, frame)
	}

	k.Hooks.UserRet(p, frame.PC, syst)

	k.Hooks.LED(false)
}

// dispatch decodes the syscall code and arguments, invokes the handler
// under a checkpoint, and encodes the outcome into the frame.
func (k *Kernel) dispatch(p *Proc, frame *armm.TrapFrame) {
	// Bottom 8 bits of the svc instruction are the syscall code.
	code := Code(k.Mem.ReadWord(p.Code) & 0xff)
	ent := k.Table.Lookup(code)

	k.L.Trace("syscall", "pid", p.Pid, "code", code, "narg", ent.NArg,
		"pc", frame.PC, "sp", frame.SP)

	if ent.NArg > 0 {
		// AAPCS: first four arguments arrive in r0-r3, straight off the
		// frame.
		p.Args[0] = frame.R0
		p.Args[1] = frame.R1
		p.Args[2] = frame.R2
		p.Args[3] = frame.R3

		// The rest were pushed on the user stack above the hardware
		// frame. Each read is gated on the validity predicate; a failed
		// check leaves the slot at its previous value. That retention is
		// long-standing observed behavior, kept as is.
		if ent.NArg > 4 {
			if addr := frame.StackArg(4); k.Mem.Valid(addr) {
				p.Args[4] = k.Mem.ReadWord(addr)
			}
		}
		if ent.NArg > 5 {
			if addr := frame.StackArg(5); k.Mem.Valid(addr) {
				p.Args[5] = k.Mem.ReadWord(addr)
			}
		}
	}

	p.RVal = 0

	k.invoke(p, ent)

	switch p.Error {
	case 0:
		frame.PSR &^= armm.PSRCarry
		frame.R0 = p.RVal
	case abi.ERESTART:
		// Re-execute the svc itself on resume.
		frame.PC -= armm.InsnSize
	case abi.EJUSTRETURN:
		// Frame was fully prepared elsewhere (signal handler return);
		// leave every bit alone.
	default:
		frame.PSR |= armm.PSRCarry
		frame.R0 = uint32(p.Error)
	}
}
