package armm

import "github.com/pkg/errors"

// StackMemory is word-granular access to the RAM both stacks live in.
type StackMemory interface {
	ReadWord(addr uint32) (uint32, error)
	WriteWord(addr uint32, v uint32) error
}

// RegisterBank saves and restores the callee-saved registers (r4-r11)
// the hardware does not stack on exception entry.
type RegisterBank interface {
	SaveHigh() [8]uint32
	RestoreHigh([8]uint32)
}

// Dispatcher receives the kernel-side copy of the trap frame together
// with the kernel-stack address the copy lives at. It may re-enable
// interrupts and may mutate the frame; the trampoline writes whatever is
// in the frame back out.
type Dispatcher interface {
	Syscall(frame *TrapFrame, frameAddr uint32)
}

// Trampoline moves a trap frame from the hardware exception stack into a
// kernel-addressable copy, runs the dispatcher, and moves the possibly
// modified copy back. It is the transfer-exception (PendSV) vector body.
type Trampoline struct {
	Mem  StackMemory
	Regs RegisterBank
	IC   IntrControl
	Disp Dispatcher
}

// Exception handles one transfer exception. psp is the process stack
// pointer holding the hardware-saved frame, msp the kernel stack pointer
// on entry. It returns the process stack pointer the hardware should
// resume on.
//
// The two raw copy windows run with interrupts fully masked: letting
// another trap in mid-copy would interleave two frames. The dispatcher
// call between them is the only place interrupts may come back on, and
// that is the dispatcher's decision, not ours.
func (t *Trampoline) Exception(psp, msp uint32) (uint32, error) {
	t.IC.Disable()

	// Stack r4-r11 on the kernel stack, as the asm entry does.
	high := t.Regs.SaveHigh()
	msp -= 32
	for i, v := range high {
		if err := t.Mem.WriteWord(msp+4*uint32(i), v); err != nil {
			return 0, errors.Wrap(err, "stacking high registers")
		}
	}

	// Copy the hardware-saved frame from the process stack onto the
	// kernel stack, substituting the PSP value into the ip slot.
	var w [FrameWords]uint32
	for i := range w {
		v, err := t.Mem.ReadWord(psp + 4*uint32(i))
		if err != nil {
			return 0, errors.Wrap(err, "capturing trap frame")
		}
		w[i] = v
	}
	w[4] = psp

	frame := frameFromWords(w)
	msp -= HWFrameSize
	frameAddr := msp
	for i, v := range frame.words() {
		if err := t.Mem.WriteWord(frameAddr+4*uint32(i), v); err != nil {
			return 0, errors.Wrap(err, "stacking trap frame")
		}
	}

	t.Disp.Syscall(&frame, frameAddr)

	// The dispatcher may have rewound PC, rewritten R0/PSR, or pointed
	// SP at a completely different frame (signal return). Whatever it
	// left is what the hardware unstacks.
	t.IC.Disable()

	retPSP := frame.SP
	for i, v := range frame.words() {
		if err := t.Mem.WriteWord(retPSP+4*uint32(i), v); err != nil {
			return 0, errors.Wrap(err, "restoring trap frame")
		}
	}

	for i := range high {
		v, err := t.Mem.ReadWord(msp + HWFrameSize + 4*uint32(i))
		if err != nil {
			return 0, errors.Wrap(err, "unstacking high registers")
		}
		high[i] = v
	}
	t.Regs.RestoreHigh(high)

	t.IC.Enable()

	return retPSP, nil
}
