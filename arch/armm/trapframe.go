// Package armm is the ARMv7-M specific layer of the trap path: the trap
// frame layout, the supervisor-call entry relay and the exception-transfer
// trampoline. Everything above it works on a TrapFrame and stays
// architecture independent.
package armm

// TrapFrame is the register snapshot of the interrupted thread at the
// moment of the trap. On exception entry the hardware auto-saves r0-r3,
// ip, lr, pc and psr onto the process stack; the trampoline overwrites
// the ip slot with the process stack pointer itself, so kernel code sees
// the user SP directly and the restore path knows where to put the frame
// back.
//
// PC points one instruction past the trapping instruction; the trapping
// svc itself lives at PC - InsnSize.
type TrapFrame struct {
	R0  uint32
	R1  uint32
	R2  uint32
	R3  uint32
	SP  uint32 // ip slot on the hardware-saved frame
	LR  uint32
	PC  uint32
	PSR uint32
}

const (
	// PSRCarry is the APSR C bit. The syscall return convention uses it
	// as the error flag: set means R0 holds an error number.
	PSRCarry = 1 << 29

	// PSRStkAlign is set in the stacked PSR when exception entry pushed
	// four bytes of padding to keep the frame 8-byte aligned.
	PSRStkAlign = 1 << 9

	// InsnSize is the width of a Thumb svc instruction.
	InsnSize = 2

	// HWFrameSize is the byte size of the hardware-saved register area.
	HWFrameSize = 32

	// FrameWords is HWFrameSize in words.
	FrameWords = 8
)

// StackArg returns the user-stack address of stack-passed syscall
// argument n (n counts from zero, so the fifth argument is n == 4).
// AAPCS puts arguments past the fourth on the stack, above the
// hardware-saved frame, skipping the alignment padding word when the
// stacked PSR says the hardware inserted one.
func (f *TrapFrame) StackArg(n int) uint32 {
	var align uint32
	if f.PSR&PSRStkAlign != 0 {
		align = 4
	}
	return (f.SP + HWFrameSize + align + 4*uint32(n-4)) &^ 3
}

// words flattens the frame in hardware push order.
func (f *TrapFrame) words() [FrameWords]uint32 {
	return [FrameWords]uint32{f.R0, f.R1, f.R2, f.R3, f.SP, f.LR, f.PC, f.PSR}
}

func frameFromWords(w [FrameWords]uint32) TrapFrame {
	return TrapFrame{
		R0: w[0], R1: w[1], R2: w[2], R3: w[3],
		SP: w[4], LR: w[5], PC: w[6], PSR: w[7],
	}
}
