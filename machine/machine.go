// Package machine is a synthetic single-core MCU: enough of the ARMv7-M
// exception model (two stack pointers, hardware frame stacking with
// alignment padding, priority-based pending exceptions) to run the whole
// trap path on a host. It owns the notion of which process is current.
package machine

import (
	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"

	"github.com/vanir-os/vanir/abi"
	"github.com/vanir-os/vanir/arch/armm"
	"github.com/vanir-os/vanir/kernel"
)

// CPU is the register state of the one hardware thread.
type CPU struct {
	R   [13]uint32 // r0-r12
	LR  uint32
	PC  uint32
	PSR uint32
	PSP uint32 // process stack pointer
	MSP uint32 // main (kernel) stack pointer
}

// regBank exposes the callee-saved registers to the trampoline.
type regBank struct {
	cpu *CPU
}

func (b regBank) SaveHigh() [8]uint32 {
	var h [8]uint32
	copy(h[:], b.cpu.R[4:12])
	return h
}

func (b regBank) RestoreHigh(h [8]uint32) {
	copy(b.cpu.R[4:12], h[:])
}

// Config lays out the machine's memory.
type Config struct {
	L     hclog.Logger
	RAM   *RAM
	Table *kernel.SyscallTable

	// UserBase..UserDataEnd is the user-accessible range; user text
	// grows up from UserBase, the user stack down from UserDataEnd.
	UserBase    uint32
	UserDataEnd uint32

	// KernStackTop is the initial MSP. UAreaSize bytes at the bottom of
	// RAM hold the per-process kernel state block.
	KernStackTop uint32
	UAreaSize    uint32
}

type Machine struct {
	L    hclog.Logger
	RAM  *RAM
	IC   *IntrController
	CPU  CPU
	User *UserMem
	Kern *kernel.Kernel

	// Proc is the process the machine considers current; the trapping
	// process by construction.
	Proc *kernel.Proc

	// Kernel indicator and halt state, observable side channels.
	LED     bool
	Halted  bool
	HaltMsg string

	// Last values seen by the user-return and signal hooks.
	LastResume uint32
	LastSyst   uint64
	LastSignal abi.Signal

	uareaEnd uint32
	textCur  uint32
	tramp    *armm.Trampoline
}

type haltPanic string

func New(cfg Config) *Machine {
	m := &Machine{
		L:        cfg.L,
		RAM:      cfg.RAM,
		IC:       NewIntrController(),
		uareaEnd: cfg.RAM.Start + cfg.UAreaSize,
		textCur:  cfg.UserBase,
	}

	m.User = &UserMem{
		RAM:  cfg.RAM,
		Base: cfg.UserBase,
		End:  cfg.UserDataEnd,
	}

	hooks := kernel.Hooks{
		Post: func(p *kernel.Proc, sig abi.Signal) {
			m.LastSignal = sig
			m.L.Debug("signal posted", "pid", p.Pid, "signal", sig)
		},
		UserRet: func(p *kernel.Proc, pc uint32, syst uint64) {
			m.LastResume = pc
			m.LastSyst = syst
		},
		Halt: func(msg string) {
			panic(haltPanic(msg))
		},
		LED: func(on bool) {
			m.LED = on
		},
		EnableIntr: m.IC.Enable,
	}

	m.Kern = kernel.NewKernel(cfg.L, cfg.Table, m.User, hooks, cfg.UserDataEnd)

	m.tramp = &armm.Trampoline{
		Mem:  cfg.RAM,
		Regs: regBank{cpu: &m.CPU},
		IC:   m.IC,
		Disp: dispatchAdapter{m: m},
	}

	m.CPU.MSP = cfg.KernStackTop
	m.CPU.PSP = cfg.UserDataEnd

	return m
}

// dispatchAdapter binds the trampoline's architecture-independent
// dispatch call to the current process.
type dispatchAdapter struct {
	m *Machine
}

func (d dispatchAdapter) Syscall(frame *armm.TrapFrame, frameAddr uint32) {
	d.m.Kern.Syscall(d.m.Proc, frame, frameAddr)
}

// NewProc creates a process with its data segment bounds set and its
// u-area bound pointing at the machine's kernel state block.
func (m *Machine) NewProc(pid int, dataBase, dataSize uint32) *kernel.Proc {
	return &kernel.Proc{
		Pid:      pid,
		DataBase: dataBase,
		DataSize: dataSize,
		UAreaEnd: m.uareaEnd,
	}
}

// Trap performs the hardware side of an svc executing at the current PC:
// stack the 8-word frame on the process stack (padding to 8-byte
// alignment when needed), run the supervisor-call vector, then deliver
// pending exceptions until quiescent and unstack on the way out.
func (m *Machine) Trap() (err error) {
	defer func() {
		if r := recover(); r != nil {
			h, ok := r.(haltPanic)
			if !ok {
				panic(r)
			}
			m.Halted = true
			m.HaltMsg = string(h)
			err = errors.Errorf("machine halted: %s", string(h))
		}
	}()

	psr := m.CPU.PSR
	sp := m.CPU.PSP - armm.HWFrameSize
	if sp%8 != 0 {
		sp -= 4
		psr |= armm.PSRStkAlign
	}

	words := [armm.FrameWords]uint32{
		m.CPU.R[0], m.CPU.R[1], m.CPU.R[2], m.CPU.R[3],
		m.CPU.R[12], m.CPU.LR, m.CPU.PC, psr,
	}
	for i, v := range words {
		if err := m.RAM.WriteWord(sp+4*uint32(i), v); err != nil {
			return errors.Wrap(err, "stacking exception frame")
		}
	}
	m.CPU.PSP = sp

	armm.SVCall(m.IC)

	return m.drain()
}

func (m *Machine) drain() error {
	for {
		exc, ok := m.IC.Take()
		if !ok {
			return nil
		}

		switch exc {
		case armm.ExcPendSV:
			if err := m.transfer(); err != nil {
				return err
			}
		default:
			return errors.Errorf("unexpected exception %d", exc)
		}
	}
}

// transfer runs the exception-transfer trampoline and performs the
// hardware exception return from whatever stack it hands back.
func (m *Machine) transfer() error {
	newPSP, err := m.tramp.Exception(m.CPU.PSP, m.CPU.MSP)
	if err != nil {
		return err
	}

	var w [armm.FrameWords]uint32
	for i := range w {
		v, err := m.RAM.ReadWord(newPSP + 4*uint32(i))
		if err != nil {
			return errors.Wrap(err, "unstacking exception frame")
		}
		w[i] = v
	}

	m.CPU.R[0], m.CPU.R[1], m.CPU.R[2], m.CPU.R[3] = w[0], w[1], w[2], w[3]
	m.CPU.R[12] = w[4]
	m.CPU.LR = w[5]
	m.CPU.PC = w[6]

	sp := newPSP + armm.HWFrameSize
	if w[7]&armm.PSRStkAlign != 0 {
		sp += 4
	}
	m.CPU.PSR = w[7] &^ armm.PSRStkAlign
	m.CPU.PSP = sp

	return nil
}

// PushSVC appends an svc #code instruction to user text and returns its
// address.
func (m *Machine) PushSVC(code uint8) (uint32, error) {
	addr := m.textCur
	if err := m.RAM.WriteHalf(addr, 0xdf00|uint16(code)); err != nil {
		return 0, err
	}
	m.textCur += armm.InsnSize
	return addr, nil
}

// Step fetches and executes the one instruction at PC. Only svc is
// modeled; the machine exists to exercise the trap path, not to run
// programs.
func (m *Machine) Step() error {
	insn, err := m.RAM.ReadHalf(m.CPU.PC)
	if err != nil {
		return err
	}

	if insn&0xff00 != 0xdf00 {
		return errors.Errorf("unimplemented instruction %#04x at %#x", insn, m.CPU.PC)
	}

	m.CPU.PC += armm.InsnSize
	return m.Trap()
}

// Syscall issues syscall code the way user code would: up to four
// arguments in r0-r3, the rest pushed on the user stack, then an svc.
func (m *Machine) Syscall(code uint8, args ...uint32) error {
	if len(args) > 6 {
		return errors.Errorf("too many syscall arguments: %d", len(args))
	}

	if len(args) > 4 {
		extra := args[4:]
		m.CPU.PSP -= 4 * uint32(len(extra))
		for i, v := range extra {
			if err := m.RAM.WriteWord(m.CPU.PSP+4*uint32(i), v); err != nil {
				return errors.Wrap(err, "pushing stack arguments")
			}
		}
	}

	for i := 0; i < len(args) && i < 4; i++ {
		m.CPU.R[i] = args[i]
	}

	addr, err := m.PushSVC(code)
	if err != nil {
		return err
	}
	m.CPU.PC = addr

	return m.Step()
}

// Carry reports the syscall error flag in the resumed thread state.
func (m *Machine) Carry() bool {
	return m.CPU.PSR&armm.PSRCarry != 0
}
