package kernel

import "github.com/vanir-os/vanir/abi"

// checkpoint marks the resumption point the dispatcher establishes
// around a handler invocation. Signal delivery aborts an in-flight
// syscall by unwinding back to it with the error code already set; the
// handler's partial side effects are not rolled back.
type checkpoint struct {
	p *Proc
}

// unwind is the control-transfer payload. The dispatcher recovers it and
// compares identity so nested invocations cannot swallow each other's
// aborts.
type unwind struct {
	cp *checkpoint
}

// Abort unwinds the current syscall body back to the dispatcher with err
// as the syscall's result. It must be called from code running beneath a
// handler invocation on the trapping process; handlers are written
// assuming they can be abandoned at any such point.
func (p *Proc) Abort(err abi.Errno) {
	if p.qsave == nil {
		panic("kernel: syscall abort with no checkpoint")
	}
	p.Error = err
	panic(unwind{cp: p.qsave})
}

// invoke runs the handler under a fresh checkpoint. On a normal return
// the handler has set Error and RVal itself; on an abort, control lands
// here with Error already populated by the aborter.
func (k *Kernel) invoke(p *Proc, ent *Sysent) {
	cp := &checkpoint{p: p}
	p.qsave = cp
	defer func() {
		p.qsave = nil
		if r := recover(); r != nil {
			if u, ok := r.(unwind); ok && u.cp == cp {
				return
			}
			panic(r)
		}
	}()

	ent.Call(k.L, k, p)
}
