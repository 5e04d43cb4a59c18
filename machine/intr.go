package machine

import "github.com/vanir-os/vanir/arch/armm"

const numExc = 16

// IntrController models the exception-priority hardware: per-exception
// pending bits, a global disable (PRIMASK) and a priority mask
// (BASEPRI). Lower priority values preempt higher ones; basepri 0 means
// no masking at all.
type IntrController struct {
	primask bool
	basepri uint8
	pending [numExc]bool
	prio    [numExc]uint8
}

func NewIntrController() *IntrController {
	ic := &IntrController{}

	for i := range ic.prio {
		ic.prio[i] = 0x80
	}

	// The supervisor call preempts device work; the transfer exception
	// runs below everything so it can tail-chain last.
	ic.prio[armm.ExcSVCall] = 0x40
	ic.prio[armm.ExcPendSV] = 0xff

	// Boot state: everything below the highest level held off until the
	// relay opens the mask.
	ic.basepri = 1

	return ic
}

func (ic *IntrController) Disable() { ic.primask = true }
func (ic *IntrController) Enable()  { ic.primask = false }

func (ic *IntrController) SetPending(exc int) { ic.pending[exc] = true }

// SplLow drops the priority mask so any pending exception may fire.
func (ic *IntrController) SplLow() { ic.basepri = 0 }

// SplHigh masks everything but the highest priority level.
func (ic *IntrController) SplHigh() { ic.basepri = 1 }

// Take returns the highest-priority deliverable pending exception and
// clears its pending bit. The machine loop calls it repeatedly, which is
// what tail-chaining degenerates to on a model.
func (ic *IntrController) Take() (int, bool) {
	if ic.primask {
		return 0, false
	}

	best, found := 0, false
	for exc, p := range ic.pending {
		if !p {
			continue
		}
		if ic.basepri != 0 && ic.prio[exc] >= ic.basepri {
			continue
		}
		if !found || ic.prio[exc] < ic.prio[best] {
			best, found = exc, true
		}
	}

	if !found {
		return 0, false
	}

	ic.pending[best] = false
	return best, true
}

// Masked reports whether PRIMASK is set, for tests asserting the copy
// windows.
func (ic *IntrController) Masked() bool { return ic.primask }
