package armm

// ARMv7-M system exception numbers this core pends or handles.
const (
	ExcSVCall = 11
	ExcPendSV = 14
)

// IntrControl is the slice of the interrupt controller the trap path
// needs: full masking for the frame copy windows, pending an exception,
// and dropping the priority mask to its lowest setting.
type IntrControl interface {
	// Disable masks all maskable exceptions (PRIMASK set).
	Disable()

	// Enable clears the mask set by Disable.
	Enable()

	// SetPending marks exception exc pending; it fires when priorities
	// allow.
	SetPending(exc int)

	// SplLow lowers the priority mask so even the lowest-priority
	// exception can fire.
	SplLow()
}

// SVCall is the supervisor-call vector. It does no work itself: the
// transfer exception runs at the lowest priority so it can safely
// tail-chain behind anything already pending, so all SVCall does is pend
// it and open the priority mask enough for it to fire immediately.
func SVCall(ic IntrControl) {
	ic.SetPending(ExcPendSV)
	ic.SplLow()
}
