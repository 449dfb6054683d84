package aural

// CtrlMap describes one controllable parameter for external control
// surfaces: its name, documented numeric range and scaling curve.
// Components only supply this metadata; binding and widgets are the
// caller's concern.
type CtrlMap struct {
	Name  string
	Min   float64
	Max   float64
	Curve string
}

// Controllable is implemented by components that advertise a default
// parameter mapping for automation.
type Controllable interface {
	Ctrls() []CtrlMap
}
