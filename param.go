package aural

// Param is a control value that is either a fixed scalar or a live
// audio-rate stream. Every component setter accepts both forms
// interchangeably; the stream form is resolved against the current
// block each tick.
type Param struct {
	value float64
	src   Node
}

// Scalar returns a fixed-value Param.
func Scalar(v float64) Param {
	return Param{value: v}
}

// Follow returns a Param modulated by the given node's output.
func Follow(n Node) Param {
	return Param{src: n}
}

// IsStream reports whether the Param follows a live stream.
func (p Param) IsStream() bool {
	return p.src != nil
}

// At resolves sample i of the current block.
func (p Param) At(tick uint64, i int) float64 {
	if p.src == nil {
		return p.value
	}
	return p.src.Block(tick)[i]
}

// Once resolves the Param once per block, used by block-rate consumers
// such as the periodic scheduler interval.
func (p Param) Once(tick uint64) float64 {
	if p.src == nil {
		return p.value
	}
	return p.src.Block(tick)[0]
}

// Params lifts a slice of scalars into Param form, the common case for
// per-voice constructor arguments.
func Params(values ...float64) []Param {
	ps := make([]Param, len(values))
	for i, v := range values {
		ps[i] = Scalar(v)
	}
	return ps
}
