package spectral

import (
	"math"

	"github.com/ormeille/aural"
)

// hopper processes one completed frame slot for a transform stage.
type hopper interface {
	hop(tick uint64, sample, slot int, src *PVStream)
}

// transform carries what every frame transform shares: the upstream
// stage, its own output stream of identical bin count, and the hop
// synchronization walk. Geometry changes on the upstream stage are
// adopted at the next hop boundary.
type transform struct {
	clk       *aural.Clock
	in        PVNode
	size      int
	olaps     int
	overcount int
	stream    *PVStream
	computed  uint64
}

func newTransform(component string, clk *aural.Clock, in PVNode) (transform, error) {
	if in == nil {
		return transform{}, aural.NewConfigError(component, "nil input stage")
	}
	return transform{
		clk:    clk,
		in:     in,
		size:   in.Size(),
		olaps:  in.Overlaps(),
		stream: newPVStream(clk.BlockSize(), in.Size(), in.Overlaps()),
	}, nil
}

// Size implements PVNode.
func (t *transform) Size() int { return t.size }

// Overlaps implements PVNode.
func (t *transform) Overlaps() int { return t.olaps }

// adapt follows upstream geometry changes, dropping in-flight frames.
// Returns true when the geometry changed so stages can reset their own
// state.
func (t *transform) adapt(src *PVStream) bool {
	if t.size == src.Size() && t.olaps == src.Overlaps() {
		return false
	}
	t.size = src.Size()
	t.olaps = src.Overlaps()
	t.overcount = 0
	t.stream.resize(t.size, t.olaps)
	return true
}

// pv walks the block, invoking h once per completed hop.
func (t *transform) pv(tick uint64, h hopper, onAdapt func()) *PVStream {
	if t.computed == tick {
		return t.stream
	}
	t.computed = tick
	src := t.in.PV(tick)
	if t.adapt(src) && onAdapt != nil {
		onAdapt()
	}
	copy(t.stream.count, src.count)
	for i, c := range src.count {
		if c >= t.size-1 {
			h.hop(tick, i, t.overcount, src)
			t.overcount++
			if t.overcount >= t.olaps {
				t.overcount = 0
			}
		}
	}
	return t.stream
}

// Transpose frequency-scales every bin of the spectral stream. The
// magnitude of bin k is reassigned to the nearest bin k*transpo,
// accumulating when several bins land together; bins falling outside
// the frame are dropped. True frequencies are scaled by the factor.
type Transpose struct {
	transform
	transpo aural.Param
}

// NewTranspose attaches a transposition stage to a producer.
func NewTranspose(clk *aural.Clock, in PVNode, transpo aural.Param) (*Transpose, error) {
	t, err := newTransform("transpose", clk, in)
	if err != nil {
		return nil, err
	}
	return &Transpose{transform: t, transpo: transpo}, nil
}

// SetInput replaces the upstream stage. The producer's FFT size must
// match this stage's; a mismatch is a configuration error raised here,
// not at the first frame.
func (tr *Transpose) SetInput(in PVNode) error {
	if err := checkAttach("transpose", in, tr.size); err != nil {
		return err
	}
	tr.clk.Mutate(func() {
		tr.in = in
	})
	return nil
}

// SetTranspo replaces the transposition factor.
func (tr *Transpose) SetTranspo(transpo aural.Param) {
	tr.clk.Mutate(func() {
		tr.transpo = transpo
	})
}

// Ctrls implements aural.Controllable.
func (tr *Transpose) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "transpo", Min: 0.25, Max: 4, Curve: "lin"},
	}
}

// PV implements PVNode.
func (tr *Transpose) PV(tick uint64) *PVStream {
	return tr.pv(tick, tr, nil)
}

func (tr *Transpose) hop(tick uint64, sample, slot int, src *PVStream) {
	transpo := tr.transpo.At(tick, sample)
	magn := tr.stream.magn[slot]
	freq := tr.stream.freq[slot]
	srcMagn := src.magn[slot]
	srcFreq := src.freq[slot]
	for k := range magn {
		magn[k] = 0
		freq[k] = 0
	}
	for k := range srcMagn {
		index := int(float64(k) * transpo)
		if index >= 0 && index < len(magn) {
			magn[index] += srcMagn[k]
			freq[index] = srcFreq[k] * transpo
		}
	}
}

// Gate attenuates bins whose magnitude falls below a threshold. thresh
// is expressed in dB; bins below it are multiplied by damp (0 mutes
// them, 1 leaves them untouched), bins above pass unchanged.
type Gate struct {
	transform
	thresh aural.Param
	damp   aural.Param
}

// NewGate attaches a spectral gate to a producer.
func NewGate(clk *aural.Clock, in PVNode, thresh, damp aural.Param) (*Gate, error) {
	t, err := newTransform("gate", clk, in)
	if err != nil {
		return nil, err
	}
	return &Gate{transform: t, thresh: thresh, damp: damp}, nil
}

// SetInput replaces the upstream stage, validating frame geometry.
func (g *Gate) SetInput(in PVNode) error {
	if err := checkAttach("gate", in, g.size); err != nil {
		return err
	}
	g.clk.Mutate(func() {
		g.in = in
	})
	return nil
}

// SetThresh replaces the threshold in dB.
func (g *Gate) SetThresh(thresh aural.Param) {
	g.clk.Mutate(func() {
		g.thresh = thresh
	})
}

// SetDamp replaces the below-threshold attenuation factor.
func (g *Gate) SetDamp(damp aural.Param) {
	g.clk.Mutate(func() {
		g.damp = damp
	})
}

// Ctrls implements aural.Controllable.
func (g *Gate) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "thresh", Min: -120, Max: 18, Curve: "lin"},
		{Name: "damp", Min: 0, Max: 1, Curve: "lin"},
	}
}

// PV implements PVNode.
func (g *Gate) PV(tick uint64) *PVStream {
	return g.pv(tick, g, nil)
}

func (g *Gate) hop(tick uint64, sample, slot int, src *PVStream) {
	thresh := math.Pow(10, g.thresh.At(tick, sample)*0.05)
	damp := g.damp.At(tick, sample)
	if damp < 0 {
		damp = 0
	} else if damp > 1 {
		damp = 1
	}
	magn := g.stream.magn[slot]
	freq := g.stream.freq[slot]
	srcMagn := src.magn[slot]
	srcFreq := src.freq[slot]
	for k := range magn {
		if srcMagn[k] < thresh {
			magn[k] = srcMagn[k] * damp
		} else {
			magn[k] = srcMagn[k]
		}
		freq[k] = srcFreq[k]
	}
}

// Verb smears the spectral stream in time: rising bin magnitudes are
// tracked instantly while falling magnitudes decay toward zero with a
// feedback coefficient derived from revtime; damp adds extra loss that
// grows with bin index, so high bins decay faster as damp approaches
// zero. damp 1 applies no extra high-frequency loss.
type Verb struct {
	transform
	revtime  aural.Param
	damp     aural.Param
	lastMagn []float64
}

// NewVerb attaches a spectral reverb to a producer.
func NewVerb(clk *aural.Clock, in PVNode, revtime, damp aural.Param) (*Verb, error) {
	t, err := newTransform("verb", clk, in)
	if err != nil {
		return nil, err
	}
	return &Verb{
		transform: t,
		revtime:   revtime,
		damp:      damp,
		lastMagn:  make([]float64, in.Size()/2+1),
	}, nil
}

// SetInput replaces the upstream stage, validating frame geometry.
func (v *Verb) SetInput(in PVNode) error {
	if err := checkAttach("verb", in, v.size); err != nil {
		return err
	}
	v.clk.Mutate(func() {
		v.in = in
	})
	return nil
}

// SetRevtime replaces the decay control.
func (v *Verb) SetRevtime(revtime aural.Param) {
	v.clk.Mutate(func() {
		v.revtime = revtime
	})
}

// SetDamp replaces the high-frequency damping control.
func (v *Verb) SetDamp(damp aural.Param) {
	v.clk.Mutate(func() {
		v.damp = damp
	})
}

// Ctrls implements aural.Controllable.
func (v *Verb) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "revtime", Min: 0, Max: 1, Curve: "lin"},
		{Name: "damp", Min: 0, Max: 1, Curve: "lin"},
	}
}

// PV implements PVNode.
func (v *Verb) PV(tick uint64) *PVStream {
	return v.pv(tick, v, v.reset)
}

func (v *Verb) reset() {
	v.lastMagn = make([]float64, v.size/2+1)
}

func (v *Verb) hop(tick uint64, sample, slot int, src *PVStream) {
	revtime := clampUnit(v.revtime.At(tick, sample))*0.25 + 0.75
	damp := clampUnit(v.damp.At(tick, sample))*0.003 + 0.997
	magn := v.stream.magn[slot]
	freq := v.stream.freq[slot]
	srcMagn := src.magn[slot]
	srcFreq := src.freq[slot]
	amp := 1.0
	for k := range magn {
		mag := srcMagn[k]
		if mag > v.lastMagn[k] {
			v.lastMagn[k] = mag
		} else {
			v.lastMagn[k] = mag + (v.lastMagn[k]-mag)*revtime*amp
		}
		magn[k] = v.lastMagn[k]
		freq[k] = srcFreq[k]
		amp *= damp
	}
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
