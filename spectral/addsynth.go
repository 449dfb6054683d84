package spectral

import (
	"math"

	"github.com/ormeille/aural"
)

// AddSynth resynthesizes a spectral frame stream with a bank of sine
// oscillators instead of overlap-add. Oscillator k tracks the true
// frequency and magnitude of bin first + k*inc, with frequencies
// scaled by pitch; amplitude and frequency ramp linearly across each
// hop. Bins beyond the available bin count drive silent oscillators.
// The trade is temporal precision for artifact-free arbitrary
// transposition.
//
// Tracking is magnitude-only: oscillators integrate frequency from a
// zero initial phase and never see the analysis phase. For a steady
// partial the leakage bins around its peak all report the partial's
// frequency, and the two symmetric neighbors settle in antiphase, so
// they cancel rather than reinforce. Selecting every bin reproduces
// the partial at the peak oscillator's amplitude alone.
type AddSynth struct {
	aural.Unit
	in    PVNode
	pitch aural.Param
	num   int
	first int
	inc   int

	size      int
	olaps     int
	hopsize   int
	overcount int
	ampscl    float64

	amps   []float64
	freqs  []float64
	dAmps  []float64
	dFreqs []float64
	phases []float64
}

// NewAddSynth attaches an additive resynthesis of num oscillators to a
// producer.
func NewAddSynth(clk *aural.Clock, in PVNode, pitch aural.Param, num, first, inc int) (*AddSynth, error) {
	if in == nil {
		return nil, aural.NewConfigError("addsynth", "nil input stage")
	}
	if num < 1 {
		return nil, aural.NewConfigError("addsynth", "num must be at least 1, got %d", num)
	}
	if first < 0 || inc < 1 {
		return nil, aural.NewConfigError("addsynth", "invalid bin selection first=%d inc=%d", first, inc)
	}
	s := &AddSynth{
		Unit:   aural.NewUnit(clk),
		in:     in,
		pitch:  pitch,
		num:    num,
		first:  first,
		inc:    inc,
		size:   in.Size(),
		olaps:  in.Overlaps(),
		amps:   make([]float64, num),
		freqs:  make([]float64, num),
		dAmps:  make([]float64, num),
		dFreqs: make([]float64, num),
		phases: make([]float64, num),
	}
	s.hopsize = s.size / s.olaps
	// Forward-transform magnitudes carry a size/2 factor; undo it so
	// an on-bin unit sine drives a unit-amplitude oscillator.
	s.ampscl = 2 / float64(s.size)
	return s, nil
}

// SetInput replaces the upstream stage, validating frame geometry.
func (s *AddSynth) SetInput(in PVNode) error {
	if err := checkAttach("addsynth", in, s.size); err != nil {
		return err
	}
	s.Clock().Mutate(func() {
		s.in = in
	})
	return nil
}

// SetPitch replaces the frequency scaling factor.
func (s *AddSynth) SetPitch(pitch aural.Param) {
	s.Clock().Mutate(func() {
		s.pitch = pitch
	})
}

// Ctrls implements aural.Controllable.
func (s *AddSynth) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "pitch", Min: 0.25, Max: 4, Curve: "lin"},
		{Name: "mul", Min: 0, Max: 1, Curve: "lin"},
	}
}

// Block implements aural.Node.
func (s *AddSynth) Block(tick uint64) []float64 {
	return s.Render(tick, s)
}

// Process implements aural.Processor.
func (s *AddSynth) Process(tick uint64, out []float64) {
	src := s.in.PV(tick)
	if s.size != src.Size() || s.olaps != src.Overlaps() {
		s.size = src.Size()
		s.olaps = src.Overlaps()
		s.hopsize = s.size / s.olaps
		s.ampscl = 2 / float64(s.size)
		s.overcount = 0
		s.retarget(tick, 0, src)
	}
	count := src.count
	twoPi := 2 * math.Pi
	sr := float64(s.Clock().SampleRate())
	for i := range out {
		if count[i] >= s.size-1 {
			s.retarget(tick, i, src)
			s.overcount++
			if s.overcount >= s.olaps {
				s.overcount = 0
			}
		}
		sum := 0.0
		for o := 0; o < s.num; o++ {
			s.amps[o] += s.dAmps[o]
			s.freqs[o] += s.dFreqs[o]
			s.phases[o] += twoPi * s.freqs[o] / sr
			if s.phases[o] >= twoPi {
				s.phases[o] -= twoPi
			} else if s.phases[o] < 0 {
				s.phases[o] += twoPi
			}
			sum += s.amps[o] * math.Sin(s.phases[o])
		}
		out[i] = sum
	}
}

// retarget points every oscillator at the freshly completed frame,
// ramping amplitude and frequency over the next hop.
func (s *AddSynth) retarget(tick uint64, sample int, src *PVStream) {
	pitch := s.pitch.At(tick, sample)
	magn := src.magn[s.overcount]
	freq := src.freq[s.overcount]
	bins := len(magn)
	hop := float64(s.hopsize)
	for o := 0; o < s.num; o++ {
		bin := s.first + o*s.inc
		targAmp, targFreq := 0.0, 0.0
		if bin < bins {
			targAmp = magn[bin] * s.ampscl
			targFreq = freq[bin] * pitch
		}
		s.dAmps[o] = (targAmp - s.amps[o]) / hop
		s.dFreqs[o] = (targFreq - s.freqs[o]) / hop
	}
}
