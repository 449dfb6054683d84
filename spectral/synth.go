package spectral

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/ormeille/aural"
)

// Synth converts a spectral frame stream back to time domain with the
// phase vocoder overlap-add method: per-bin phase accumulation from
// the true frequencies, inverse FFT, windowing and hop-wise
// accumulation. The synthesis window defaults to Hanning and need not
// equal the analysis window. Output is normalized by the window's
// overlap sum, so a pass-through analysis-synthesis chain approaches
// unit gain after its group delay of size + hop samples.
type Synth struct {
	aural.Unit
	in  PVNode
	win Window

	size         int
	olaps        int
	hopsize      int
	inputLatency int
	overcount    int
	factor       float64
	scale        float64

	plan         *algofft.Plan[complex128]
	coeffs       []float64
	norm         []float64
	frame        []complex128
	timeFrame    []complex128
	sumPhase     []float64
	outputAccum  []float64
	outputBuffer []float64
}

// NewSynth attaches the overlap-add resynthesis to a producer,
// adopting its frame geometry.
func NewSynth(clk *aural.Clock, in PVNode, win Window) (*Synth, error) {
	if in == nil {
		return nil, aural.NewConfigError("synth", "nil input stage")
	}
	s := &Synth{
		Unit:  aural.NewUnit(clk),
		in:    in,
		win:   win,
		size:  in.Size(),
		olaps: in.Overlaps(),
	}
	if err := s.realloc(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Synth) realloc() error {
	coeffs, err := s.win.coefficients(s.size)
	if err != nil {
		return err
	}
	plan, err := algofft.NewPlan64(s.size)
	if err != nil {
		return aural.NewConfigError("synth", "fft plan: %v", err)
	}
	s.coeffs = coeffs
	s.plan = plan
	s.hopsize = s.size / s.olaps
	s.inputLatency = s.size - s.hopsize
	s.overcount = 0
	s.factor = float64(s.hopsize) * 2 * math.Pi / float64(s.Clock().SampleRate())
	s.scale = float64(s.Clock().SampleRate()) / float64(s.size)
	s.frame = make([]complex128, s.size)
	s.timeFrame = make([]complex128, s.size)
	s.sumPhase = make([]float64, s.size/2+1)
	s.outputAccum = make([]float64, s.size+s.hopsize)
	s.outputBuffer = make([]float64, s.hopsize)
	// Per-sample overlap sum of the squared window, the division that
	// brings a pass-through chain back to unit gain.
	s.norm = make([]float64, s.hopsize)
	for n := 0; n < s.hopsize; n++ {
		sum := 0.0
		for j := 0; j < s.olaps; j++ {
			w := s.coeffs[n+j*s.hopsize]
			sum += w * w
		}
		if sum < 1e-12 {
			sum = 1e-12
		}
		s.norm[n] = sum
	}
	return nil
}

// SetInput replaces the upstream stage. The producer's FFT size must
// match this stage's; a mismatch is a configuration error raised here,
// not at the first frame.
func (s *Synth) SetInput(in PVNode) error {
	if err := checkAttach("synth", in, s.size); err != nil {
		return err
	}
	s.Clock().Mutate(func() {
		s.in = in
	})
	return nil
}

// SetWinType replaces the synthesis window shape.
func (s *Synth) SetWinType(win Window) {
	s.Clock().Mutate(func() {
		coeffs, err := win.coefficients(s.size)
		if err != nil {
			s.Clock().Logger().Warnf("synth: %v", err)
			return
		}
		s.win = win
		s.coeffs = coeffs
	})
}

// Ctrls implements aural.Controllable.
func (s *Synth) Ctrls() []aural.CtrlMap {
	return []aural.CtrlMap{
		{Name: "mul", Min: 0, Max: 1, Curve: "lin"},
	}
}

// Block implements aural.Node.
func (s *Synth) Block(tick uint64) []float64 {
	return s.Render(tick, s)
}

// Process implements aural.Processor.
func (s *Synth) Process(tick uint64, out []float64) {
	src := s.in.PV(tick)
	if s.size != src.Size() || s.olaps != src.Overlaps() {
		s.size = src.Size()
		s.olaps = src.Overlaps()
		if err := s.realloc(); err != nil {
			s.Clock().Logger().Errorf("synth: %v", err)
			zeroBlock(out)
			return
		}
	}
	count := src.count
	for i := range out {
		out[i] = s.outputBuffer[count[i]-s.inputLatency]
		if count[i] >= s.size-1 {
			s.synthesize(src)
		}
	}
}

// synthesize resynthesizes one hop from the current frame slot.
func (s *Synth) synthesize(src *PVStream) {
	magn := src.magn[s.overcount]
	freq := src.freq[s.overcount]
	half := s.size / 2
	for k := 0; k <= half; k++ {
		s.sumPhase[k] += (freq[k] - float64(k)*s.scale) * s.factor
		phase := s.sumPhase[k]
		s.frame[k] = complex(magn[k]*math.Cos(phase), magn[k]*math.Sin(phase))
	}
	s.frame[0] = complex(real(s.frame[0]), 0)
	s.frame[half] = complex(real(s.frame[half]), 0)
	for k := 1; k < half; k++ {
		s.frame[s.size-k] = complex(real(s.frame[k]), -imag(s.frame[k]))
	}
	if err := s.plan.Inverse(s.timeFrame, s.frame); err != nil {
		s.Clock().Logger().Errorf("synth: inverse fft: %v", err)
		return
	}
	mod := s.hopsize * s.overcount
	for k := 0; k < s.size; k++ {
		s.outputAccum[k] += real(s.timeFrame[(k+mod)%s.size]) * s.coeffs[k]
	}
	for k := 0; k < s.hopsize; k++ {
		s.outputBuffer[k] = s.outputAccum[k] / s.norm[k]
	}
	copy(s.outputAccum, s.outputAccum[s.hopsize:])
	for k := s.size; k < len(s.outputAccum); k++ {
		s.outputAccum[k] = 0
	}
	s.overcount++
	if s.overcount >= s.olaps {
		s.overcount = 0
	}
}

func zeroBlock(out []float64) {
	for i := range out {
		out[i] = 0
	}
}
