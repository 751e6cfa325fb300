// Package orbit implements the per-orbit stereo mix buses a rendered voice
// sends into: a dry sum plus delay-send and reverb-send buffers, each
// carrying its own effect tail.
package orbit

// Bus is one addressable mix destination: a dry stereo sum plus delay and
// reverb send accumulators, reset to silence at the start of every block.
// Voices only ever accumulate into the three buffers; the delay line and
// reverb tail each advance exactly once per frame inside Mix, regardless of
// how many voices fed the bus that frame.
type Bus struct {
	Dry      [][2]float64
	DelayIn  [][2]float64
	VerbIn   [][2]float64
	Delay    *DelayLine
	Verb     *Reverb
}

// NewBus builds a Bus sized for blockSize frames at sampleRate.
func NewBus(blockSize int, sampleRate float64, delayTimeSec, delayFeedback, roomSize, damping float64) *Bus {
	return &Bus{
		Dry:     make([][2]float64, blockSize),
		DelayIn: make([][2]float64, blockSize),
		VerbIn:  make([][2]float64, blockSize),
		Delay:   NewDelayLine(sampleRate, delayTimeSec, delayFeedback),
		Verb:    NewReverb(sampleRate, roomSize, damping),
	}
}

// Reset zeroes the dry and send buffers ahead of the next block's voice
// renders; the delay and reverb tails are NOT reset — they carry state
// across blocks.
func (b *Bus) Reset() {
	for i := range b.Dry {
		b.Dry[i] = [2]float64{}
		b.DelayIn[i] = [2]float64{}
		b.VerbIn[i] = [2]float64{}
	}
}

// Add accumulates one rendered voice sample (already panned to stereo) into
// frame i of the bus's dry buffer, plus its delay/reverb sends.
func (b *Bus) Add(i int, left, right float64, delaySend, reverbSend float64) {
	b.Dry[i][0] += left
	b.Dry[i][1] += right
	if delaySend > 0 {
		b.DelayIn[i][0] += left * delaySend
		b.DelayIn[i][1] += right * delaySend
	}
	if reverbSend > 0 {
		b.VerbIn[i][0] += left * reverbSend
		b.VerbIn[i][1] += right * reverbSend
	}
}

// Mix advances the delay line and reverb by one frame, feeding them the
// accumulated sends for frame i, and returns dry + wet summed for that
// frame. Mix must be called exactly once per frame, in order.
func (b *Bus) Mix(i int) (left, right float64) {
	dl, dr := b.Delay.Process(b.DelayIn[i][0], b.DelayIn[i][1])
	rl, rr := b.Verb.Process(b.VerbIn[i][0], b.VerbIn[i][1])
	return b.Dry[i][0] + dl + rl, b.Dry[i][1] + dr + rr
}

// DelayLine is a stereo feedback delay: a ring buffer with a single tap at
// the delay time, feedback returning attenuated output to the input.
type DelayLine struct {
	SampleRate float64
	Feedback   float64
	buf        [][2]float64
	writePos   int
}

// NewDelayLine builds a DelayLine with a ring buffer sized for delaySec.
func NewDelayLine(sampleRate, delaySec, feedback float64) *DelayLine {
	n := int(delaySec * sampleRate)
	if n < 1 {
		n = 1
	}
	return &DelayLine{SampleRate: sampleRate, Feedback: feedback, buf: make([][2]float64, n)}
}

// Process consumes one input frame and returns the delayed tap output,
// writing input plus attenuated feedback back into the ring.
func (d *DelayLine) Process(left, right float64) (outL, outR float64) {
	tap := d.buf[d.writePos]
	d.buf[d.writePos] = [2]float64{left + tap[0]*d.Feedback, right + tap[1]*d.Feedback}
	d.writePos = (d.writePos + 1) % len(d.buf)
	return tap[0], tap[1]
}

// Reverb is a small Schroeder-style reverb: four parallel comb filters
// feeding two series all-pass stages, the standard cheap plate/room
// approximation. RoomSize scales comb feedback; Damping applies a one-pole
// low-pass inside each comb's feedback path, darkening the tail over time.
type Reverb struct {
	combs   [4]*comb
	allpass [2]*allpassStage
}

// NewReverb builds a Reverb tuned by roomSize (0..1, comb feedback) and
// damping (0..1, high-frequency loss in the comb feedback path).
func NewReverb(sampleRate, roomSize, damping float64) *Reverb {
	// Prime-ish relative delay lengths (ms) keep the four combs from
	// reinforcing each other's resonances, the classic Schroeder tuning.
	lengthsMs := [4]float64{29.7, 37.1, 41.1, 43.7}
	r := &Reverb{}
	for i, ms := range lengthsMs {
		r.combs[i] = newComb(sampleRate, ms/1000, roomSize, damping)
	}
	apMs := [2]float64{5.0, 1.7}
	for i, ms := range apMs {
		r.allpass[i] = newAllpassStage(sampleRate, ms/1000, 0.5)
	}
	return r
}

// Process consumes one input frame (already attenuated by the caller's send
// amount) through the comb bank and all-pass stages and returns the wet
// output for this frame.
func (r *Reverb) Process(left, right float64) (outL, outR float64) {
	sum := 0.0
	for _, c := range r.combs {
		sum += c.process((left + right) / 2)
	}
	sum /= float64(len(r.combs))
	for _, ap := range r.allpass {
		sum = ap.process(sum)
	}
	return sum, sum
}

type comb struct {
	buf         []float64
	pos         int
	feedback    float64
	damping     float64
	filterState float64
}

func newComb(sampleRate, delaySec, feedback, damping float64) *comb {
	n := int(delaySec * sampleRate)
	if n < 1 {
		n = 1
	}
	return &comb{buf: make([]float64, n), feedback: feedback, damping: damping}
}

func (c *comb) process(x float64) float64 {
	out := c.buf[c.pos]
	c.filterState = out*(1-c.damping) + c.filterState*c.damping
	c.buf[c.pos] = x + c.filterState*c.feedback
	c.pos = (c.pos + 1) % len(c.buf)
	return out
}

type allpassStage struct {
	buf  []float64
	pos  int
	gain float64
}

func newAllpassStage(sampleRate, delaySec, gain float64) *allpassStage {
	n := int(delaySec * sampleRate)
	if n < 1 {
		n = 1
	}
	return &allpassStage{buf: make([]float64, n), gain: gain}
}

func (a *allpassStage) process(x float64) float64 {
	bufOut := a.buf[a.pos]
	y := -a.gain*x + bufOut
	a.buf[a.pos] = x + a.gain*bufOut
	a.pos = (a.pos + 1) % len(a.buf)
	return y
}
