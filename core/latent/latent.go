// Package latent implements the decaying, multimodal confidence slots that
// back the kernel's sense of "how sure am I about what I'm perceiving".
// Confidence decay is a plain math.Exp factor; gonum's floats package does
// the vector arithmetic (observation blending and cosine similarity), the
// same dependency the teacher repo imported but never exercised.
package latent

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/arth-22/nexuscortex/core/clock"
)

// Modality identifies which perceptual channel a latent slot or input
// event belongs to.
type Modality int

const (
	ModalityAudio Modality = iota
	ModalityVisual
	ModalityText
)

func (m Modality) String() string {
	switch m {
	case ModalityAudio:
		return "audio"
	case ModalityVisual:
		return "visual"
	case ModalityText:
		return "text"
	default:
		return "unknown"
	}
}

// Slot is a decaying confidence-bearing feature vector for one modality.
// Confidence is monotonically non-increasing between observations: every
// call to Observe first applies decay for the elapsed ticks, then blends
// in the new observation. Observe never raises confidence either: the
// result is the lower of the decayed and the observed confidence.
type Slot struct {
	Values     []float32
	Confidence float32
	CreatedAt  clock.Tick
	Modality   Modality
	DecayRate  float32
}

// NewSlot creates a freshly observed slot with full confidence.
func NewSlot(modality Modality, values []float32, decayRate float32, now clock.Tick) Slot {
	cp := make([]float32, len(values))
	copy(cp, values)
	return Slot{
		Values:     cp,
		Confidence: 1.0,
		CreatedAt:  now,
		Modality:   modality,
		DecayRate:  decayRate,
	}
}

// Decay applies the slot's exponential decay for the given number of
// elapsed ticks, returning the updated slot. It never increases confidence.
func (s Slot) Decay(elapsedTicks uint64) Slot {
	if elapsedTicks == 0 {
		return s
	}
	factor := float32(math.Exp(-float64(s.DecayRate) * float64(elapsedTicks)))
	next := s
	next.Confidence = clamp01(s.Confidence * factor)
	return next
}

// Observe blends a new observation into the slot: decay first (so
// confidence never rises across the gap), then take the plain unweighted
// mean of the old and new value vectors, truncated to the shorter one.
func (s Slot) Observe(values []float32, observedConfidence float32, now clock.Tick) Slot {
	elapsed := now.Since(s.CreatedAt)
	decayed := s.Decay(elapsed)

	n := len(decayed.Values)
	if len(values) < n {
		n = len(values)
	}
	blended := make([]float64, n)
	a := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		a[i] = float64(decayed.Values[i])
		b[i] = float64(values[i])
	}
	floats.AddScaled(a, 1, b) // a := a + b, reused as the running sum
	for i := range blended {
		blended[i] = a[i] / 2
	}

	out := make([]float32, n)
	for i, v := range blended {
		out[i] = float32(v)
	}

	next := decayed
	next.Values = out
	next.CreatedAt = now
	// Confidence drops to the freshly observed value when that is lower
	// than the decayed confidence and otherwise stays at the decayed value,
	// so it never increases.
	if observedConfidence < next.Confidence {
		next.Confidence = clamp01(observedConfidence)
	}
	return next
}

// CosineSimilarity reports the cosine similarity between two equal-length
// vectors, used by the memory subsystem's top_k semantic search.
func CosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	fa := make([]float64, n)
	fb := make([]float64, n)
	for i := 0; i < n; i++ {
		fa[i] = float64(a[i])
		fb[i] = float64(b[i])
	}
	dot := floats.Dot(fa, fb)
	na := floats.Norm(fa, 2)
	nb := floats.Norm(fb, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (na * nb))
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// GlobalUncertainty computes 1 - mean(confidence) across a set of slots,
// the crystallizer gate's primary input. An empty slot set is maximally
// uncertain.
func GlobalUncertainty(slots map[string]Slot) float32 {
	if len(slots) == 0 {
		return 1
	}
	var sum float32
	for _, s := range slots {
		sum += s.Confidence
	}
	mean := sum / float32(len(slots))
	return clamp01(1 - mean)
}
