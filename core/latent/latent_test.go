package latent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arth-22/nexuscortex/core/clock"
)

func TestNewSlotStartsAtFullConfidence(t *testing.T) {
	s := NewSlot(ModalityText, []float32{1, 2, 3}, 0.1, clock.Tick(0))
	assert.Equal(t, float32(1.0), s.Confidence)
	assert.Equal(t, []float32{1, 2, 3}, s.Values)
}

func TestDecayNeverIncreasesConfidence(t *testing.T) {
	s := NewSlot(ModalityAudio, []float32{1}, 0.1, clock.Tick(0))
	decayed := s.Decay(10)
	assert.Less(t, decayed.Confidence, s.Confidence)
}

func TestDecayIsNoopForZeroElapsedTicks(t *testing.T) {
	s := NewSlot(ModalityVisual, []float32{1}, 0.1, clock.Tick(0))
	assert.Equal(t, s, s.Decay(0))
}

func TestObserveBlendsValuesAndCapsConfidenceToObservedValue(t *testing.T) {
	s := NewSlot(ModalityText, []float32{0, 0}, 0.0, clock.Tick(0))
	next := s.Observe([]float32{2, 4}, 0.5, clock.Tick(1))

	assert.Equal(t, []float32{1, 2}, next.Values)
	assert.Equal(t, float32(0.5), next.Confidence)
	assert.Equal(t, clock.Tick(1), next.CreatedAt)
}

func TestObserveConfidenceNeverRisesAboveDecayedCeiling(t *testing.T) {
	s := NewSlot(ModalityText, []float32{1}, 1.0, clock.Tick(0))
	next := s.Observe([]float32{1}, 0.99, clock.Tick(50))
	assert.Less(t, next.Confidence, float32(0.99))
}

func TestCosineSimilarityOfIdenticalVectorsIsOne(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 0, 0}, []float32{1, 0, 0})
	assert.InDelta(t, 1.0, sim, 0.0001)
}

func TestCosineSimilarityOfOrthogonalVectorsIsZero(t *testing.T) {
	sim := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	assert.InDelta(t, 0.0, sim, 0.0001)
}

func TestCosineSimilarityOfZeroVectorIsZero(t *testing.T) {
	sim := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	assert.Equal(t, float32(0), sim)
}

func TestGlobalUncertaintyOfEmptySlotsIsMaximal(t *testing.T) {
	assert.Equal(t, float32(1), GlobalUncertainty(map[string]Slot{}))
}

func TestGlobalUncertaintyIsOneMinusMeanConfidence(t *testing.T) {
	slots := map[string]Slot{
		"a": {Confidence: 1.0},
		"b": {Confidence: 0.0},
	}
	assert.InDelta(t, 0.5, GlobalUncertainty(slots), 0.0001)
}
