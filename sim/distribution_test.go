package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampedNormal_NegativeDrawsClampToZero(t *testing.T) {
	// GIVEN a distribution centered far below zero
	rng := NewPartitionedRNG(NewSimulationKey(1)).ForSubsystem(SubsystemDuration)
	n := NewClampedNormal(NormalSpec{Mean: -50, StdDev: 1}, rng, "test")

	// THEN every sample is recovered to exactly zero
	for i := 0; i < 100; i++ {
		assert.Equal(t, 0.0, n.Sample())
	}
}

func TestClampedNormal_ZeroStdDev_ReturnsMean(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(1)).ForSubsystem(SubsystemPace)
	n := NewClampedNormal(NormalSpec{Mean: 6.5, StdDev: 0}, rng, "test")
	for i := 0; i < 10; i++ {
		assert.Equal(t, 6.5, n.Sample())
	}
}

func TestUniform_StaysInRange(t *testing.T) {
	rng := NewPartitionedRNG(NewSimulationKey(3)).ForSubsystem(SubsystemNecessity)
	u := NewUniform(RangeSpec{Low: 10, High: 40}, rng)
	for i := 0; i < 1000; i++ {
		v := u.Sample()
		if v < 10 || v > 40 {
			t.Fatalf("sample %v outside [10,40]", v)
		}
	}
}

func TestUniform_DegenerateRange_DoesNotConsumeRandomness(t *testing.T) {
	// GIVEN two streams from the same key, one feeding a degenerate uniform
	a := NewPartitionedRNG(NewSimulationKey(9)).ForSubsystem(SubsystemThreshold)
	b := NewPartitionedRNG(NewSimulationKey(9)).ForSubsystem(SubsystemThreshold)
	u := NewUniform(RangeSpec{Low: 100, High: 100}, a)

	// WHEN sampled
	for i := 0; i < 5; i++ {
		assert.Equal(t, 100.0, u.Sample())
	}

	// THEN the underlying stream is untouched
	assert.Equal(t, b.Float64(), a.Float64())
}

func TestSamplers_SameKeySameSequence(t *testing.T) {
	draw := func() []float64 {
		rng := NewPartitionedRNG(NewSimulationKey(42)).ForSubsystem(SubsystemPace)
		n := NewClampedNormal(NormalSpec{Mean: 6, StdDev: 1}, rng, "pace")
		out := make([]float64, 20)
		for i := range out {
			out[i] = n.Sample()
		}
		return out
	}
	assert.Equal(t, draw(), draw())
}
