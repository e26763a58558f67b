package sim

import (
	"math/rand/v2"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"
)

// NormalSpec parameterizes a normal distribution.
type NormalSpec struct {
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"stddev"`
}

// RangeSpec parameterizes a uniform distribution over [Low, High].
type RangeSpec struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// Sampler draws one value from a distribution.
type Sampler interface {
	Sample() float64
}

// ClampedNormal draws from a normal distribution and clamps negative draws to zero.
// A negative draw is a sampling anomaly: it is recovered locally and never propagated.
type ClampedNormal struct {
	dist distuv.Normal
	name string
}

// NewClampedNormal binds a normal distribution to an RNG stream.
// name only labels the anomaly log line.
func NewClampedNormal(spec NormalSpec, rng *rand.Rand, name string) *ClampedNormal {
	return &ClampedNormal{
		dist: distuv.Normal{Mu: spec.Mean, Sigma: spec.StdDev, Src: rng},
		name: name,
	}
}

func (n *ClampedNormal) Sample() float64 {
	v := n.dist.Rand()
	if v < 0 {
		logrus.Debugf("clamping negative %s sample %.3f to 0", n.name, v)
		return 0
	}
	return v
}

// Uniform draws uniformly from [Low, High]. A degenerate range always
// returns Low without consuming randomness.
type Uniform struct {
	dist       distuv.Uniform
	degenerate bool
}

// NewUniform binds a uniform distribution to an RNG stream.
func NewUniform(spec RangeSpec, rng *rand.Rand) *Uniform {
	return &Uniform{
		dist:       distuv.Uniform{Min: spec.Low, Max: spec.High, Src: rng},
		degenerate: spec.Low == spec.High,
	}
}

func (u *Uniform) Sample() float64 {
	if u.degenerate {
		return u.dist.Min
	}
	return u.dist.Rand()
}
