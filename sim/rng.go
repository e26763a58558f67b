package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible Race Run.
// Two runs with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Derive returns a child key for the named component, e.g. one run of the
// Monte-Carlo harness. The result depends only on the parent key and the
// name, never on the order in which children are derived.
func (k SimulationKey) Derive(name string) SimulationKey {
	return SimulationKey(int64(k) ^ fnv1a64(name))
}

// RunKey derives the key for one (scenario, repetition, day) harness run.
func (k SimulationKey) RunKey(scenario string, repetition, day int) SimulationKey {
	return k.Derive(fmt.Sprintf("run/%s/%d/%d", scenario, repetition, day))
}

// === Subsystem Constants ===

const (
	// SubsystemPace draws runners' base paces.
	SubsystemPace = "pace"

	// SubsystemDuration draws per-resource service durations.
	SubsystemDuration = "duration"

	// SubsystemThreshold draws the want thresholds at stations.
	SubsystemThreshold = "threshold"

	// SubsystemNecessity draws necessity increases between checkpoints.
	SubsystemNecessity = "necessity"
)

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName), used as the
// first PCG seed word; the second word is the subsystem hash itself.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	h := fnv1a64(name)
	rng := rand.New(rand.NewPCG(uint64(int64(p.key)^h), uint64(h)))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
