package sim

// RNG is the battle's seeded random source. It is a plain splitmix64
// sequence so draws are bit-identical across platforms and Go releases,
// which is what makes replays and cross-machine soak comparisons hold.
// There is no global instance; every Sim owns its own stream.
type RNG struct {
	state uint64
}

// NewRNG returns a generator seeded with the given value. A zero seed is
// remapped to 1 so an unset seed still yields a fixed sequence.
func NewRNG(seed uint64) *RNG {
	if seed == 0 {
		seed = 1
	}
	return &RNG{state: seed}
}

// Uint64 advances the stream and returns the next raw draw.
func (r *RNG) Uint64() uint64 {
	r.state += 0x9E3779B97F4A7C15
	return mix64(r.state)
}

// Uint32 returns the high half of the next draw.
func (r *RNG) Uint32() uint32 {
	return uint32(r.Uint64() >> 32)
}

// Float64 returns the next draw mapped into [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Intn returns a draw in [0, n). Panics if n is not positive; callers
// control n, so a bad bound is a programming error.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		panic("sim: Intn bound must be positive")
	}
	return int(r.Uint64() % uint64(n))
}

// Roll returns a draw in the inclusive range [lo, hi].
func (r *RNG) Roll(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + r.Intn(hi-lo+1)
}

// Fork derives an independent child stream identified by label without
// advancing the parent. Equal parent state and label always produce the
// same child, so forked streams stay replay-safe.
func (r *RNG) Fork(label uint64) *RNG {
	seed := mix64(r.state ^ (label + 0x9E3779B97F4A7C15))
	if seed == 0 {
		seed = 1
	}
	return &RNG{state: seed}
}

// mix64 is the splitmix64 finalizer.
func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}
