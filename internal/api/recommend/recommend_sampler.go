package recommend

import (
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// DefaultMaxAttemptsFactor bounds the draws per positively weighted zone
// before Sample gives up.
const DefaultMaxAttemptsFactor = 100

// ZoneSampler draws distinct zones from a weighted table.
// Zones with zero weight are kept out of the draw table and can never be chosen.
type ZoneSampler struct {
	mu                sync.Mutex
	rng               *rand.Rand
	zones             []types.Zone
	total             float64
	maxAttemptsFactor int
}

// NewZoneSampler builds a sampler over zones. rng is the injected randomness
// source; pass a seeded generator for reproducible draws.
func NewZoneSampler(zones []types.Zone, rng *rand.Rand, maxAttemptsFactor int) (*ZoneSampler, error) {
	if rng == nil {
		return nil, fmt.Errorf("%w: nil random source", types.ErrInvalidConfiguration)
	}
	if maxAttemptsFactor <= 0 {
		maxAttemptsFactor = DefaultMaxAttemptsFactor
	}

	s := &ZoneSampler{rng: rng, maxAttemptsFactor: maxAttemptsFactor}
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if z.Name == "" {
			return nil, fmt.Errorf("%w: zone with empty name", types.ErrInvalidConfiguration)
		}
		if z.Weight < 0 {
			return nil, fmt.Errorf("%w: zone %q has negative weight %v", types.ErrInvalidConfiguration, z.Name, z.Weight)
		}
		if _, dup := seen[z.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate zone %q", types.ErrInvalidConfiguration, z.Name)
		}
		seen[z.Name] = struct{}{}
		if z.Weight == 0 {
			continue
		}
		s.zones = append(s.zones, z)
		s.total += z.Weight
	}
	return s, nil
}

// Eligible returns how many zones have a positive weight.
func (s *ZoneSampler) Eligible() int {
	return len(s.zones)
}

// Sample draws k distinct zone names. Draws are with replacement by weight and
// repeats are rejected, so the result is in draw order.
func (s *ZoneSampler) Sample(k int) ([]string, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: zone count must be positive, got %d", types.ErrInvalidConfiguration, k)
	}
	if k > len(s.zones) {
		return nil, fmt.Errorf("%w: zone count %d exceeds %d positively weighted zones",
			types.ErrInvalidConfiguration, k, len(s.zones))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxAttempts := s.maxAttemptsFactor * len(s.zones)
	chosen := make([]string, 0, k)
	picked := make(map[string]struct{}, k)
	for attempts := 0; len(chosen) < k; attempts++ {
		if attempts >= maxAttempts {
			return nil, fmt.Errorf("%w: %d draws yielded only %d of %d distinct zones",
				types.ErrInvalidConfiguration, attempts, len(chosen), k)
		}
		name := s.draw()
		if _, ok := picked[name]; ok {
			continue
		}
		picked[name] = struct{}{}
		chosen = append(chosen, name)
	}
	return chosen, nil
}

func (s *ZoneSampler) draw() string {
	r := s.rng.Float64() * s.total
	cumulative := 0.0
	for _, z := range s.zones {
		cumulative += z.Weight
		if r < cumulative {
			return z.Name
		}
	}
	// float rounding can leave r just above the last cumulative sum
	return s.zones[len(s.zones)-1].Name
}
