package simulator

import (
	"errors"
	"fmt"
	"time"
)

// Rand is the randomness the producer needs. *rand.Rand from math/rand/v2
// satisfies it; tests substitute fixed values.
type Rand interface {
	IntN(n int) int
	Int64N(n int64) int64
	Float64() float64
}

// Policy holds the tunables of the synthetic shop.
type Policy struct {
	// BasketSizeWeights[i] is the weight of buying i+1 distinct items.
	BasketSizeWeights []int
	// UnitsPerItemWeights[i] is the weight of buying i+1 units of one item.
	UnitsPerItemWeights []int
	PriceJitterMin      float64
	PriceJitterMax      float64
	MinWait             time.Duration
	MaxWait             time.Duration
	CooldownOnError     time.Duration
	// PersistTimeout bounds one RecordSale call; it is not tied to shutdown.
	PersistTimeout time.Duration
}

// DefaultPolicy mirrors the corner-shop pacing: mostly single-item baskets,
// roughly one customer a minute.
func DefaultPolicy() Policy {
	return Policy{
		BasketSizeWeights:   []int{70, 20, 10},
		UnitsPerItemWeights: []int{90, 10},
		PriceJitterMin:      0.99,
		PriceJitterMax:      1.01,
		MinWait:             40 * time.Second,
		MaxWait:             90 * time.Second,
		CooldownOnError:     10 * time.Second,
		PersistTimeout:      10 * time.Second,
	}
}

// Validate checks the policy for impossible values.
func (p Policy) Validate() error {
	if err := validateWeights("basket size", p.BasketSizeWeights); err != nil {
		return err
	}
	if err := validateWeights("units per item", p.UnitsPerItemWeights); err != nil {
		return err
	}
	if p.PriceJitterMin <= 0 || p.PriceJitterMax < p.PriceJitterMin {
		return fmt.Errorf("invalid price jitter range [%v, %v]", p.PriceJitterMin, p.PriceJitterMax)
	}
	if p.MinWait < 0 || p.MaxWait < p.MinWait {
		return fmt.Errorf("invalid wait range [%s, %s]", p.MinWait, p.MaxWait)
	}
	if p.CooldownOnError <= 0 {
		return errors.New("cooldown on error must be positive")
	}
	if p.PersistTimeout <= 0 {
		return errors.New("persist timeout must be positive")
	}
	return nil
}

func validateWeights(name string, weights []int) error {
	if len(weights) == 0 {
		return fmt.Errorf("%s weights must not be empty", name)
	}
	sum := 0
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s weights must not be negative", name)
		}
		sum += w
	}
	if sum == 0 {
		return fmt.Errorf("%s weights must not all be zero", name)
	}
	return nil
}

// pickWeighted returns a 1-based choice drawn from weights.
func pickWeighted(rnd Rand, weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := rnd.IntN(total)
	for i, w := range weights {
		if roll < w {
			return i + 1
		}
		roll -= w
	}
	return len(weights)
}

// jitter draws a price factor uniformly from [min, max].
func (p Policy) jitter(rnd Rand) float64 {
	return p.PriceJitterMin + rnd.Float64()*(p.PriceJitterMax-p.PriceJitterMin)
}

// nextWait draws the inter-visit sleep uniformly from [MinWait, MaxWait].
func (p Policy) nextWait(rnd Rand) time.Duration {
	span := int64(p.MaxWait - p.MinWait)
	if span <= 0 {
		return p.MinWait
	}
	return p.MinWait + time.Duration(rnd.Int64N(span+1))
}
