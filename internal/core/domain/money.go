package domain

import (
	"fmt"
	"math"
)

// Money is an amount in minor currency units (paise), so 2 decimal places.
type Money int64

// Float64 returns the amount in major units.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// Mul multiplies by a whole number of units.
func (m Money) Mul(units int) Money {
	return m * Money(units)
}

// Scale applies a multiplicative factor and rounds half away from zero.
func (m Money) Scale(factor float64) Money {
	return Money(math.Round(float64(m) * factor))
}

func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}
