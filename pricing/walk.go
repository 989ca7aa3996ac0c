package pricing

import (
	"context"
	"math/rand"
	"time"
)

// RandomWalk is a TickSource whose price moves by a uniform random step
// in [-Step, Step) on every call.
type RandomWalk struct {
	rng   *rand.Rand
	price float64
	step  float64
}

// NewRandomWalk starts a walk at price. A zero seed uses the current time.
func NewRandomWalk(price, step float64, seed int64) *RandomWalk {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if step <= 0 {
		step = 2
	}
	return &RandomWalk{
		rng:   rand.New(rand.NewSource(seed)),
		price: price,
		step:  step,
	}
}

func (w *RandomWalk) Next(ctx context.Context) (Tick, error) {
	if err := ctx.Err(); err != nil {
		return Tick{}, err
	}
	w.price += (w.rng.Float64()*2 - 1) * w.step
	return Tick{Price: w.price}, nil
}

// Rand exposes the walk's random source so history seeding shares the seed.
func (w *RandomWalk) Rand() *rand.Rand {
	return w.rng
}

// Price returns the last generated price.
func (w *RandomWalk) Price() float64 {
	return w.price
}

// SetPrice moves the walk to p, e.g. after history seeding.
func (w *RandomWalk) SetPrice(p float64) {
	w.price = p
}
