package scenario

import (
	"math"
	"math/rand"
)

// noise2D is seeded 2D gradient noise in roughly [-1, 1].
type noise2D struct {
	perm [512]int
}

func newNoise2D(seed int64) *noise2D {
	n := &noise2D{}
	rng := rand.New(rand.NewSource(seed))
	base := rng.Perm(256)
	for i := 0; i < 256; i++ {
		n.perm[i] = base[i]
		n.perm[i+256] = base[i]
	}
	return n
}

func (n *noise2D) at(x, y float64) float64 {
	xi := int(math.Floor(x)) & 255
	yi := int(math.Floor(y)) & 255
	x -= math.Floor(x)
	y -= math.Floor(y)
	u, v := smoothstep5(x), smoothstep5(y)

	a := n.perm[xi] + yi
	b := n.perm[xi+1] + yi
	top := mix(u, corner(n.perm[a], x, y), corner(n.perm[b], x-1, y))
	bottom := mix(u, corner(n.perm[a+1], x, y-1), corner(n.perm[b+1], x-1, y-1))
	return mix(v, top, bottom)
}

// fractal sums octaves of noise, each at double frequency and half weight.
func (n *noise2D) fractal(x, y float64, octaves int) float64 {
	sum, amp, norm := 0.0, 1.0, 0.0
	for i := 0; i < octaves; i++ {
		sum += amp * n.at(x, y)
		norm += amp
		amp *= 0.5
		x *= 2
		y *= 2
	}
	if norm == 0 {
		return 0
	}
	return sum / norm
}

func smoothstep5(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

func mix(t, a, b float64) float64 {
	return a + t*(b-a)
}

// corner picks one of eight gradient directions from the hash.
func corner(hash int, x, y float64) float64 {
	switch hash & 7 {
	case 0:
		return x + y
	case 1:
		return -x + y
	case 2:
		return x - y
	case 3:
		return -x - y
	case 4:
		return x
	case 5:
		return -x
	case 6:
		return y
	default:
		return -y
	}
}
