package playback

// Speeds are the playback rates offered by the player, slowest first.
var Speeds = []float64{0.5, 1, 1.25, 1.5, 1.75, 2}

// DefaultSpeed is the rate of a new controller.
const DefaultSpeed = 1.0

func speedIndex(rate float64) int {
	for i, s := range Speeds {
		if s == rate {
			return i
		}
	}
	return -1
}

// stepSpeed moves delta steps from rate, stopping at either end.
func stepSpeed(rate float64, delta int) float64 {
	i := speedIndex(rate)
	if i < 0 {
		i = speedIndex(DefaultSpeed)
	}
	i += delta
	switch {
	case i < 0:
		i = 0
	case i >= len(Speeds):
		i = len(Speeds) - 1
	}
	return Speeds[i]
}
