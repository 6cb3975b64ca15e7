package anomaly

// rollingWindow keeps the last size values in a fixed-capacity ring.
type rollingWindow struct {
	values []float64
	next   int
	filled int
}

func newRollingWindow(size int) *rollingWindow {
	if size < 1 {
		size = 1
	}
	return &rollingWindow{values: make([]float64, size)}
}

// Push adds v and returns the mean of the values currently held, which is at
// most size of the most recent ones.
func (w *rollingWindow) Push(v float64) float64 {
	w.values[w.next] = v
	w.next = (w.next + 1) % len(w.values)
	if w.filled < len(w.values) {
		w.filled++
	}

	// Summed from scratch so no error accumulates over long series.
	sum := 0.0
	for i := 0; i < w.filled; i++ {
		sum += w.values[i]
	}
	return sum / float64(w.filled)
}
