package gpio

import (
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// Nominal reply timing of a DHT sensor.
const (
	responseLow  = 80 * time.Microsecond
	responseHigh = 80 * time.Microsecond
	bitLow       = 50 * time.Microsecond
	zeroHigh     = 27 * time.Microsecond
	oneHigh      = 70 * time.Microsecond
)

// FakeEdges returns the edges a sensor produces when transmitting s,
// starting at the given timestamp. Used to exercise DecodeEdges without
// hardware.
func FakeEdges(s dht.RawSample, start time.Duration) []Edge {
	at := start
	edges := []Edge{{Rising: false, At: at}}

	at += responseLow
	edges = append(edges, Edge{Rising: true, At: at})
	at += responseHigh
	edges = append(edges, Edge{Rising: false, At: at})

	emit := func(bit bool) {
		at += bitLow
		edges = append(edges, Edge{Rising: true, At: at})
		if bit {
			at += oneHigh
		} else {
			at += zeroHigh
		}
		edges = append(edges, Edge{Rising: false, At: at})
	}
	for i := 31; i >= 0; i-- {
		emit(s.Combined&(1<<uint(i)) != 0)
	}
	for i := 7; i >= 0; i-- {
		emit(s.Checksum&(1<<uint(i)) != 0)
	}

	// line released after the final low
	at += bitLow
	return append(edges, Edge{Rising: true, At: at})
}
