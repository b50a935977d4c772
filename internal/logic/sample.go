package logic

import (
	"time"

	"github.com/sweeney/dht-sensor/internal/dht"
)

// Reader is the part of a dht.Sensor that sampling uses.
type Reader interface {
	Read() (dht.Reading, error)
	LastOutcome() dht.Outcome
}

// ReadSample performs one read at time t and describes its result. A read
// error always yields a FAILED sample with the error's kind.
func ReadSample(r Reader, t time.Time) Sample {
	reading, err := r.Read()
	s := Sample{Time: t, Outcome: Outcome(r.LastOutcome())}
	if err != nil {
		s.Outcome = OutcomeFailed
		s.ErrKind = dht.Kind(err)
		s.Err = err.Error()
		return s
	}
	s.Temperature = reading.Temperature
	s.Humidity = reading.Humidity
	return s
}
