package dht

import (
	"math"

	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// Weather returns the reading in periph's typed units.
func (r Reading) Weather() (physic.Temperature, physic.RelativeHumidity) {
	t := physic.ZeroCelsius + physic.Temperature(math.Round(float64(r.Temperature)*1000))*physic.MilliCelsius
	h := physic.RelativeHumidity(math.Round(float64(r.Humidity)*10)) * physic.PercentRH / 10
	return t, h
}

// Fahrenheit returns the temperature in °F.
func (r Reading) Fahrenheit() float64 {
	t, _ := r.Weather()
	return t.Fahrenheit()
}

var _ drivers.Sensor = (*Sensor)(nil)

// Update reads the sensor so that Temperature and Humidity report current
// values. It follows the tinygo drivers.Sensor contract; measurements other
// than temperature and humidity are ignored.
func (s *Sensor) Update(which drivers.Measurement) error {
	if which&(drivers.Temperature|drivers.Humidity) == 0 {
		return nil
	}
	_, err := s.Read()
	return err
}

// Temperature returns the last good temperature in milli-degrees Celsius.
func (s *Sensor) Temperature() int32 {
	return int32(math.Round(float64(s.last.Temperature) * 1000))
}

// Humidity returns the last good relative humidity in hundredths of a percent.
func (s *Sensor) Humidity() int32 {
	return int32(math.Round(float64(s.last.Humidity) * 100))
}
