package dht

import "fmt"

// layout describes where each 16-bit field sits in the combined data word.
// Both families transmit humidity first, most significant byte first.
type layout struct {
	humidityShift    uint
	temperatureShift uint
}

var layouts = map[Family]layout{
	FamilyDHT11: {humidityShift: 16, temperatureShift: 0},
	FamilyDHT22: {humidityShift: 16, temperatureShift: 0},
}

// Fields splits a combined word into its raw humidity and temperature fields.
func (f Family) Fields(combined uint32) (humidity, temperature uint16) {
	l := layouts[f]
	return uint16(combined >> l.humidityShift), uint16(combined >> l.temperatureShift)
}

// Checksum returns the 8-bit sum of the four data bytes of the two fields.
func Checksum(humidity, temperature uint16) uint8 {
	sum := uint16(humidity>>8) + uint16(humidity&0xFF) +
		uint16(temperature>>8) + uint16(temperature&0xFF)
	return uint8(sum & 0xFF)
}

// Pack builds the raw sample a sensor would transmit for the given fields.
func Pack(humidity, temperature uint16) RawSample {
	return RawSample{
		Combined: uint32(humidity)<<16 | uint32(temperature),
		Checksum: Checksum(humidity, temperature),
	}
}

// DecodeFields validates the checksum of s and returns its raw fields.
// No correction is attempted on a mismatch.
func DecodeFields(f Family, s RawSample) (humidity, temperature uint16, err error) {
	humidity, temperature = f.Fields(s.Combined)
	if sum := Checksum(humidity, temperature); sum != s.Checksum {
		return 0, 0, fmt.Errorf("%w: computed 0x%02x, received 0x%02x", ErrChecksum, sum, s.Checksum)
	}
	return humidity, temperature, nil
}

// Decode validates s and converts it to physical units. The humidity range is
// not checked here; the caller decides what to do with implausible values.
func Decode(f Family, s RawSample) (Reading, error) {
	if err := f.Validate(); err != nil {
		return Reading{}, err
	}
	h, t, err := DecodeFields(f, s)
	if err != nil {
		return Reading{}, err
	}
	c := converters[f]
	return Reading{
		Humidity:    c.humidity(h),
		Temperature: c.temperature(t),
	}, nil
}
