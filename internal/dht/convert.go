package dht

const signBit = 0x8000

// converter maps raw 16-bit fields to physical values.
type converter struct {
	humidity    func(raw uint16) float32
	temperature func(raw uint16) float32
}

var converters = map[Family]converter{
	FamilyDHT11: {humidity: bytePairHumidity, temperature: bytePairTemperature},
	FamilyDHT22: {humidity: tenthsHumidity, temperature: tenthsTemperature},
}

// tenthsHumidity converts a DHT22 humidity field (tenths of %RH, unsigned).
func tenthsHumidity(raw uint16) float32 {
	return float32(raw) / 10.0
}

// tenthsTemperature converts a DHT22 temperature field: tenths of °C in the
// low 15 bits, sign in bit 15.
func tenthsTemperature(raw uint16) float32 {
	t := float32(raw&^signBit) / 10.0
	if raw&signBit != 0 {
		t = -t
	}
	return t
}

// bytePairHumidity converts a DHT11 humidity field: integer part in the high
// byte, tenths in the low byte.
func bytePairHumidity(raw uint16) float32 {
	return float32(raw>>8) + float32(raw&0xFF)*0.1
}

// bytePairTemperature converts a DHT11 temperature field. Bit 15 is the sign.
func bytePairTemperature(raw uint16) float32 {
	t := float32((raw&^signBit)>>8) + float32(raw&0xFF)*0.1
	if raw&signBit != 0 {
		t = -t
	}
	return t
}
