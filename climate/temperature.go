package climate

import "melcloud2mqtt/entity"

// ConvertTemperature converts between host temperature units
func ConvertTemperature(value float64, from, to string) float64 {
	if from == to {
		return value
	}
	if from == entity.TEMP_CELSIUS && to == entity.TEMP_FAHRENHEIT {
		return value*9/5 + 32
	}
	if from == entity.TEMP_FAHRENHEIT && to == entity.TEMP_CELSIUS {
		return (value - 32) * 5 / 9
	}
	return value
}

// boundOrDefault returns the device bound when reported, else the Celsius default in unit
func boundOrDefault(bound *float64, celsius float64, unit string) float64 {
	if bound != nil {
		return *bound
	}
	return ConvertTemperature(celsius, entity.TEMP_CELSIUS, unit)
}
