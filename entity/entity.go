// Package entity holds what climate and sensor entities share: the identity
// contract the bridge publishes, and the Device wrapper that throttles
// refreshes of one MELCloud device and tracks whether it is reachable.
package entity

import (
	"context"
	"melcloud2mqtt/bimap"
	"melcloud2mqtt/melcloud"
)

const MANUFACTURER = "Mitsubishi Electric"

const DOMAIN_LEGACY = "melcloud"
const DOMAIN_CURRENT = "melcloudexp"

const TEMP_CELSIUS = "°C"
const TEMP_FAHRENHEIT = "°F"

// TempUnits maps the vendor unit codes to host units
var TempUnits = bimap.New(map[melcloud.TempUnit]string{
	melcloud.UNIT_TEMP_CELSIUS:    TEMP_CELSIUS,
	melcloud.UNIT_TEMP_FAHRENHEIT: TEMP_FAHRENHEIT,
})

// TemperatureUnit returns the host unit for a vendor unit code, Celsius when unknown
func TemperatureUnit(code melcloud.TempUnit) string {
	unit, ok := TempUnits.Get(code)
	if !ok {
		return TEMP_CELSIUS
	}
	return unit
}

// Entity is the identity part of everything the bridge exposes
type Entity interface {
	Name() string
	UniqueID() string
	DeviceInfo() DeviceInfo
	ShouldPoll() bool
	Available() bool
	Update(ctx context.Context) error
}

// Identifier is a (domain, id) pair grouping entities under one device
type Identifier [2]string

// DeviceInfo describes the physical device an entity belongs to
type DeviceInfo struct {
	Identifiers  []Identifier
	Manufacturer string
	Name         string
}
