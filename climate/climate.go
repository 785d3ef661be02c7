// Package climate adapts MELCloud devices to the host climate entity model:
// hvac mode, temperatures and fan speed. Every getter reads the vendor device,
// nothing is cached here.
package climate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
)

var ErrInvalidHvacMode = errors.New("invalid hvac_mode")
var ErrNotSupported = errors.New("operation not supported by this entity")
var ErrNoTargetTemperature = errors.New("no temperature given and no current target")

// Climate is what the bridge needs from a climate entity
type Climate interface {
	entity.Entity
	TemperatureUnit() string
	HvacMode() string
	HvacModes() []string
	SetHvacMode(ctx context.Context, hvacMode string) error
	CurrentTemperature() *float64
	TargetTemperature() *float64
	TargetTemperatureStep() *float64
	SetTemperature(ctx context.Context, temperature *float64) error
	FanMode() string
	FanModes() []string
	SetFanMode(ctx context.Context, fanMode string) error
	MinTemp() float64
	MaxTemp() float64
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
	SupportedFeatures() int
	StateAttributes() map[string]interface{}
}

// AtaDevice is the air-to-air device contract used by the adapters
type AtaDevice interface {
	entity.VendorDevice
	TempUnit() melcloud.TempUnit
	Power() bool
	OperationMode() melcloud.OperationMode
	OperationModes() []melcloud.OperationMode
	RoomTemperature() *float64
	TargetTemperature() *float64
	TargetTemperatureMin() *float64
	TargetTemperatureMax() *float64
	TemperatureIncrement() *float64
	FanSpeed() string
	FanSpeeds() []string
}

// AtwDevice is the air-to-water device contract used by the adapters
type AtwDevice interface {
	entity.VendorDevice
	TempUnit() melcloud.TempUnit
	Power() bool
	TemperatureIncrement() *float64
}

// Zone is one heating circuit of an AtwDevice
type Zone interface {
	ZoneIndex() int
	Name() string
	RoomTemperature() *float64
	TargetTemperature() *float64
	OperationMode() (melcloud.ZoneOperationMode, bool)
	Status() melcloud.ZoneStatus
}

type zoned interface {
	Zones() []*melcloud.Zone
}

// NewEntities builds the current generation entities of an account: one per
// air-to-air unit followed by one per zone of every air-to-water unit.
func NewEntities(account *entity.Account) []Climate {
	var entities []Climate
	for _, d := range account.Ata {
		ata, ok := d.Vendor().(AtaDevice)
		if !ok {
			slog.Warn("Skipping device without air-to-air support", "device", d.Name())
			continue
		}
		entities = append(entities, NewAta(d, ata))
	}
	for _, d := range account.Atw {
		atw, ok := d.Vendor().(AtwDevice)
		if !ok {
			slog.Warn("Skipping device without air-to-water support", "device", d.Name())
			continue
		}
		for _, zone := range zonesOf(atw) {
			entities = append(entities, NewAtwZone(d, atw, zone))
		}
	}
	return entities
}

// NewLegacyEntities builds one legacy entity per device. The legacy integration
// only knows air-to-air units, other devices are skipped.
func NewLegacyEntities(devices []*entity.Device) []Climate {
	var entities []Climate
	for _, d := range devices {
		ata, ok := d.Vendor().(AtaDevice)
		if !ok {
			slog.Info("Legacy integration ignores device", "device", d.Name())
			continue
		}
		entities = append(entities, NewLegacy(d, ata))
	}
	return entities
}

func zonesOf(atw AtwDevice) []Zone {
	z, ok := atw.(zoned)
	if !ok {
		return nil
	}
	var zones []Zone
	for _, zone := range z.Zones() {
		zones = append(zones, zone)
	}
	return zones
}

// targetOrCurrent picks the requested temperature or falls back to the current target
func targetOrCurrent(requested, current *float64) (float64, error) {
	if requested != nil {
		return *requested, nil
	}
	if current != nil {
		return *current, nil
	}
	return 0, ErrNoTargetTemperature
}

func invalidHvacMode(hvacMode string) error {
	return fmt.Errorf("%w [%s]", ErrInvalidHvacMode, hvacMode)
}
