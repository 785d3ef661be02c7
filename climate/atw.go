package climate

import (
	"context"
	"fmt"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
)

// AtwZone is the climate entity of one air-to-water zone
type AtwZone struct {
	base
	device AtwDevice
	zone   Zone
}

func NewAtwZone(api *entity.Device, device AtwDevice, zone Zone) *AtwZone {
	return &AtwZone{
		base:   base{api: api, baseDevice: device},
		device: device,
		zone:   zone,
	}
}

func (c *AtwZone) Name() string {
	return fmt.Sprintf("%s %s", c.api.Name(), c.zone.Name())
}

func (c *AtwZone) UniqueID() string {
	return fmt.Sprintf("%s-%s-%d", c.device.Serial(), c.device.MAC(), c.zone.ZoneIndex())
}

// StateAttributes adds the zone status, translated when it has a host mode
func (c *AtwZone) StateAttributes() map[string]interface{} {
	status := c.zone.Status()
	attr, ok := ZoneStatuses.Get(status)
	if !ok {
		attr = string(status)
	}
	return map[string]interface{}{ATTR_STATUS: attr}
}

func (c *AtwZone) HvacMode() string {
	mode, known := c.zone.OperationMode()
	if !c.device.Power() || !known {
		return HVAC_MODE_OFF
	}
	hvacMode, ok := AtwZoneHvacModes.Get(mode)
	if !ok {
		return HVAC_MODE_OFF
	}
	return hvacMode
}

func (c *AtwZone) SetHvacMode(ctx context.Context, hvacMode string) error {
	if hvacMode == HVAC_MODE_OFF {
		return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_POWER: false})
	}
	operationMode, ok := AtwZoneHvacModes.GetInverse(hvacMode)
	if !ok {
		return invalidHvacMode(hvacMode)
	}
	props := melcloud.Properties{c.zoneProperty(melcloud.PROPERTY_ZONE_1_OPERATION_MODE, melcloud.PROPERTY_ZONE_2_OPERATION_MODE): operationMode}
	if c.HvacMode() == HVAC_MODE_OFF {
		props[melcloud.PROPERTY_POWER] = true
	}
	return c.api.Set(ctx, props)
}

// HvacModes only reports the active mode.
// TODO: enumerate the zone modes once the unit reports its cooling capability.
func (c *AtwZone) HvacModes() []string {
	return []string{c.HvacMode()}
}

func (c *AtwZone) CurrentTemperature() *float64 {
	return c.zone.RoomTemperature()
}

func (c *AtwZone) TargetTemperature() *float64 {
	return c.zone.TargetTemperature()
}

func (c *AtwZone) SetTemperature(ctx context.Context, temperature *float64) error {
	t, err := targetOrCurrent(temperature, c.TargetTemperature())
	if err != nil {
		return err
	}
	key := c.zoneProperty(melcloud.PROPERTY_ZONE_1_TARGET_TEMPERATURE, melcloud.PROPERTY_ZONE_2_TARGET_TEMPERATURE)
	return c.api.Set(ctx, melcloud.Properties{key: t})
}

// zoneProperty picks the zone 1 or zone 2 variant of a property
func (c *AtwZone) zoneProperty(zone1, zone2 string) string {
	if c.zone.ZoneIndex() != 1 {
		return zone2
	}
	return zone1
}

func (c *AtwZone) FanMode() string {
	return ""
}

func (c *AtwZone) FanModes() []string {
	return nil
}

func (c *AtwZone) SetFanMode(ctx context.Context, fanMode string) error {
	return ErrNotSupported
}

func (c *AtwZone) SupportedFeatures() int {
	return SUPPORT_TARGET_TEMPERATURE
}

// MinTemp is a fixed 10 °C until the zone limits are read from the unit
func (c *AtwZone) MinTemp() float64 {
	return ConvertTemperature(DEFAULT_MIN_TEMP, entity.TEMP_CELSIUS, c.TemperatureUnit())
}

func (c *AtwZone) MaxTemp() float64 {
	return ConvertTemperature(DEFAULT_MAX_TEMP, entity.TEMP_CELSIUS, c.TemperatureUnit())
}
