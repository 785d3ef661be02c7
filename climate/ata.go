package climate

import (
	"context"
	"fmt"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
)

// Ata is an air-to-air unit climate entity
type Ata struct {
	base
	device AtaDevice
}

func NewAta(api *entity.Device, device AtaDevice) *Ata {
	return &Ata{
		base:   base{api: api, baseDevice: device},
		device: device,
	}
}

func (c *Ata) Name() string {
	return c.api.Name()
}

func (c *Ata) UniqueID() string {
	return fmt.Sprintf("%s-%s", c.device.Serial(), c.device.MAC())
}

func (c *Ata) HvacMode() string {
	mode := c.device.OperationMode()
	if !c.device.Power() || mode == melcloud.OPERATION_MODE_UNDEFINED {
		return HVAC_MODE_OFF
	}
	hvacMode, _ := AtaHvacModes.Get(mode)
	return hvacMode
}

// SetHvacMode sends the new mode, and power when the unit is off, in one call
func (c *Ata) SetHvacMode(ctx context.Context, hvacMode string) error {
	if hvacMode == HVAC_MODE_OFF {
		return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_POWER: false})
	}
	operationMode, ok := AtaHvacModes.GetInverse(hvacMode)
	if !ok {
		return invalidHvacMode(hvacMode)
	}
	props := melcloud.Properties{melcloud.PROPERTY_OPERATION_MODE: operationMode}
	if c.HvacMode() == HVAC_MODE_OFF {
		props[melcloud.PROPERTY_POWER] = true
	}
	return c.api.Set(ctx, props)
}

func (c *Ata) HvacModes() []string {
	modes := []string{HVAC_MODE_OFF}
	for _, mode := range c.device.OperationModes() {
		if hvacMode, ok := AtaHvacModes.Get(mode); ok {
			modes = append(modes, hvacMode)
		}
	}
	return modes
}

func (c *Ata) CurrentTemperature() *float64 {
	return c.device.RoomTemperature()
}

func (c *Ata) TargetTemperature() *float64 {
	return c.device.TargetTemperature()
}

func (c *Ata) SetTemperature(ctx context.Context, temperature *float64) error {
	t, err := targetOrCurrent(temperature, c.TargetTemperature())
	if err != nil {
		return err
	}
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_TARGET_TEMPERATURE: t})
}

func (c *Ata) FanMode() string {
	return c.device.FanSpeed()
}

func (c *Ata) FanModes() []string {
	return c.device.FanSpeeds()
}

func (c *Ata) SetFanMode(ctx context.Context, fanMode string) error {
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_FAN_SPEED: fanMode})
}

func (c *Ata) SupportedFeatures() int {
	return SUPPORT_FAN_MODE | SUPPORT_TARGET_TEMPERATURE
}

func (c *Ata) StateAttributes() map[string]interface{} {
	return map[string]interface{}{}
}

func (c *Ata) MinTemp() float64 {
	return boundOrDefault(c.device.TargetTemperatureMin(), DEFAULT_MIN_TEMP, c.TemperatureUnit())
}

func (c *Ata) MaxTemp() float64 {
	return boundOrDefault(c.device.TargetTemperatureMax(), DEFAULT_MAX_TEMP, c.TemperatureUnit())
}
