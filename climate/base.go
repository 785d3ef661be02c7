package climate

import (
	"context"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
)

type baseDevice interface {
	TempUnit() melcloud.TempUnit
	Power() bool
	TemperatureIncrement() *float64
}

// base is shared by the current generation entities
type base struct {
	api        *entity.Device
	baseDevice baseDevice
}

func (c *base) DeviceInfo() entity.DeviceInfo {
	return c.api.DeviceInfo()
}

func (c *base) ShouldPoll() bool {
	return true
}

func (c *base) Available() bool {
	return c.api.Available()
}

func (c *base) Update(ctx context.Context) error {
	return c.api.Update(ctx)
}

func (c *base) TemperatureUnit() string {
	return entity.TemperatureUnit(c.baseDevice.TempUnit())
}

func (c *base) TargetTemperatureStep() *float64 {
	return c.baseDevice.TemperatureIncrement()
}

func (c *base) TurnOn(ctx context.Context) error {
	if c.baseDevice.Power() {
		return nil
	}
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_POWER: true})
}

func (c *base) TurnOff(ctx context.Context) error {
	if !c.baseDevice.Power() {
		return nil
	}
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_POWER: false})
}
