package climate

import (
	"context"
	"fmt"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
	"strings"
)

// Legacy is the single device climate entity of the legacy integration
type Legacy struct {
	api    *entity.Device
	device AtaDevice
}

func NewLegacy(api *entity.Device, device AtaDevice) *Legacy {
	return &Legacy{
		api:    api,
		device: device,
	}
}

func (c *Legacy) Name() string {
	return fmt.Sprintf("%s HVAC", c.api.Name())
}

func (c *Legacy) UniqueID() string {
	return fmt.Sprintf("%s-%s-climate", c.device.Serial(), c.device.MAC())
}

func (c *Legacy) DeviceInfo() entity.DeviceInfo {
	return c.api.DeviceInfo()
}

func (c *Legacy) ShouldPoll() bool {
	return true
}

func (c *Legacy) Available() bool {
	return c.api.Available()
}

func (c *Legacy) Update(ctx context.Context) error {
	return c.api.Update(ctx)
}

// State is the entity state, the current hvac mode
func (c *Legacy) State() string {
	return c.HvacMode()
}

// Precision returns the display precision for a host using hostUnit
func (c *Legacy) Precision(hostUnit string) float64 {
	if hostUnit == entity.TEMP_CELSIUS {
		return PRECISION_TENTHS
	}
	return PRECISION_WHOLE
}

func (c *Legacy) TemperatureUnit() string {
	return entity.TemperatureUnit(c.device.TempUnit())
}

func (c *Legacy) HvacMode() string {
	mode := c.device.OperationMode()
	if !c.device.Power() || mode == melcloud.OPERATION_MODE_UNDEFINED {
		return HVAC_MODE_OFF
	}
	hvacMode, _ := AtaHvacModes.Get(mode)
	return hvacMode
}

// SetHvacMode switches the unit off for "off". Other modes are set first and
// the unit is then turned on in a separate call if it was off.
func (c *Legacy) SetHvacMode(ctx context.Context, hvacMode string) error {
	if hvacMode == HVAC_MODE_OFF {
		return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_POWER: false})
	}
	operationMode, ok := AtaHvacModes.GetInverse(hvacMode)
	if !ok {
		return invalidHvacMode(hvacMode)
	}
	if err := c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_OPERATION_MODE: operationMode}); err != nil {
		return err
	}
	return c.TurnOn(ctx)
}

// HvacModes lists the supported modes. There is no explicit "off" entry.
func (c *Legacy) HvacModes() []string {
	var modes []string
	for _, mode := range c.device.OperationModes() {
		if hvacMode, ok := AtaHvacModes.Get(mode); ok {
			modes = append(modes, hvacMode)
		}
	}
	return modes
}

func (c *Legacy) CurrentTemperature() *float64 {
	return c.device.RoomTemperature()
}

func (c *Legacy) TargetTemperature() *float64 {
	return c.device.TargetTemperature()
}

func (c *Legacy) TargetTemperatureStep() *float64 {
	return c.device.TemperatureIncrement()
}

func (c *Legacy) SetTemperature(ctx context.Context, temperature *float64) error {
	t, err := targetOrCurrent(temperature, c.TargetTemperature())
	if err != nil {
		return err
	}
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_TARGET_TEMPERATURE: t})
}

// FanMode returns the fan speed with words separated by spaces, "speed 2"
func (c *Legacy) FanMode() string {
	return strings.ReplaceAll(c.device.FanSpeed(), "-", " ")
}

func (c *Legacy) FanModes() []string {
	speeds := c.device.FanSpeeds()
	if speeds == nil {
		return nil
	}
	modes := make([]string, len(speeds))
	for i, speed := range speeds {
		modes[i] = strings.ReplaceAll(speed, "-", " ")
	}
	return modes
}

func (c *Legacy) SetFanMode(ctx context.Context, fanMode string) error {
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_FAN_SPEED: strings.ReplaceAll(fanMode, " ", "-")})
}

func (c *Legacy) TurnOn(ctx context.Context) error {
	if c.device.Power() {
		return nil
	}
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_POWER: true})
}

func (c *Legacy) TurnOff(ctx context.Context) error {
	if !c.device.Power() {
		return nil
	}
	return c.api.Set(ctx, melcloud.Properties{melcloud.PROPERTY_POWER: false})
}

func (c *Legacy) SupportedFeatures() int {
	return SUPPORT_FAN_MODE | SUPPORT_TARGET_TEMPERATURE
}

func (c *Legacy) StateAttributes() map[string]interface{} {
	return map[string]interface{}{}
}

func (c *Legacy) MinTemp() float64 {
	return boundOrDefault(c.device.TargetTemperatureMin(), DEFAULT_MIN_TEMP, c.TemperatureUnit())
}

func (c *Legacy) MaxTemp() float64 {
	return boundOrDefault(c.device.TargetTemperatureMax(), DEFAULT_MAX_TEMP, c.TemperatureUnit())
}
