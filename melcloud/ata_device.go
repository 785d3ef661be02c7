package melcloud

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// ataState is the Device/Get and Device/SetAta payload of an air-to-air unit
type ataState struct {
	DeviceID          int           `json:"DeviceID"`
	DeviceType        int           `json:"DeviceType"`
	Power             bool          `json:"Power"`
	RoomTemperature   *float64      `json:"RoomTemperature"`
	SetTemperature    *float64      `json:"SetTemperature"`
	OperationMode     OperationMode `json:"OperationMode"`
	SetFanSpeed       int           `json:"SetFanSpeed"`
	VaneHorizontal    int           `json:"VaneHorizontal"`
	VaneVertical      int           `json:"VaneVertical"`
	EffectiveFlags    int64         `json:"EffectiveFlags"`
	HasPendingCommand bool          `json:"HasPendingCommand"`
}

// AtaDevice is an air-to-air heat pump
type AtaDevice struct {
	device
	state *ataState
}

func newAtaDevice(client *Client, conf deviceConf) *AtaDevice {
	return &AtaDevice{device: device{client: client, conf: conf}}
}

// Update refreshes the device configurations, within the client throttle,
// then fetches the current device state
func (d *AtaDevice) Update(ctx context.Context) error {
	if err := d.client.UpdateConfs(ctx); err != nil {
		return err
	}
	var state ataState
	if err := d.getState(ctx, &state); err != nil {
		return err
	}
	d.lock.Lock()
	d.state = &state
	d.lock.Unlock()
	return nil
}

// Set applies the given properties and posts the change in a single request
func (d *AtaDevice) Set(ctx context.Context, props Properties) error {
	d.lock.RLock()
	if d.state == nil {
		d.lock.RUnlock()
		return ErrNoState
	}
	next := *d.state
	numFanSpeeds := d.conf.Device.NumberOfFanSpeeds
	d.lock.RUnlock()

	next.EffectiveFlags = 0
	for key := range props {
		switch key {
		case PROPERTY_POWER:
			power, err := boolProperty(props, key)
			if err != nil {
				return err
			}
			next.Power = power
			next.EffectiveFlags |= ataFlagPower
		case PROPERTY_OPERATION_MODE:
			mode, ok := props[key].(OperationMode)
			if !ok {
				return fmt.Errorf("%w: %s must be an OperationMode, got %T", ErrInvalidProperty, key, props[key])
			}
			next.OperationMode = mode
			next.EffectiveFlags |= ataFlagOperationMode
		case PROPERTY_TARGET_TEMPERATURE:
			t, err := floatProperty(props, key)
			if err != nil {
				return err
			}
			next.SetTemperature = &t
			next.EffectiveFlags |= ataFlagTargetTemperature
		case PROPERTY_FAN_SPEED:
			name, ok := props[key].(string)
			if !ok {
				return fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidProperty, key, props[key])
			}
			speed, err := parseFanSpeed(name, numFanSpeeds)
			if err != nil {
				return err
			}
			next.SetFanSpeed = speed
			next.EffectiveFlags |= ataFlagFanSpeed
		default:
			return fmt.Errorf("%w: %s", ErrInvalidProperty, key)
		}
	}
	next.HasPendingCommand = true

	var updated ataState
	if err := d.postState(ctx, "/Device/SetAta", &next, &updated); err != nil {
		return err
	}
	d.lock.Lock()
	d.state = &updated
	d.lock.Unlock()
	return nil
}

// Power returns whether the unit is on
func (d *AtaDevice) Power() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.state != nil && d.state.Power
}

// OperationMode returns the active mode, OPERATION_MODE_UNDEFINED if unknown
func (d *AtaDevice) OperationMode() OperationMode {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil {
		return OPERATION_MODE_UNDEFINED
	}
	return d.state.OperationMode
}

// OperationModes lists the modes supported by the unit model
func (d *AtaDevice) OperationModes() []OperationMode {
	d.lock.RLock()
	defer d.lock.RUnlock()
	conf := d.conf.Device
	var modes []OperationMode
	if conf.ModelSupportsHeat {
		modes = append(modes, OPERATION_MODE_HEAT)
	}
	if conf.ModelSupportsDry {
		modes = append(modes, OPERATION_MODE_DRY)
	}
	modes = append(modes, OPERATION_MODE_COOL, OPERATION_MODE_FAN_ONLY)
	if conf.ModelSupportsAuto {
		modes = append(modes, OPERATION_MODE_HEAT_COOL)
	}
	return modes
}

// RoomTemperature returns the measured room temperature
func (d *AtaDevice) RoomTemperature() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil {
		return nil
	}
	return d.state.RoomTemperature
}

// TargetTemperature returns the set point
func (d *AtaDevice) TargetTemperature() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil {
		return nil
	}
	return d.state.SetTemperature
}

// TargetTemperatureMin returns the lowest set point allowed in the active mode
func (d *AtaDevice) TargetTemperatureMin() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil {
		return nil
	}
	switch d.state.OperationMode {
	case OPERATION_MODE_HEAT:
		return d.conf.Device.MinTempHeat
	case OPERATION_MODE_COOL, OPERATION_MODE_DRY:
		return d.conf.Device.MinTempCoolDry
	case OPERATION_MODE_HEAT_COOL:
		return d.conf.Device.MinTempAutomatic
	}
	return nil
}

// TargetTemperatureMax returns the highest set point allowed in the active mode
func (d *AtaDevice) TargetTemperatureMax() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil {
		return nil
	}
	switch d.state.OperationMode {
	case OPERATION_MODE_HEAT:
		return d.conf.Device.MaxTempHeat
	case OPERATION_MODE_COOL, OPERATION_MODE_DRY:
		return d.conf.Device.MaxTempCoolDry
	case OPERATION_MODE_HEAT_COOL:
		return d.conf.Device.MaxTempAutomatic
	}
	return nil
}

// FanSpeed returns the fan speed name, empty if unknown
func (d *AtaDevice) FanSpeed() string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil || !d.conf.Device.ModelSupportsFanSpeed {
		return ""
	}
	return fanSpeedName(d.state.SetFanSpeed)
}

// FanSpeeds lists the fan speeds of the unit, nil if the model has no fan control
func (d *AtaDevice) FanSpeeds() []string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if !d.conf.Device.ModelSupportsFanSpeed {
		return nil
	}
	speeds := []string{FAN_SPEED_AUTO}
	for n := 1; n <= d.conf.Device.NumberOfFanSpeeds; n++ {
		speeds = append(speeds, fanSpeedName(n))
	}
	return speeds
}

// TotalEnergyConsumed returns the lifetime energy counter in kWh
func (d *AtaDevice) TotalEnergyConsumed() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	wh := d.conf.Device.CurrentEnergyConsumed
	if wh == nil {
		return nil
	}
	kwh := *wh / 1000
	return &kwh
}

func fanSpeedName(speed int) string {
	if speed == 0 {
		return FAN_SPEED_AUTO
	}
	return "speed-" + strconv.Itoa(speed)
}

func parseFanSpeed(name string, numSpeeds int) (int, error) {
	if name == FAN_SPEED_AUTO {
		return 0, nil
	}
	speed, err := strconv.Atoi(strings.TrimPrefix(name, "speed-"))
	if err != nil || !strings.HasPrefix(name, "speed-") || speed < 1 || speed > numSpeeds {
		return 0, fmt.Errorf("%w: unknown fan speed %q", ErrInvalidProperty, name)
	}
	return speed, nil
}
