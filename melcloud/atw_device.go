package melcloud

import (
	"context"
	"fmt"
)

// atwState is the Device/Get and Device/SetAtw payload of an air-to-water unit
type atwState struct {
	DeviceID                int               `json:"DeviceID"`
	DeviceType              int               `json:"DeviceType"`
	Power                   bool              `json:"Power"`
	OutdoorTemperature      *float64          `json:"OutdoorTemperature"`
	TankWaterTemperature    *float64          `json:"TankWaterTemperature"`
	SetTankWaterTemperature *float64          `json:"SetTankWaterTemperature"`
	OperationModeZone1      ZoneOperationMode `json:"OperationModeZone1"`
	OperationModeZone2      ZoneOperationMode `json:"OperationModeZone2"`
	RoomTemperatureZone1    *float64          `json:"RoomTemperatureZone1"`
	RoomTemperatureZone2    *float64          `json:"RoomTemperatureZone2"`
	SetTemperatureZone1     *float64          `json:"SetTemperatureZone1"`
	SetTemperatureZone2     *float64          `json:"SetTemperatureZone2"`
	IdleZone1               bool              `json:"IdleZone1"`
	IdleZone2               bool              `json:"IdleZone2"`
	EffectiveFlags          int64             `json:"EffectiveFlags"`
	HasPendingCommand       bool              `json:"HasPendingCommand"`
}

// AtwDevice is an air-to-water heat pump with one or two heating zones
type AtwDevice struct {
	device
	state *atwState
	zones []*Zone
}

func newAtwDevice(client *Client, conf deviceConf) *AtwDevice {
	d := &AtwDevice{device: device{client: client, conf: conf}}
	d.zones = append(d.zones, &Zone{device: d, index: 1})
	if conf.Device.HasZone2 {
		d.zones = append(d.zones, &Zone{device: d, index: 2})
	}
	return d
}

// Update refreshes the device configurations, within the client throttle,
// then fetches the current device state
func (d *AtwDevice) Update(ctx context.Context) error {
	if err := d.client.UpdateConfs(ctx); err != nil {
		return err
	}
	var state atwState
	if err := d.getState(ctx, &state); err != nil {
		return err
	}
	d.lock.Lock()
	d.state = &state
	d.lock.Unlock()
	return nil
}

// Set applies the given properties and posts the change in a single request
func (d *AtwDevice) Set(ctx context.Context, props Properties) error {
	d.lock.RLock()
	if d.state == nil {
		d.lock.RUnlock()
		return ErrNoState
	}
	next := *d.state
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
			next.EffectiveFlags |= atwFlagPower
		case PROPERTY_ZONE_1_OPERATION_MODE, PROPERTY_ZONE_2_OPERATION_MODE:
			mode, ok := props[key].(ZoneOperationMode)
			if !ok {
				return fmt.Errorf("%w: %s must be a ZoneOperationMode, got %T", ErrInvalidProperty, key, props[key])
			}
			if key == PROPERTY_ZONE_1_OPERATION_MODE {
				next.OperationModeZone1 = mode
				next.EffectiveFlags |= atwFlagZone1OperationMode
			} else {
				next.OperationModeZone2 = mode
				next.EffectiveFlags |= atwFlagZone2OperationMode
			}
		case PROPERTY_ZONE_1_TARGET_TEMPERATURE, PROPERTY_ZONE_2_TARGET_TEMPERATURE:
			t, err := floatProperty(props, key)
			if err != nil {
				return err
			}
			if key == PROPERTY_ZONE_1_TARGET_TEMPERATURE {
				next.SetTemperatureZone1 = &t
				next.EffectiveFlags |= atwFlagZone1TargetTemperature
			} else {
				next.SetTemperatureZone2 = &t
				next.EffectiveFlags |= atwFlagZone2TargetTemperature
			}
		case PROPERTY_TARGET_TANK_TEMPERATURE:
			t, err := floatProperty(props, key)
			if err != nil {
				return err
			}
			next.SetTankWaterTemperature = &t
			next.EffectiveFlags |= atwFlagTargetTankTemperature
		default:
			return fmt.Errorf("%w: %s", ErrInvalidProperty, key)
		}
	}
	next.HasPendingCommand = true

	var updated atwState
	if err := d.postState(ctx, "/Device/SetAtw", &next, &updated); err != nil {
		return err
	}
	d.lock.Lock()
	d.state = &updated
	d.lock.Unlock()
	return nil
}

// Power returns whether the unit is on
func (d *AtwDevice) Power() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.state != nil && d.state.Power
}

// OutsideTemperature returns the outdoor unit temperature reading
func (d *AtwDevice) OutsideTemperature() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil {
		return nil
	}
	return d.state.OutdoorTemperature
}

// TankTemperature returns the hot water tank temperature
func (d *AtwDevice) TankTemperature() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	if d.state == nil {
		return nil
	}
	return d.state.TankWaterTemperature
}

// Zones returns the heating zones of the unit
func (d *AtwDevice) Zones() []*Zone {
	return d.zones
}

// Zone is one heating circuit of an AtwDevice, addressed by a 1-based index
type Zone struct {
	device *AtwDevice
	index  int
}

// ZoneIndex returns the 1-based zone number
func (z *Zone) ZoneIndex() int {
	return z.index
}

// Name returns the zone name configured in MELCloud or a generated one
func (z *Zone) Name() string {
	z.device.lock.RLock()
	defer z.device.lock.RUnlock()
	name := z.device.conf.Device.Zone1Name
	if z.index == 2 {
		name = z.device.conf.Device.Zone2Name
	}
	if name == "" {
		name = fmt.Sprintf("Zone %d", z.index)
	}
	return name
}

// RoomTemperature returns the zone room temperature
func (z *Zone) RoomTemperature() *float64 {
	z.device.lock.RLock()
	defer z.device.lock.RUnlock()
	if z.device.state == nil {
		return nil
	}
	if z.index == 2 {
		return z.device.state.RoomTemperatureZone2
	}
	return z.device.state.RoomTemperatureZone1
}

// TargetTemperature returns the zone set point
func (z *Zone) TargetTemperature() *float64 {
	z.device.lock.RLock()
	defer z.device.lock.RUnlock()
	if z.device.state == nil {
		return nil
	}
	if z.index == 2 {
		return z.device.state.SetTemperatureZone2
	}
	return z.device.state.SetTemperatureZone1
}

// OperationMode returns the zone operation mode and whether it is known
func (z *Zone) OperationMode() (ZoneOperationMode, bool) {
	z.device.lock.RLock()
	defer z.device.lock.RUnlock()
	if z.device.state == nil {
		return 0, false
	}
	if z.index == 2 {
		return z.device.state.OperationModeZone2, true
	}
	return z.device.state.OperationModeZone1, true
}

// Status returns what the zone is currently doing
func (z *Zone) Status() ZoneStatus {
	z.device.lock.RLock()
	defer z.device.lock.RUnlock()
	s := z.device.state
	if s == nil {
		return ZONE_STATUS_UNKNOWN
	}
	idle, mode := s.IdleZone1, s.OperationModeZone1
	if z.index == 2 {
		idle, mode = s.IdleZone2, s.OperationModeZone2
	}
	if idle || !s.Power {
		return ZONE_STATUS_IDLE
	}
	switch mode {
	case ZONE_OPERATION_MODE_COOL, ZONE_OPERATION_MODE_COOL_FLOW:
		return ZONE_STATUS_COOL
	}
	return ZONE_STATUS_HEAT
}

// SetTargetTemperature changes the zone set point
func (z *Zone) SetTargetTemperature(ctx context.Context, t float64) error {
	key := PROPERTY_ZONE_1_TARGET_TEMPERATURE
	if z.index == 2 {
		key = PROPERTY_ZONE_2_TARGET_TEMPERATURE
	}
	return z.device.Set(ctx, Properties{key: t})
}
