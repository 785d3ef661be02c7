package climate_test

import (
	"context"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
)

func float(v float64) *float64 {
	return &v
}

// ataMock is an air-to-air device that records every Set call
type ataMock struct {
	power      bool
	mode       melcloud.OperationMode
	modes      []melcloud.OperationMode
	unit       melcloud.TempUnit
	room       *float64
	target     *float64
	min        *float64
	max        *float64
	increment  *float64
	fanSpeed   string
	fanSpeeds  []string
	sets       []melcloud.Properties
	setErr     error
	updateHits int
}

func newAtaMock() *ataMock {
	return &ataMock{
		mode:      melcloud.OPERATION_MODE_COOL,
		modes:     []melcloud.OperationMode{melcloud.OPERATION_MODE_HEAT, melcloud.OPERATION_MODE_DRY, melcloud.OPERATION_MODE_COOL, melcloud.OPERATION_MODE_FAN_ONLY, melcloud.OPERATION_MODE_HEAT_COOL},
		unit:      melcloud.UNIT_TEMP_CELSIUS,
		room:      float(21.5),
		target:    float(22),
		increment: float(0.5),
		fanSpeed:  "speed-2",
		fanSpeeds: []string{"auto", "speed-1", "speed-2"},
	}
}

func (m *ataMock) Name() string   { return "Living" }
func (m *ataMock) MAC() string    { return "aa:bb" }
func (m *ataMock) Serial() string { return "111" }

func (m *ataMock) Update(ctx context.Context) error {
	m.updateHits++
	return nil
}

func (m *ataMock) Set(ctx context.Context, props melcloud.Properties) error {
	m.sets = append(m.sets, props)
	if m.setErr != nil {
		return m.setErr
	}
	if power, ok := props[melcloud.PROPERTY_POWER].(bool); ok {
		m.power = power
	}
	if mode, ok := props[melcloud.PROPERTY_OPERATION_MODE].(melcloud.OperationMode); ok {
		m.mode = mode
	}
	return nil
}

func (m *ataMock) TempUnit() melcloud.TempUnit              { return m.unit }
func (m *ataMock) Power() bool                              { return m.power }
func (m *ataMock) OperationMode() melcloud.OperationMode    { return m.mode }
func (m *ataMock) OperationModes() []melcloud.OperationMode { return m.modes }
func (m *ataMock) RoomTemperature() *float64                { return m.room }
func (m *ataMock) TargetTemperature() *float64              { return m.target }
func (m *ataMock) TargetTemperatureMin() *float64           { return m.min }
func (m *ataMock) TargetTemperatureMax() *float64           { return m.max }
func (m *ataMock) TemperatureIncrement() *float64           { return m.increment }
func (m *ataMock) FanSpeed() string                         { return m.fanSpeed }
func (m *ataMock) FanSpeeds() []string                      { return m.fanSpeeds }

// atwMock is an air-to-water device that records every Set call
type atwMock struct {
	power  bool
	unit   melcloud.TempUnit
	sets   []melcloud.Properties
	setErr error
}

func (m *atwMock) Name() string                     { return "Heat pump" }
func (m *atwMock) MAC() string                      { return "cc:dd" }
func (m *atwMock) Serial() string                   { return "222" }
func (m *atwMock) Update(ctx context.Context) error { return nil }
func (m *atwMock) TempUnit() melcloud.TempUnit      { return m.unit }
func (m *atwMock) Power() bool                      { return m.power }
func (m *atwMock) TemperatureIncrement() *float64   { return float(0.5) }

func (m *atwMock) Set(ctx context.Context, props melcloud.Properties) error {
	m.sets = append(m.sets, props)
	if m.setErr != nil {
		return m.setErr
	}
	if power, ok := props[melcloud.PROPERTY_POWER].(bool); ok {
		m.power = power
	}
	return nil
}

type zoneMock struct {
	index  int
	mode   melcloud.ZoneOperationMode
	known  bool
	status melcloud.ZoneStatus
	room   *float64
	target *float64
}

func (z *zoneMock) ZoneIndex() int              { return z.index }
func (z *zoneMock) Name() string                { return "Ground floor" }
func (z *zoneMock) RoomTemperature() *float64   { return z.room }
func (z *zoneMock) TargetTemperature() *float64 { return z.target }
func (z *zoneMock) Status() melcloud.ZoneStatus { return z.status }

func (z *zoneMock) OperationMode() (melcloud.ZoneOperationMode, bool) {
	return z.mode, z.known
}

func wrap(domain string, device entity.VendorDevice) *entity.Device {
	return entity.NewDevice(&entity.Config{Domain: domain, Device: device})
}
