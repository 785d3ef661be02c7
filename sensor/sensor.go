// Package sensor exposes read-only measurements of MELCloud devices: room,
// outside and tank temperatures and the energy counter.
package sensor

import (
	"context"
	"fmt"
	"log/slog"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
	"strings"
)

const ICON_THERMOMETER = "mdi:thermometer"
const ICON_FACTORY = "mdi:factory"
const DEVICE_CLASS_TEMPERATURE = "temperature"
const UNIT_ENERGY = "kWh"

// Sensor is what the bridge needs from a sensor entity
type Sensor interface {
	entity.Entity
	State() *float64
	UnitOfMeasurement() string
	Icon() string
	DeviceClass() string
}

type unitDevice interface {
	TempUnit() melcloud.TempUnit
}

// Definition describes one measurement
type Definition struct {
	Measurement     string // key used in the unique id
	MeasurementName string // display name
	Icon            string
	DeviceClass     string
	Energy          bool // kWh instead of the device temperature unit
}

// sensor reads one measurement of a device, or of one of its zones
type sensor struct {
	Definition
	api   *entity.Device
	name  string
	id    string
	unit  unitDevice
	value func() *float64
}

func (s *sensor) Name() string {
	return s.name
}

func (s *sensor) UniqueID() string {
	return s.id
}

func (s *sensor) DeviceInfo() entity.DeviceInfo {
	return s.api.DeviceInfo()
}

func (s *sensor) ShouldPoll() bool {
	return true
}

func (s *sensor) Available() bool {
	return s.api.Available()
}

func (s *sensor) Update(ctx context.Context) error {
	return s.api.Update(ctx)
}

func (s *sensor) State() *float64 {
	return s.value()
}

func (s *sensor) UnitOfMeasurement() string {
	if s.Energy {
		return UNIT_ENERGY
	}
	return entity.TemperatureUnit(s.unit.TempUnit())
}

func (s *sensor) Icon() string {
	return s.Definition.Icon
}

func (s *sensor) DeviceClass() string {
	return s.Definition.DeviceClass
}

var insideTemperature = Definition{
	Measurement:     "inside_temperature",
	MeasurementName: "Inside Temperature",
	Icon:            ICON_THERMOMETER,
	DeviceClass:     DEVICE_CLASS_TEMPERATURE,
}

var roomTemperature = Definition{
	Measurement:     "room_temperature",
	MeasurementName: "Room Temperature",
	Icon:            ICON_THERMOMETER,
	DeviceClass:     DEVICE_CLASS_TEMPERATURE,
}

var energy = Definition{
	Measurement:     "energy",
	MeasurementName: "Energy",
	Icon:            ICON_FACTORY,
	Energy:          true,
}

var outsideTemperature = Definition{
	Measurement:     "outside_temperature",
	MeasurementName: "Outside Temperature",
	Icon:            ICON_THERMOMETER,
	DeviceClass:     DEVICE_CLASS_TEMPERATURE,
}

var tankTemperature = Definition{
	Measurement:     "tank_temperature",
	MeasurementName: "Tank Temperature",
	Icon:            ICON_THERMOMETER,
	DeviceClass:     DEVICE_CLASS_TEMPERATURE,
}

type ataDevice interface {
	entity.VendorDevice
	unitDevice
	RoomTemperature() *float64
	TotalEnergyConsumed() *float64
}

type atwDevice interface {
	entity.VendorDevice
	unitDevice
	OutsideTemperature() *float64
	TankTemperature() *float64
	Zones() []*melcloud.Zone
}

type zone interface {
	ZoneIndex() int
	Name() string
	RoomTemperature() *float64
}

func newDeviceSensor(api *entity.Device, def Definition, unit unitDevice, value func() *float64) *sensor {
	d := api.Vendor()
	return &sensor{
		Definition: def,
		api:        api,
		name:       fmt.Sprintf("%s %s", api.Name(), def.MeasurementName),
		id:         fmt.Sprintf("%s-%s-%s", d.Serial(), d.MAC(), def.Measurement),
		unit:       unit,
		value:      value,
	}
}

func newZoneSensor(api *entity.Device, z zone, def Definition, unit unitDevice) *sensor {
	d := api.Vendor()
	return &sensor{
		Definition: def,
		api:        api,
		name:       fmt.Sprintf("%s %s %s", api.Name(), z.Name(), def.MeasurementName),
		id:         fmt.Sprintf("%s-%s-%d-%s", d.Serial(), d.MAC(), z.ZoneIndex(), def.Measurement),
		unit:       unit,
		value:      z.RoomTemperature,
	}
}

// NewSensors builds the current generation sensors of an account
func NewSensors(account *entity.Account) []Sensor {
	var sensors []Sensor
	for _, d := range account.Ata {
		ata, ok := d.Vendor().(ataDevice)
		if !ok {
			continue
		}
		sensors = append(sensors,
			newDeviceSensor(d, roomTemperature, ata, ata.RoomTemperature),
			newDeviceSensor(d, energy, ata, ata.TotalEnergyConsumed),
		)
	}
	for _, d := range account.Atw {
		atw, ok := d.Vendor().(atwDevice)
		if !ok {
			continue
		}
		sensors = append(sensors,
			newDeviceSensor(d, outsideTemperature, atw, atw.OutsideTemperature),
			newDeviceSensor(d, tankTemperature, atw, atw.TankTemperature),
		)
		for _, z := range atw.Zones() {
			sensors = append(sensors, newZoneSensor(d, z, roomTemperature, atw))
		}
	}
	return sensors
}

// NewLegacySensors builds the inside temperature sensor of every device that reports one
func NewLegacySensors(devices []*entity.Device) []Sensor {
	var sensors []Sensor
	for _, d := range devices {
		ata, ok := d.Vendor().(ataDevice)
		if !ok {
			slog.Info("Legacy integration ignores device", "device", d.Name())
			continue
		}
		s := newDeviceSensor(d, insideTemperature, ata, ata.RoomTemperature)
		s.name = fmt.Sprintf("%s %s", d.Name(), strings.ReplaceAll(insideTemperature.Measurement, "_", " "))
		sensors = append(sensors, s)
	}
	return sensors
}
