package melcloud

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

type building struct {
	ID        int       `json:"ID"`
	Structure structure `json:"Structure"`
}

type structure struct {
	Devices []deviceConf `json:"Devices"`
	Areas   []area       `json:"Areas"`
	Floors  []floor      `json:"Floors"`
}

type area struct {
	Devices []deviceConf `json:"Devices"`
}

type floor struct {
	Devices []deviceConf `json:"Devices"`
	Areas   []area       `json:"Areas"`
}

// deviceConf is one entry of the ListDevices response
type deviceConf struct {
	DeviceID     int        `json:"DeviceID"`
	DeviceName   string     `json:"DeviceName"`
	BuildingID   int        `json:"BuildingID"`
	MacAddress   string     `json:"MacAddress"`
	SerialNumber string     `json:"SerialNumber"`
	Type         int        `json:"Type"`
	Device       deviceInfo `json:"Device"`
}

type deviceInfo struct {
	// ATA
	NumberOfFanSpeeds     int      `json:"NumberOfFanSpeeds"`
	ModelSupportsFanSpeed bool     `json:"ModelSupportsFanSpeed"`
	ModelSupportsAuto     bool     `json:"ModelSupportsAuto"`
	ModelSupportsHeat     bool     `json:"ModelSupportsHeat"`
	ModelSupportsDry      bool     `json:"ModelSupportsDry"`
	MinTempHeat           *float64 `json:"MinTempHeat"`
	MaxTempHeat           *float64 `json:"MaxTempHeat"`
	MinTempCoolDry        *float64 `json:"MinTempCoolDry"`
	MaxTempCoolDry        *float64 `json:"MaxTempCoolDry"`
	MinTempAutomatic      *float64 `json:"MinTempAutomatic"`
	MaxTempAutomatic      *float64 `json:"MaxTempAutomatic"`
	TemperatureIncrement  *float64 `json:"TemperatureIncrement"`
	CurrentEnergyConsumed *float64 `json:"CurrentEnergyConsumed"`

	// ATW
	HasZone2  bool   `json:"HasZone2"`
	Zone1Name string `json:"Zone1Name"`
	Zone2Name string `json:"Zone2Name"`
}

// flattenBuildings extracts devices from the nested building structure,
// keeping the first occurrence of each device id.
func flattenBuildings(buildings []building) []deviceConf {
	var confs []deviceConf
	visited := make(map[int]struct{})
	add := func(devices []deviceConf) {
		for _, d := range devices {
			if _, found := visited[d.DeviceID]; found {
				continue
			}
			visited[d.DeviceID] = struct{}{}
			confs = append(confs, d)
		}
	}

	for _, b := range buildings {
		add(b.Structure.Devices)
		for _, a := range b.Structure.Areas {
			add(a.Devices)
		}
		for _, f := range b.Structure.Floors {
			add(f.Devices)
			for _, a := range f.Areas {
				add(a.Devices)
			}
		}
	}
	return confs
}

// device is the part shared by every device kind
type device struct {
	client *Client
	lock   sync.RWMutex
	conf   deviceConf
}

func (d *device) applyConf(conf deviceConf) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.conf = conf
}

// DeviceID returns the MELCloud device id
func (d *device) DeviceID() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.conf.DeviceID
}

// BuildingID returns the id of the building the device belongs to
func (d *device) BuildingID() int {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.conf.BuildingID
}

// Name returns the user given device name
func (d *device) Name() string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.conf.DeviceName
}

// MAC returns the device MAC address
func (d *device) MAC() string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.conf.MacAddress
}

// Serial returns the device serial number
func (d *device) Serial() string {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.conf.SerialNumber
}

// TemperatureIncrement returns the set point step
func (d *device) TemperatureIncrement() *float64 {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.conf.Device.TemperatureIncrement
}

// TempUnit returns the unit the account displays temperatures in
func (d *device) TempUnit() TempUnit {
	if d.client.useFahrenheit() {
		return UNIT_TEMP_FAHRENHEIT
	}
	return UNIT_TEMP_CELSIUS
}

func (d *device) getState(ctx context.Context, out interface{}) error {
	path := fmt.Sprintf("/Device/Get?id=%d&buildingID=%d", d.DeviceID(), d.BuildingID())
	return d.client.do(ctx, http.MethodGet, path, nil, out)
}

func (d *device) postState(ctx context.Context, path string, in interface{}, out interface{}) error {
	return d.client.do(ctx, http.MethodPost, path, in, out)
}

func floatProperty(props Properties, key string) (float64, error) {
	switch v := props[key].(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidProperty, key, props[key])
}

func boolProperty(props Properties, key string) (bool, error) {
	v, ok := props[key].(bool)
	if !ok {
		return false, fmt.Errorf("%w: %s must be a bool, got %T", ErrInvalidProperty, key, props[key])
	}
	return v, nil
}
