package entity

import (
	"context"
	"fmt"
	"log/slog"
	"melcloud2mqtt/melcloud"
	"sync"
	"time"
)

const MIN_TIME_BETWEEN_UPDATES = 60 * time.Second

// VendorDevice is the part of a MELCloud device every entity needs
type VendorDevice interface {
	Name() string
	MAC() string
	Serial() string
	Update(ctx context.Context) error
	Set(ctx context.Context, props melcloud.Properties) error
}

// Config contains the configuration parameters for a new Device instance
type Config struct {
	Domain                string        // integration domain used in the device identifiers
	Device                VendorDevice  // wrapped vendor device
	MinTimeBetweenUpdates time.Duration // refresh throttle, defaults to MIN_TIME_BETWEEN_UPDATES
}

// Device wraps one vendor device shared by all the entities built on it
type Device struct {
	Config
	updateLock sync.Mutex // serializes refreshes so concurrent callers see the throttle
	lock       sync.RWMutex
	available  bool
	lastUpdate time.Time
}

// NewDevice returns a new Device instance
func NewDevice(config *Config) *Device {
	d := &Device{
		Config:    *config,
		available: true,
	}
	if d.MinTimeBetweenUpdates == 0 {
		d.MinTimeBetweenUpdates = MIN_TIME_BETWEEN_UPDATES
	}
	return d
}

// Vendor returns the wrapped vendor device
func (d *Device) Vendor() VendorDevice {
	return d.Device
}

func (d *Device) Name() string {
	return d.Device.Name()
}

// Available returns false after a refresh or command failed to reach MELCloud
func (d *Device) Available() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.available
}

// Update refreshes the vendor device at most once per MinTimeBetweenUpdates.
// Connection failures mark the device unavailable and are not returned.
func (d *Device) Update(ctx context.Context) error {
	d.updateLock.Lock()
	defer d.updateLock.Unlock()

	d.lock.Lock()
	if !d.lastUpdate.IsZero() && time.Since(d.lastUpdate) < d.MinTimeBetweenUpdates {
		d.lock.Unlock()
		return nil
	}
	d.lastUpdate = time.Now()
	d.lock.Unlock()

	err := d.Device.Update(ctx)
	if melcloud.IsConnectionError(err) {
		slog.Warn("Connection failed", "device", d.Name(), "error", err)
		d.setAvailable(false)
		return nil
	}
	if err != nil {
		return fmt.Errorf("update %s: %w", d.Name(), err)
	}
	d.setAvailable(true)
	return nil
}

// Set writes state changes to MELCloud
func (d *Device) Set(ctx context.Context, props melcloud.Properties) error {
	err := d.Device.Set(ctx, props)
	if melcloud.IsConnectionError(err) {
		slog.Warn("Connection failed", "device", d.Name(), "error", err)
		d.setAvailable(false)
		return err
	}
	if err == nil {
		d.setAvailable(true)
	}
	return err
}

func (d *Device) setAvailable(available bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.available = available
}

// DeviceInfo returns the device description shared by the device entities
func (d *Device) DeviceInfo() DeviceInfo {
	return DeviceInfo{
		Identifiers:  []Identifier{{d.Domain, fmt.Sprintf("%s-%s", d.Device.MAC(), d.Device.Serial())}},
		Manufacturer: MANUFACTURER,
		Name:         d.Name(),
	}
}
