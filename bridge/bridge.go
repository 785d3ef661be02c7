// Package bridge publishes the climate and sensor entities of one config entry
// to Home Assistant over MQTT and forwards the commands it receives.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"melcloud2mqtt/climate"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/sensor"
	"melcloud2mqtt/watcher"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	average "github.com/RobinUS2/golang-moving-average"
	"golang.org/x/sync/errgroup"
)

const PAYLOAD_ONLINE = "online"
const PAYLOAD_OFFLINE = "offline"
const PAYLOAD_ON = "ON"
const PAYLOAD_OFF = "OFF"

// COMMAND_TIMEOUT bounds every vendor call triggered by an MQTT command
const COMMAND_TIMEOUT = 10 * time.Second

// LATENCY_WINDOW is the number of commands the latency average covers
const LATENCY_WINDOW = 50

type MqttClient interface {
	Publish(topic string, qos byte, retained bool, payload string) error
	Subscribe(topic string, callback func(message string)) error
}

type Config struct {
	ModuleName  string
	Mqtt        MqttClient
	TopicPrefix string
	HassPrefix  string
	HostUnit    string // host temperature unit, used for the legacy precision
	Climates    []climate.Climate
	Sensors     []sensor.Sensor
}

type Bridge struct {
	Config
	watchers     []*watcher.Watcher
	latencyLock  sync.Mutex
	latency      *average.MovingAverage
	commandCount int
}

var nonAlphanumeric = regexp.MustCompile("[^a-zA-Z0-9]+")

// ObjectID turns a unique id into something usable as an MQTT topic level
func ObjectID(uniqueID string) string {
	return strings.ToLower(strings.Trim(nonAlphanumeric.ReplaceAllString(uniqueID, "_"), "_"))
}

func NewBridge(config *Config) *Bridge {
	b := &Bridge{
		Config:  *config,
		latency: average.New(LATENCY_WINDOW),
	}
	if b.HostUnit == "" {
		b.HostUnit = entity.TEMP_CELSIUS
	}
	return b
}

// Start refreshes every entity, announces it to Home Assistant, subscribes to its
// command topics and publishes its initial state
func (b *Bridge) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range b.Climates {
		c := c
		g.Go(func() error {
			return c.Update(gctx)
		})
	}
	for _, s := range b.Sensors {
		s := s
		g.Go(func() error {
			return s.Update(gctx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("initial update of %s: %w", b.ModuleName, err)
	}

	b.watchers = nil
	for _, c := range b.Climates {
		w, err := b.addClimate(c)
		if err != nil {
			return err
		}
		b.watchers = append(b.watchers, w)
	}
	for _, s := range b.Sensors {
		b.watchers = append(b.watchers, b.addSensor(s))
	}

	for _, w := range b.watchers {
		w.Check()
	}
	slog.Info("Bridge started", "module", b.ModuleName, "climates", len(b.Climates), "sensors", len(b.Sensors))
	return nil
}

// Tick polls every entity and publishes what changed
func (b *Bridge) Tick(ctx context.Context) {
	for _, w := range b.watchers {
		if err := w.Poll(ctx); err != nil {
			slog.Error("Cannot refresh entity", "module", b.ModuleName, "error", err)
		}
	}
}

// Name returns the module name the bridge publishes under
func (b *Bridge) Name() string {
	return b.ModuleName
}

// ClimateEntities returns the climate entities of the bridge
func (b *Bridge) ClimateEntities() []climate.Climate {
	return b.Climates
}

// CommandLatency returns the moving average of vendor command latency, in seconds
func (b *Bridge) CommandLatency() float64 {
	b.latencyLock.Lock()
	defer b.latencyLock.Unlock()
	if b.commandCount == 0 {
		return 0
	}
	return b.latency.Avg()
}

func (b *Bridge) addClimate(c climate.Climate) (*watcher.Watcher, error) {
	objectID := ObjectID(c.UniqueID())
	topic := func(subtopic string) string {
		return b.getTopic(objectID, subtopic)
	}
	features := c.SupportedFeatures()
	w := watcher.New(&watcher.Config{Update: c.Update})

	configTopic := fmt.Sprintf("%s/climate/%s/%s/config", b.HassPrefix, b.ModuleName, objectID)
	w.RegisterValue("config", func() string {
		return b.climateConfig(c, objectID)
	}, b.publishValue(w, configTopic))
	w.RegisterValue("availability", func() string {
		return availability(c)
	}, b.publishValue(w, topic("availability")))
	w.RegisterValue("hvacMode", c.HvacMode, b.publishValue(w, topic("hvacMode")))
	w.RegisterValue("currentTemp", func() string {
		return formatFloat(c.CurrentTemperature())
	}, b.publishValue(w, topic("currentTemp")))
	if features&climate.SUPPORT_TARGET_TEMPERATURE != 0 {
		w.RegisterValue("targetTemp", func() string {
			return formatFloat(c.TargetTemperature())
		}, b.publishValue(w, topic("targetTemp")))
	}
	if features&climate.SUPPORT_FAN_MODE != 0 {
		w.RegisterValue("fanMode", c.FanMode, b.publishValue(w, topic("fanMode")))
	}
	w.RegisterValue("attributes", func() string {
		return attributes(c)
	}, b.publishValue(w, topic("attributes")))

	subscriptions := map[string]func(ctx context.Context, message string) error{
		"hvacMode/set": func(ctx context.Context, message string) error {
			return c.SetHvacMode(ctx, message)
		},
		"power/set": func(ctx context.Context, message string) error {
			switch strings.ToUpper(message) {
			case PAYLOAD_ON:
				return c.TurnOn(ctx)
			case PAYLOAD_OFF:
				return c.TurnOff(ctx)
			}
			return fmt.Errorf("unknown power payload %q", message)
		},
	}
	if features&climate.SUPPORT_TARGET_TEMPERATURE != 0 {
		subscriptions["targetTemp/set"] = func(ctx context.Context, message string) error {
			targetTemp, err := strconv.ParseFloat(message, 64)
			if err != nil {
				return fmt.Errorf("parse target temperature: %w", err)
			}
			return c.SetTemperature(ctx, &targetTemp)
		}
	}
	if features&climate.SUPPORT_FAN_MODE != 0 {
		subscriptions["fanMode/set"] = func(ctx context.Context, message string) error {
			return c.SetFanMode(ctx, message)
		}
	}

	for subtopic, command := range subscriptions {
		commandTopic := topic(subtopic)
		command := command
		err := b.Mqtt.Subscribe(commandTopic, func(message string) {
			b.runCommand(commandTopic, message, command)
			w.Check()
		})
		if err != nil {
			return nil, fmt.Errorf("subscribe to %s: %w", commandTopic, err)
		}
	}
	return w, nil
}

func (b *Bridge) addSensor(s sensor.Sensor) *watcher.Watcher {
	objectID := ObjectID(s.UniqueID())
	w := watcher.New(&watcher.Config{Update: s.Update})

	configTopic := fmt.Sprintf("%s/sensor/%s/%s/config", b.HassPrefix, b.ModuleName, objectID)
	w.RegisterValue("config", func() string {
		return b.sensorConfig(s, objectID)
	}, b.publishValue(w, configTopic))
	w.RegisterValue("availability", func() string {
		return availability(s)
	}, b.publishValue(w, b.getTopic(objectID, "availability")))
	w.RegisterValue("state", func() string {
		return formatFloat(s.State())
	}, b.publishValue(w, b.getTopic(objectID, "state")))
	return w
}

// runCommand forwards one command to the vendor and records how long it took.
// Failures are logged, there is nobody to return them to.
func (b *Bridge) runCommand(topic, message string, command func(ctx context.Context, message string) error) {
	ctx, cancel := context.WithTimeout(context.Background(), COMMAND_TIMEOUT)
	defer cancel()
	start := time.Now()
	err := command(ctx, message)
	b.latencyLock.Lock()
	b.latency.Add(time.Since(start).Seconds())
	b.commandCount++
	b.latencyLock.Unlock()
	if err != nil {
		slog.Error("Cannot execute command", "topic", topic, "payload", message, "error", err)
		return
	}
	slog.Debug("Executed command", "topic", topic, "payload", message)
}

// publishValue returns a watcher callback that publishes the cached value to topic.
// Empty values are not published.
func (b *Bridge) publishValue(w *watcher.Watcher, topic string) func(key string) {
	return func(key string) {
		value, err := w.ReadValue(key)
		if err != nil || value == "" {
			return
		}
		if err := b.Mqtt.Publish(topic, 0, true, value); err != nil {
			slog.Warn("Cannot publish", "topic", topic, "error", err)
		}
	}
}

func (b *Bridge) getTopic(objectID string, subtopic string) string {
	return fmt.Sprintf("%s/%s/%s/%s", b.TopicPrefix, b.ModuleName, objectID, subtopic)
}

func (b *Bridge) deviceConfig(e entity.Entity) map[string]interface{} {
	info := e.DeviceInfo()
	var identifiers []string
	for _, id := range info.Identifiers {
		identifiers = append(identifiers, id[0]+"_"+id[1])
	}
	return map[string]interface{}{
		"identifiers":  identifiers,
		"manufacturer": info.Manufacturer,
		"name":         info.Name,
	}
}

type precisionProvider interface {
	Precision(hostUnit string) float64
}

func (b *Bridge) climateConfig(c climate.Climate, objectID string) string {
	topic := func(subtopic string) string {
		return b.getTopic(objectID, subtopic)
	}
	unit := "C"
	if c.TemperatureUnit() == entity.TEMP_FAHRENHEIT {
		unit = "F"
	}
	config := map[string]interface{}{
		"name":                      c.Name(),
		"unique_id":                 c.UniqueID(),
		"device":                    b.deviceConfig(c),
		"availability_topic":        topic("availability"),
		"payload_available":         PAYLOAD_ONLINE,
		"payload_not_available":     PAYLOAD_OFFLINE,
		"current_temperature_topic": topic("currentTemp"),
		"temperature_unit":          unit,
		"min_temp":                  c.MinTemp(),
		"max_temp":                  c.MaxTemp(),
		"modes":                     c.HvacModes(),
		"mode_state_topic":          topic("hvacMode"),
		"mode_command_topic":        topic("hvacMode/set"),
		"power_command_topic":       topic("power/set"),
		"json_attributes_topic":     topic("attributes"),
	}
	features := c.SupportedFeatures()
	if features&climate.SUPPORT_TARGET_TEMPERATURE != 0 {
		config["temperature_state_topic"] = topic("targetTemp")
		config["temperature_command_topic"] = topic("targetTemp/set")
		if step := c.TargetTemperatureStep(); step != nil {
			config["temp_step"] = *step
		}
	}
	if features&climate.SUPPORT_FAN_MODE != 0 {
		config["fan_modes"] = c.FanModes()
		config["fan_mode_state_topic"] = topic("fanMode")
		config["fan_mode_command_topic"] = topic("fanMode/set")
	}
	if p, ok := c.(precisionProvider); ok {
		config["precision"] = p.Precision(b.HostUnit)
	}
	configJSON, _ := json.Marshal(config)
	return string(configJSON)
}

func (b *Bridge) sensorConfig(s sensor.Sensor, objectID string) string {
	config := map[string]interface{}{
		"name":                  s.Name(),
		"unique_id":             s.UniqueID(),
		"device":                b.deviceConfig(s),
		"availability_topic":    b.getTopic(objectID, "availability"),
		"payload_available":     PAYLOAD_ONLINE,
		"payload_not_available": PAYLOAD_OFFLINE,
		"state_topic":           b.getTopic(objectID, "state"),
		"unit_of_measurement":   s.UnitOfMeasurement(),
		"icon":                  s.Icon(),
	}
	if class := s.DeviceClass(); class != "" {
		config["device_class"] = class
	}
	configJSON, _ := json.Marshal(config)
	return string(configJSON)
}

func availability(e entity.Entity) string {
	if e.Available() {
		return PAYLOAD_ONLINE
	}
	return PAYLOAD_OFFLINE
}

func attributes(c climate.Climate) string {
	attrs := c.StateAttributes()
	if len(attrs) == 0 {
		return ""
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return ""
	}
	return string(attrsJSON)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
