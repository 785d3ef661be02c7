// Package metrics exports the state of the bridged climate entities to Prometheus
package metrics

import (
	"melcloud2mqtt/climate"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bridge is what the collector reads from a running bridge
type Bridge interface {
	Name() string
	ClimateEntities() []climate.Climate
	CommandLatency() float64
}

// Collector collects climate metrics of every running bridge.
// Values come straight from the entity getters, no vendor calls are made while scraping.
type Collector struct {
	lock    sync.Mutex
	bridges []Bridge

	currentTemp    *prometheus.GaugeVec
	targetTemp     *prometheus.GaugeVec
	power          *prometheus.GaugeVec
	available      *prometheus.GaugeVec
	hvacMode       *prometheus.GaugeVec
	commandLatency *prometheus.GaugeVec
}

func NewCollector() *Collector {
	labels := []string{"module", "entity", "name"}
	return &Collector{
		currentTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "melcloud2mqtt_climate_current_temperature",
			Help: "Measured temperature in the entity unit",
		}, labels),
		targetTemp: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "melcloud2mqtt_climate_target_temperature",
			Help: "Target temperature in the entity unit",
		}, labels),
		power: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "melcloud2mqtt_climate_power",
			Help: "1 if the entity is on",
		}, labels),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "melcloud2mqtt_climate_available",
			Help: "1 if the device answered its last refresh",
		}, labels),
		hvacMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "melcloud2mqtt_climate_hvac_mode",
			Help: "1 for the active hvac mode, 0 for the other available modes",
		}, []string{"module", "entity", "mode"}),
		commandLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "melcloud2mqtt_command_latency_seconds",
			Help: "Moving average of MELCloud command latency",
		}, []string{"module"}),
	}
}

// SetBridges replaces the bridges being collected
func (c *Collector) SetBridges(bridges []Bridge) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.bridges = append([]Bridge(nil), bridges...)
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.currentTemp.Describe(ch)
	c.targetTemp.Describe(ch)
	c.power.Describe(ch)
	c.available.Describe(ch)
	c.hvacMode.Describe(ch)
	c.commandLatency.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.currentTemp.Reset()
	c.targetTemp.Reset()
	c.power.Reset()
	c.available.Reset()
	c.hvacMode.Reset()
	c.commandLatency.Reset()

	for _, b := range c.bridges {
		module := b.Name()
		c.commandLatency.WithLabelValues(module).Set(b.CommandLatency())
		for _, e := range b.ClimateEntities() {
			labels := prometheus.Labels{"module": module, "entity": e.UniqueID(), "name": e.Name()}
			if t := e.CurrentTemperature(); t != nil {
				c.currentTemp.With(labels).Set(*t)
			}
			if t := e.TargetTemperature(); t != nil {
				c.targetTemp.With(labels).Set(*t)
			}
			mode := e.HvacMode()
			c.power.With(labels).Set(boolValue(mode != climate.HVAC_MODE_OFF))
			c.available.With(labels).Set(boolValue(e.Available()))
			for _, m := range e.HvacModes() {
				c.hvacMode.WithLabelValues(module, e.UniqueID(), m).Set(0)
			}
			if mode != "" {
				c.hvacMode.WithLabelValues(module, e.UniqueID(), mode).Set(1)
			}
		}
	}

	c.currentTemp.Collect(ch)
	c.targetTemp.Collect(ch)
	c.power.Collect(ch)
	c.available.Collect(ch)
	c.hvacMode.Collect(ch)
	c.commandLatency.Collect(ch)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Handler serves the registry on /metrics and a liveness probe on /health
func Handler(registry *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})
	return mux
}

// HTTPServer serves health and metrics.
type HTTPServer struct {
	Server *http.Server
}

func NewHTTPServer(addr string, handler http.Handler) *HTTPServer {
	return &HTTPServer{Server: &http.Server{Addr: addr, Handler: handler}}
}

func (s *HTTPServer) ListenAndServe() error {
	return s.Server.ListenAndServe()
}
