package melcloud

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
)

const MockToken = "mock-token"
const MockEmail = "user@example.com"
const MockPassword = "secret"

// MockBuildings is the ListDevices answer of a Mock: one air-to-air unit and
// one air-to-water unit with two zones. The ATA unit shows up twice, once at
// the building level and once in an area.
const MockBuildings = `[
  {
    "ID": 10,
    "Structure": {
      "Devices": [
        {"DeviceID": 1, "DeviceName": "Living", "BuildingID": 10, "MacAddress": "aa:bb", "SerialNumber": "111", "Type": 0,
         "Device": {"NumberOfFanSpeeds": 3, "ModelSupportsFanSpeed": true, "ModelSupportsAuto": true, "ModelSupportsHeat": true,
                    "ModelSupportsDry": true, "MinTempHeat": 10, "MaxTempHeat": 31, "MinTempCoolDry": 16, "MaxTempCoolDry": 31,
                    "MinTempAutomatic": 16, "MaxTempAutomatic": 31, "TemperatureIncrement": 0.5, "CurrentEnergyConsumed": 123400}}
      ],
      "Floors": [
        {"Devices": [],
         "Areas": [
           {"Devices": [
             {"DeviceID": 2, "DeviceName": "Heat pump", "BuildingID": 10, "MacAddress": "cc:dd", "SerialNumber": "222", "Type": 1,
              "Device": {"HasZone2": true, "Zone1Name": "Ground floor", "Zone2Name": "", "TemperatureIncrement": 0.5}}
           ]}
         ]}
      ],
      "Areas": [
        {"Devices": [
          {"DeviceID": 1, "DeviceName": "Living", "BuildingID": 10, "MacAddress": "aa:bb", "SerialNumber": "111", "Type": 0}
        ]}
      ]
    }
  }
]`

// Mock is an in-memory MELCloud server. Point a Client at it with
// WithBaseURL(httptest.NewServer(mock).URL).
type Mock struct {
	State     map[int]map[string]interface{} // device id -> Device/Get payload
	buildings string
	lock      sync.Mutex
	status    int
	calls     map[string]int
	posted    map[string]map[string]interface{}
}

// NewMock returns a Mock loaded with the devices of MockBuildings
func NewMock() *Mock {
	return &Mock{
		State: map[int]map[string]interface{}{
			1: {
				"DeviceID": 1, "DeviceType": 0, "Power": false, "RoomTemperature": 21.5, "SetTemperature": 22,
				"OperationMode": 3, "SetFanSpeed": 2,
			},
			2: {
				"DeviceID": 2, "DeviceType": 1, "Power": true, "OutdoorTemperature": 4.5, "TankWaterTemperature": 48,
				"OperationModeZone1": 0, "OperationModeZone2": 3, "RoomTemperatureZone1": 20.5,
				"RoomTemperatureZone2": 19, "SetTemperatureZone1": 21, "SetTemperatureZone2": 24,
				"IdleZone1": false, "IdleZone2": true,
			},
		},
		buildings: MockBuildings,
		calls:     make(map[string]int),
		posted:    make(map[string]map[string]interface{}),
	}
}

// SetBuildings replaces the ListDevices answer
func (m *Mock) SetBuildings(buildings string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.buildings = buildings
}

// SetStatus makes every following request fail with the given status code.
// Zero restores normal operation.
func (m *Mock) SetStatus(status int) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.status = status
}

// SetValue changes one field of a device state
func (m *Mock) SetValue(deviceID int, key string, value interface{}) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.State[deviceID][key] = value
}

// Calls returns how many requests hit the given path
func (m *Mock) Calls(path string) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.calls[path]
}

// LastPosted returns the last body posted to the given path
func (m *Mock) LastPosted(path string) map[string]interface{} {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.posted[path]
}

func (m *Mock) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.calls[r.URL.Path]++

	if m.status != 0 {
		w.WriteHeader(m.status)
		return
	}
	if r.URL.Path != "/Login/ClientLogin" && r.Header.Get("X-MitsContextKey") != MockToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body map[string]interface{}
	if r.Method == http.MethodPost && r.Body != nil {
		b, _ := io.ReadAll(r.Body)
		json.Unmarshal(b, &body)
		m.posted[r.URL.Path] = body
	}

	switch r.URL.Path {
	case "/Login/ClientLogin":
		if body["Email"] != MockEmail || body["Password"] != MockPassword {
			writeJSON(w, map[string]interface{}{"ErrorId": 1, "LoginData": nil})
			return
		}
		writeJSON(w, map[string]interface{}{"ErrorId": nil, "LoginData": map[string]interface{}{"ContextKey": MockToken}})
	case "/User/ListDevices":
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, m.buildings)
	case "/User/GetUserDetails":
		writeJSON(w, map[string]interface{}{"EmailAddress": MockEmail, "Name": "User", "UseFahrenheit": false})
	case "/Device/Get":
		id, _ := strconv.Atoi(r.URL.Query().Get("id"))
		state, ok := m.State[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, state)
	case "/Device/SetAta", "/Device/SetAtw":
		id, _ := body["DeviceID"].(float64)
		state, ok := m.State[int(id)]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		for k, v := range body {
			state[k] = v
		}
		writeJSON(w, state)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
