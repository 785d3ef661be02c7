package climate

import (
	"melcloud2mqtt/bimap"
	"melcloud2mqtt/melcloud"
)

const HVAC_MODE_OFF = "off"
const HVAC_MODE_HEAT = "heat"
const HVAC_MODE_COOL = "cool"
const HVAC_MODE_DRY = "dry"
const HVAC_MODE_FAN_ONLY = "fan_only"
const HVAC_MODE_HEAT_COOL = "heat_cool"

const SUPPORT_TARGET_TEMPERATURE = 1
const SUPPORT_FAN_MODE = 8

const PRECISION_TENTHS = 0.1
const PRECISION_WHOLE = 1.0

// fallback bounds in Celsius when the device reports none
const DEFAULT_MIN_TEMP = 10.0
const DEFAULT_MAX_TEMP = 30.0

const ATTR_STATUS = "status"

// AtaHvacModes translates air-to-air operation modes to host modes
var AtaHvacModes = bimap.New(map[melcloud.OperationMode]string{
	melcloud.OPERATION_MODE_HEAT:      HVAC_MODE_HEAT,
	melcloud.OPERATION_MODE_DRY:       HVAC_MODE_DRY,
	melcloud.OPERATION_MODE_COOL:      HVAC_MODE_COOL,
	melcloud.OPERATION_MODE_FAN_ONLY:  HVAC_MODE_FAN_ONLY,
	melcloud.OPERATION_MODE_HEAT_COOL: HVAC_MODE_HEAT_COOL,
})

// AtwZoneHvacModes translates the thermostat zone modes. Flow and curve modes
// have no host counterpart.
var AtwZoneHvacModes = bimap.New(map[melcloud.ZoneOperationMode]string{
	melcloud.ZONE_OPERATION_MODE_HEAT: HVAC_MODE_HEAT,
	melcloud.ZONE_OPERATION_MODE_COOL: HVAC_MODE_COOL,
})

// ZoneStatuses translates the zone activity reported in the status attribute
var ZoneStatuses = bimap.New(map[melcloud.ZoneStatus]string{
	melcloud.ZONE_STATUS_HEAT: HVAC_MODE_HEAT,
	melcloud.ZONE_STATUS_COOL: HVAC_MODE_COOL,
})
