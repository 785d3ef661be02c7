package melcloud

const DefaultBaseURL = "https://app.melcloud.com/Mitsubishi.Wifi.Client"
const appVersion = "1.19.1.1"

type DeviceType int

const DEVICE_TYPE_ATA DeviceType = 0
const DEVICE_TYPE_ATW DeviceType = 1

// TempUnit is the unit code a device reports its temperatures in
type TempUnit string

const UNIT_TEMP_CELSIUS TempUnit = "celsius"
const UNIT_TEMP_FAHRENHEIT TempUnit = "fahrenheit"

// OperationMode is the ATA operation mode code as used by the MELCloud API
type OperationMode int

const OPERATION_MODE_UNDEFINED OperationMode = 0
const OPERATION_MODE_HEAT OperationMode = 1
const OPERATION_MODE_DRY OperationMode = 2
const OPERATION_MODE_COOL OperationMode = 3
const OPERATION_MODE_FAN_ONLY OperationMode = 7
const OPERATION_MODE_HEAT_COOL OperationMode = 8

// ZoneOperationMode is the ATW per-zone operation mode code
type ZoneOperationMode int

const ZONE_OPERATION_MODE_HEAT ZoneOperationMode = 0
const ZONE_OPERATION_MODE_HEAT_FLOW ZoneOperationMode = 1
const ZONE_OPERATION_MODE_CURVE ZoneOperationMode = 2
const ZONE_OPERATION_MODE_COOL ZoneOperationMode = 3
const ZONE_OPERATION_MODE_COOL_FLOW ZoneOperationMode = 4

// ZoneStatus describes what an ATW zone is doing right now
type ZoneStatus string

const ZONE_STATUS_HEAT ZoneStatus = "heating"
const ZONE_STATUS_COOL ZoneStatus = "cooling"
const ZONE_STATUS_IDLE ZoneStatus = "idle"
const ZONE_STATUS_UNKNOWN ZoneStatus = "unknown"

const FAN_SPEED_AUTO = "auto"

// Properties is a set of changes passed to Set
type Properties map[string]interface{}

const PROPERTY_POWER = "power"
const PROPERTY_OPERATION_MODE = "operation_mode"
const PROPERTY_TARGET_TEMPERATURE = "target_temperature"
const PROPERTY_FAN_SPEED = "fan_speed"
const PROPERTY_ZONE_1_OPERATION_MODE = "zone_1_operation_mode"
const PROPERTY_ZONE_2_OPERATION_MODE = "zone_2_operation_mode"
const PROPERTY_ZONE_1_TARGET_TEMPERATURE = "zone_1_target_temperature"
const PROPERTY_ZONE_2_TARGET_TEMPERATURE = "zone_2_target_temperature"
const PROPERTY_TARGET_TANK_TEMPERATURE = "target_tank_temperature"

// EffectiveFlags tell the API which fields of a posted state changed
const ataFlagPower = 0x01
const ataFlagOperationMode = 0x02
const ataFlagTargetTemperature = 0x04
const ataFlagFanSpeed = 0x08

const atwFlagPower = 0x01
const atwFlagZone1OperationMode = 0x08
const atwFlagZone2OperationMode = 0x10
const atwFlagTargetTankTemperature = 0x1000000000020
const atwFlagZone1TargetTemperature = 0x200000080
const atwFlagZone2TargetTemperature = 0x800000200
