package climate_test

import (
	"context"
	"errors"
	"melcloud2mqtt/climate"
	"melcloud2mqtt/entity"
	"melcloud2mqtt/melcloud"
	"net/http/httptest"
	"testing"

	"github.com/epiclabs-io/ut"
)

func TestLookupRoundTrip(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	for code, hvacMode := range climate.AtaHvacModes.GetForwardMap() {
		back, ok := climate.AtaHvacModes.GetInverse(hvacMode)
		t.Assert(ok, "no reverse entry for %s", hvacMode)
		t.Equals(code, back)
		t.Assert(hvacMode != climate.HVAC_MODE_OFF, "off is synthesized from power")
	}
	t.Equals(5, climate.AtaHvacModes.Size())

	for code, hvacMode := range climate.AtwZoneHvacModes.GetForwardMap() {
		back, ok := climate.AtwZoneHvacModes.GetInverse(hvacMode)
		t.Assert(ok, "no reverse entry for %s", hvacMode)
		t.Equals(code, back)
	}
	t.Equals(2, climate.AtwZoneHvacModes.Size())
}

func TestConvertTemperature(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()

	t.Equals(50.0, climate.ConvertTemperature(10, entity.TEMP_CELSIUS, entity.TEMP_FAHRENHEIT))
	t.Equals(86.0, climate.ConvertTemperature(30, entity.TEMP_CELSIUS, entity.TEMP_FAHRENHEIT))
	t.Equals(10.0, climate.ConvertTemperature(50, entity.TEMP_FAHRENHEIT, entity.TEMP_CELSIUS))
	t.Equals(21.0, climate.ConvertTemperature(21, entity.TEMP_CELSIUS, entity.TEMP_CELSIUS))
}

func TestLegacy(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := newAtaMock()
	c := climate.NewLegacy(wrap(entity.DOMAIN_LEGACY, device), device)

	t.Equals("Living HVAC", c.Name())
	t.Equals("111-aa:bb-climate", c.UniqueID())
	t.Equals(entity.DeviceInfo{
		Identifiers:  []entity.Identifier{{"melcloud", "aa:bb-111"}},
		Manufacturer: entity.MANUFACTURER,
		Name:         "Living",
	}, c.DeviceInfo())
	t.Assert(c.ShouldPoll(), "legacy entities are polled")
	t.Equals(climate.SUPPORT_FAN_MODE|climate.SUPPORT_TARGET_TEMPERATURE, c.SupportedFeatures())
	t.Equals(climate.PRECISION_TENTHS, c.Precision(entity.TEMP_CELSIUS))
	t.Equals(climate.PRECISION_WHOLE, c.Precision(entity.TEMP_FAHRENHEIT))
	t.Equals(0.5, *c.TargetTemperatureStep())

	// powered off
	t.Equals(climate.HVAC_MODE_OFF, c.HvacMode())
	t.Equals(climate.HVAC_MODE_OFF, c.State())
	device.power = true
	t.Equals(climate.HVAC_MODE_COOL, c.HvacMode())
	t.Equals(climate.HVAC_MODE_COOL, c.State())
	t.Equals([]string{"heat", "dry", "cool", "fan_only", "heat_cool"}, c.HvacModes())

	t.Equals("speed 2", c.FanMode())
	t.Equals([]string{"auto", "speed 1", "speed 2"}, c.FanModes())
	t.Ok(c.SetFanMode(ctx, "speed 1"))
	t.Equals(melcloud.Properties{melcloud.PROPERTY_FAN_SPEED: "speed-1"}, device.sets[0])

	device.fanSpeeds = nil
	device.fanSpeed = ""
	t.Equals([]string(nil), c.FanModes())
	t.Equals("", c.FanMode())
}

func TestLegacySetHvacMode(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := newAtaMock()
	device.mode = melcloud.OPERATION_MODE_UNDEFINED
	c := climate.NewLegacy(wrap(entity.DOMAIN_LEGACY, device), device)
	t.Equals(climate.HVAC_MODE_OFF, c.HvacMode())

	err := c.SetHvacMode(ctx, "turbo")
	t.Assert(errors.Is(err, climate.ErrInvalidHvacMode), "expected ErrInvalidHvacMode, got %v", err)
	t.Equals(0, len(device.sets))

	// mode first, then power in a second call
	t.Ok(c.SetHvacMode(ctx, climate.HVAC_MODE_HEAT))
	t.Equals([]melcloud.Properties{
		{melcloud.PROPERTY_OPERATION_MODE: melcloud.OPERATION_MODE_HEAT},
		{melcloud.PROPERTY_POWER: true},
	}, device.sets)
	t.Equals(climate.HVAC_MODE_HEAT, c.HvacMode())

	device.sets = nil
	t.Ok(c.SetHvacMode(ctx, climate.HVAC_MODE_DRY))
	t.Equals([]melcloud.Properties{
		{melcloud.PROPERTY_OPERATION_MODE: melcloud.OPERATION_MODE_DRY},
	}, device.sets)

	device.sets = nil
	t.Ok(c.SetHvacMode(ctx, climate.HVAC_MODE_OFF))
	t.Equals([]melcloud.Properties{{melcloud.PROPERTY_POWER: false}}, device.sets)
}

func TestLegacyPower(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := newAtaMock()
	c := climate.NewLegacy(wrap(entity.DOMAIN_LEGACY, device), device)

	t.Ok(c.TurnOff(ctx))
	t.Equals(0, len(device.sets))
	t.Ok(c.TurnOn(ctx))
	t.Ok(c.TurnOn(ctx))
	t.Equals([]melcloud.Properties{{melcloud.PROPERTY_POWER: true}}, device.sets)
	t.Ok(c.TurnOff(ctx))
	t.Ok(c.TurnOff(ctx))
	t.Equals(2, len(device.sets))
	t.Equals(melcloud.Properties{melcloud.PROPERTY_POWER: false}, device.sets[1])
}

func TestLegacyTemperature(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := newAtaMock()
	c := climate.NewLegacy(wrap(entity.DOMAIN_LEGACY, device), device)

	t.Equals(21.5, *c.CurrentTemperature())
	t.Equals(22.0, *c.TargetTemperature())

	t.Ok(c.SetTemperature(ctx, float(23.5)))
	t.Ok(c.SetTemperature(ctx, nil))
	t.Equals([]melcloud.Properties{
		{melcloud.PROPERTY_TARGET_TEMPERATURE: 23.5},
		{melcloud.PROPERTY_TARGET_TEMPERATURE: 22.0},
	}, device.sets)

	device.target = nil
	t.MustFailWith(c.SetTemperature(ctx, nil), climate.ErrNoTargetTemperature)

	t.Equals(entity.TEMP_CELSIUS, c.TemperatureUnit())
	t.Equals(10.0, c.MinTemp())
	t.Equals(30.0, c.MaxTemp())
	device.unit = melcloud.UNIT_TEMP_FAHRENHEIT
	t.Equals(entity.TEMP_FAHRENHEIT, c.TemperatureUnit())
	t.Equals(50.0, c.MinTemp())
	t.Equals(86.0, c.MaxTemp())
	device.min, device.max = float(16), float(31)
	t.Equals(16.0, c.MinTemp())
	t.Equals(31.0, c.MaxTemp())
	device.unit = "kelvin"
	t.Equals(entity.TEMP_CELSIUS, c.TemperatureUnit())
}

func TestAta(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := newAtaMock()
	c := climate.NewAta(wrap(entity.DOMAIN_CURRENT, device), device)

	t.Equals("Living", c.Name())
	t.Equals("111-aa:bb", c.UniqueID())
	t.Equals(entity.Identifier{"melcloudexp", "aa:bb-111"}, c.DeviceInfo().Identifiers[0])
	t.Equals(climate.SUPPORT_FAN_MODE|climate.SUPPORT_TARGET_TEMPERATURE, c.SupportedFeatures())
	t.Equals([]string{"off", "heat", "dry", "cool", "fan_only", "heat_cool"}, c.HvacModes())
	t.Equals("speed-2", c.FanMode())
	t.Equals([]string{"auto", "speed-1", "speed-2"}, c.FanModes())
	t.Equals(0, len(c.StateAttributes()))

	t.Ok(c.SetFanMode(ctx, "auto"))
	t.Equals(melcloud.Properties{melcloud.PROPERTY_FAN_SPEED: "auto"}, device.sets[0])

	device.sets = nil
	t.Ok(c.TurnOff(ctx))
	t.Equals(0, len(device.sets))
	t.Ok(c.TurnOn(ctx))
	t.Ok(c.TurnOn(ctx))
	t.Equals(1, len(device.sets))

	t.Ok(c.Update(ctx))
	t.Ok(c.Update(ctx))
	t.Equals(1, device.updateHits)
	t.Assert(c.Available(), "device must be available")
}

func TestAtaSetHvacMode(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := newAtaMock()
	device.power = false
	device.mode = melcloud.OPERATION_MODE_UNDEFINED
	c := climate.NewAta(wrap(entity.DOMAIN_CURRENT, device), device)
	t.Equals(climate.HVAC_MODE_OFF, c.HvacMode())

	t.Ok(c.SetHvacMode(ctx, climate.HVAC_MODE_COOL))
	t.Equals([]melcloud.Properties{{
		melcloud.PROPERTY_OPERATION_MODE: melcloud.OPERATION_MODE_COOL,
		melcloud.PROPERTY_POWER:          true,
	}}, device.sets)
	t.Equals(climate.HVAC_MODE_COOL, c.HvacMode())

	device.sets = nil
	t.Ok(c.SetHvacMode(ctx, climate.HVAC_MODE_FAN_ONLY))
	t.Equals([]melcloud.Properties{{melcloud.PROPERTY_OPERATION_MODE: melcloud.OPERATION_MODE_FAN_ONLY}}, device.sets)

	device.sets = nil
	err := c.SetHvacMode(ctx, "auto")
	t.Assert(errors.Is(err, climate.ErrInvalidHvacMode), "expected ErrInvalidHvacMode, got %v", err)
	t.Equals(0, len(device.sets))

	t.Ok(c.SetHvacMode(ctx, climate.HVAC_MODE_OFF))
	t.Equals([]melcloud.Properties{{melcloud.PROPERTY_POWER: false}}, device.sets)
	t.Equals(climate.HVAC_MODE_OFF, c.HvacMode())
}

func TestAtaSetError(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := newAtaMock()
	device.setErr = &melcloud.ConnectionError{Err: errors.New("timeout")}
	c := climate.NewAta(wrap(entity.DOMAIN_CURRENT, device), device)

	err := c.SetTemperature(ctx, float(20))
	t.Assert(melcloud.IsConnectionError(err), "expected the connection error, got %v", err)
	t.Assert(!c.Available(), "entity must be unavailable after a failed command")
}

func TestAtwZone(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := &atwMock{power: true, unit: melcloud.UNIT_TEMP_CELSIUS}
	zone := &zoneMock{index: 2, mode: melcloud.ZONE_OPERATION_MODE_HEAT, known: true, status: melcloud.ZONE_STATUS_HEAT, room: float(20.5), target: float(21)}
	c := climate.NewAtwZone(wrap(entity.DOMAIN_CURRENT, device), device, zone)

	t.Equals("Heat pump Ground floor", c.Name())
	t.Equals("222-cc:dd-2", c.UniqueID())
	t.Equals(climate.SUPPORT_TARGET_TEMPERATURE, c.SupportedFeatures())
	t.Equals(climate.HVAC_MODE_HEAT, c.HvacMode())
	t.Equals([]string{climate.HVAC_MODE_HEAT}, c.HvacModes())
	t.Equals(20.5, *c.CurrentTemperature())
	t.Equals(21.0, *c.TargetTemperature())
	t.Equals(0.5, *c.TargetTemperatureStep())
	t.Equals(map[string]interface{}{"status": "heat"}, c.StateAttributes())

	zone.status = melcloud.ZONE_STATUS_IDLE
	t.Equals(map[string]interface{}{"status": "idle"}, c.StateAttributes())

	// bounds are fixed until the unit reports them
	t.Equals(10.0, c.MinTemp())
	t.Equals(30.0, c.MaxTemp())
	device.unit = melcloud.UNIT_TEMP_FAHRENHEIT
	t.Equals(50.0, c.MinTemp())
	t.Equals(86.0, c.MaxTemp())

	// flow and curve modes read as off
	zone.mode = melcloud.ZONE_OPERATION_MODE_CURVE
	t.Equals(climate.HVAC_MODE_OFF, c.HvacMode())
	t.Equals([]string{climate.HVAC_MODE_OFF}, c.HvacModes())
	zone.known = false
	zone.mode = melcloud.ZONE_OPERATION_MODE_COOL
	t.Equals(climate.HVAC_MODE_OFF, c.HvacMode())
	zone.known = true
	t.Equals(climate.HVAC_MODE_COOL, c.HvacMode())

	t.Ok(c.SetTemperature(ctx, float(19)))
	t.Ok(c.SetTemperature(ctx, nil))
	t.Equals([]melcloud.Properties{
		{melcloud.PROPERTY_ZONE_2_TARGET_TEMPERATURE: 19.0},
		{melcloud.PROPERTY_ZONE_2_TARGET_TEMPERATURE: 21.0},
	}, device.sets)
	t.Assert(c.Available(), "entity must be available after a command")

	// a set point that cannot reach MELCloud makes the zone unavailable
	device.sets = nil
	device.setErr = &melcloud.ConnectionError{Err: errors.New("timeout")}
	err := c.SetTemperature(ctx, float(22))
	t.Assert(melcloud.IsConnectionError(err), "expected the connection error, got %v", err)
	t.Assert(!c.Available(), "zone must be unavailable after a failed set point")
	device.setErr = nil

	t.MustFailWith(c.SetFanMode(ctx, "auto"), climate.ErrNotSupported)
	t.Equals("", c.FanMode())
	t.Equals([]string(nil), c.FanModes())
}

func TestAtwZoneSetHvacMode(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	device := &atwMock{power: false, unit: melcloud.UNIT_TEMP_CELSIUS}
	zone1 := &zoneMock{index: 1, mode: melcloud.ZONE_OPERATION_MODE_HEAT, known: true}
	zone2 := &zoneMock{index: 2, mode: melcloud.ZONE_OPERATION_MODE_HEAT, known: true}
	api := wrap(entity.DOMAIN_CURRENT, device)
	c1 := climate.NewAtwZone(api, device, zone1)
	c2 := climate.NewAtwZone(api, device, zone2)

	t.Equals(climate.HVAC_MODE_OFF, c1.HvacMode())
	t.Ok(c1.SetHvacMode(ctx, climate.HVAC_MODE_COOL))
	t.Equals([]melcloud.Properties{{
		melcloud.PROPERTY_ZONE_1_OPERATION_MODE: melcloud.ZONE_OPERATION_MODE_COOL,
		melcloud.PROPERTY_POWER:                 true,
	}}, device.sets)

	device.sets = nil
	t.Ok(c2.SetHvacMode(ctx, climate.HVAC_MODE_HEAT))
	t.Equals([]melcloud.Properties{{
		melcloud.PROPERTY_ZONE_2_OPERATION_MODE: melcloud.ZONE_OPERATION_MODE_HEAT,
	}}, device.sets)

	device.sets = nil
	err := c2.SetHvacMode(ctx, climate.HVAC_MODE_DRY)
	t.Assert(errors.Is(err, climate.ErrInvalidHvacMode), "expected ErrInvalidHvacMode, got %v", err)
	t.Equals(0, len(device.sets))

	t.Ok(c2.SetHvacMode(ctx, climate.HVAC_MODE_OFF))
	t.Equals([]melcloud.Properties{{melcloud.PROPERTY_POWER: false}}, device.sets)

	device.sets = nil
	t.Ok(c1.TurnOff(ctx))
	t.Equals(0, len(device.sets))
	t.Ok(c1.TurnOn(ctx))
	t.Equals([]melcloud.Properties{{melcloud.PROPERTY_POWER: true}}, device.sets)
}

func TestNewEntities(tx *testing.T) {
	t := ut.BeginTest(tx, false)
	defer t.FinishTest()
	ctx := context.Background()

	mock := melcloud.NewMock()
	server := httptest.NewServer(mock)
	defer server.Close()

	connect := func(token string) entity.DeviceLister {
		return melcloud.New(token, melcloud.WithBaseURL(server.URL))
	}

	account, err := entity.Setup(ctx, entity.DOMAIN_CURRENT, connect, melcloud.MockToken)
	t.Ok(err)
	entities := climate.NewEntities(account)
	t.Equals(3, len(entities))
	t.Equals("111-aa:bb", entities[0].UniqueID())
	t.Equals("222-cc:dd-1", entities[1].UniqueID())
	t.Equals("222-cc:dd-2", entities[2].UniqueID())
	t.Equals("Heat pump Ground floor", entities[1].Name())
	t.Equals("Heat pump Zone 2", entities[2].Name())

	for _, e := range entities {
		t.Ok(e.Update(ctx))
	}
	t.Equals(climate.HVAC_MODE_OFF, entities[0].HvacMode())
	t.Equals(climate.HVAC_MODE_HEAT, entities[1].HvacMode())
	t.Equals(climate.HVAC_MODE_COOL, entities[2].HvacMode())
	t.Equals(map[string]interface{}{"status": "idle"}, entities[2].StateAttributes())

	t.Ok(entities[0].SetHvacMode(ctx, climate.HVAC_MODE_COOL))
	posted := mock.LastPosted("/Device/SetAta")
	t.Equals(float64(melcloud.OPERATION_MODE_COOL), posted["OperationMode"])
	t.Equals(true, posted["Power"])
	t.Equals(climate.HVAC_MODE_COOL, entities[0].HvacMode())

	legacyAccount, err := entity.Setup(ctx, entity.DOMAIN_LEGACY, connect, melcloud.MockToken)
	t.Ok(err)
	legacy := climate.NewLegacyEntities(legacyAccount.All())
	t.Equals(1, len(legacy))
	t.Equals("Living HVAC", legacy[0].Name())
}
