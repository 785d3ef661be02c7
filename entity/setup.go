package entity

import (
	"context"
	"errors"
	"log/slog"
	"melcloud2mqtt/melcloud"
	"time"
)

const SETUP_TIMEOUT = 10 * time.Second

var ErrNotReady = errors.New("MELCloud not ready, retry later")
var ErrSetupFailed = errors.New("MELCloud setup failed")

// DeviceLister lists the devices of an account
type DeviceLister interface {
	Devices(ctx context.Context) (melcloud.Devices, error)
}

// Connector builds a client from a stored token
type Connector func(token string) DeviceLister

// Account groups the wrapped devices of one config entry by kind
type Account struct {
	Ata []*Device
	Atw []*Device
}

// All returns every device of the account, air-to-air units first
func (a *Account) All() []*Device {
	return append(append([]*Device(nil), a.Ata...), a.Atw...)
}

// Setup connects to MELCloud with token and wraps the account devices.
// Timeouts and connection failures return ErrNotReady, anything else ErrSetupFailed.
func Setup(ctx context.Context, domain string, connect Connector, token string) (*Account, error) {
	ctx, cancel := context.WithTimeout(ctx, SETUP_TIMEOUT)
	defer cancel()

	devices, err := connect(token).Devices(ctx)
	if err != nil {
		if melcloud.IsConnectionError(err) || errors.Is(err, context.DeadlineExceeded) {
			slog.Debug("MELCloud connection failed", "error", err)
			return nil, ErrNotReady
		}
		slog.Error("Unexpected error when initializing client", "error", err)
		return nil, ErrSetupFailed
	}

	account := &Account{}
	for _, d := range devices.Ata {
		account.Ata = append(account.Ata, NewDevice(&Config{Domain: domain, Device: d}))
	}
	for _, d := range devices.Atw {
		account.Atw = append(account.Atw, NewDevice(&Config{Domain: domain, Device: d}))
	}
	return account, nil
}
