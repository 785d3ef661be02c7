// Package melcloud is a small client for the MELCloud REST API. It knows just
// enough of the API to log in, list the devices of an account, refresh their
// state and post changes.
package melcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Account holds the user details returned by MELCloud
type Account struct {
	EmailAddress  string `json:"EmailAddress"`
	Name          string `json:"Name"`
	UseFahrenheit bool   `json:"UseFahrenheit"`
}

type loginResponse struct {
	ErrorID   *int `json:"ErrorId"`
	LoginData *struct {
		ContextKey string `json:"ContextKey"`
	} `json:"LoginData"`
}

// Options tune a Client
type Option func(c *Client)

// WithBaseURL points the client at a different API root
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithHTTPClient replaces the default http client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithConfUpdateInterval sets the minimum time between device configuration refreshes
func WithConfUpdateInterval(d time.Duration) Option {
	return func(c *Client) {
		c.confUpdateInterval = d
	}
}

// Client holds the API client state, including the auth token.
type Client struct {
	token              string
	baseURL            string
	httpClient         *http.Client
	confUpdateInterval time.Duration

	lock         sync.Mutex
	account      Account
	confs        []deviceConf
	lastConfSync time.Time
	devices      map[int]deviceHandle
}

type deviceHandle interface {
	applyConf(conf deviceConf)
}

// New returns a client that authenticates with an existing token
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:              token,
		baseURL:            DefaultBaseURL,
		httpClient:         &http.Client{Timeout: 10 * time.Second},
		confUpdateInterval: 5 * time.Minute,
		devices:            make(map[int]deviceHandle),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login exchanges email and password for a token and returns a ready client
func Login(ctx context.Context, email, password string, opts ...Option) (*Client, error) {
	c := New("", opts...)

	body := map[string]interface{}{
		"Email":           email,
		"Password":        password,
		"Language":        0,
		"AppVersion":      appVersion,
		"Persist":         true,
		"CaptchaResponse": nil,
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/Login/ClientLogin", body, &resp); err != nil {
		return nil, err
	}
	if resp.ErrorID != nil || resp.LoginData == nil || resp.LoginData.ContextKey == "" {
		// MELCloud answers 200 with an ErrorId on bad credentials
		return nil, &HTTPError{StatusCode: http.StatusUnauthorized, Method: http.MethodPost, Path: "/Login/ClientLogin"}
	}
	c.token = resp.LoginData.ContextKey
	return c, nil
}

// Token returns the context key used to authenticate requests
func (c *Client) Token() string {
	return c.token
}

// Account returns the account details fetched by the last UpdateConfs
func (c *Client) Account() Account {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.account
}

// UpdateConfs refreshes the device configurations and account details.
// Calls within the conf update interval of a successful refresh are no-ops.
func (c *Client) UpdateConfs(ctx context.Context) error {
	c.lock.Lock()
	fresh := !c.lastConfSync.IsZero() && time.Since(c.lastConfSync) < c.confUpdateInterval
	c.lock.Unlock()
	if fresh {
		return nil
	}

	var buildings []building
	if err := c.do(ctx, http.MethodGet, "/User/ListDevices", nil, &buildings); err != nil {
		return err
	}
	var account Account
	if err := c.do(ctx, http.MethodPost, "/User/GetUserDetails", nil, &account); err != nil {
		return err
	}

	confs := flattenBuildings(buildings)

	c.lock.Lock()
	c.account = account
	c.confs = confs
	c.lastConfSync = time.Now()
	for _, conf := range confs {
		if d, ok := c.devices[conf.DeviceID]; ok {
			d.applyConf(conf)
		}
	}
	c.lock.Unlock()
	return nil
}

// Devices groups the account devices by kind
type Devices struct {
	Ata []*AtaDevice
	Atw []*AtwDevice
}

// Devices returns every device of the account. Device objects are stable
// across calls so callers can keep references to them.
func (c *Client) Devices(ctx context.Context) (Devices, error) {
	var devices Devices
	if err := c.UpdateConfs(ctx); err != nil {
		return devices, err
	}

	c.lock.Lock()
	defer c.lock.Unlock()
	for _, conf := range c.confs {
		switch DeviceType(conf.Type) {
		case DEVICE_TYPE_ATA:
			d, ok := c.devices[conf.DeviceID].(*AtaDevice)
			if !ok {
				d = newAtaDevice(c, conf)
				c.devices[conf.DeviceID] = d
			}
			devices.Ata = append(devices.Ata, d)
		case DEVICE_TYPE_ATW:
			d, ok := c.devices[conf.DeviceID].(*AtwDevice)
			if !ok {
				d = newAtwDevice(c, conf)
				c.devices[conf.DeviceID] = d
			}
			devices.Atw = append(devices.Atw, d)
		}
	}
	return devices, nil
}

func (c *Client) useFahrenheit() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.account.UseFahrenheit
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	var reader io.Reader
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "melcloud2mqtt")
	if c.token != "" {
		req.Header.Set("X-MitsContextKey", c.token)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &HTTPError{StatusCode: resp.StatusCode, Method: method, Path: path}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ConnectionError{Err: fmt.Errorf("decode %s response: %w", path, err)}
	}
	return nil
}
