// Package configflow authenticates a MELCloud account and records it as a config entry,
// either interactively from email and password or by importing an existing token.
package configflow

import (
	"context"
	"errors"
	"log/slog"
	"melcloud2mqtt/melcloud"
	"melcloud2mqtt/store"
	"time"
)

const STEP_USER = "user"

const RESULT_FORM = "form"
const RESULT_ABORT = "abort"
const RESULT_CREATE_ENTRY = "create_entry"

const REASON_CANNOT_CONNECT = "cannot_connect"
const REASON_INVALID_AUTH = "invalid_auth"
const REASON_UNKNOWN = "unknown"
const REASON_ALREADY_CONFIGURED = "already_configured"

const FIELD_EMAIL = store.DATA_EMAIL
const FIELD_PASSWORD = "password"
const FIELD_TOKEN = store.DATA_TOKEN

// LOGIN_TIMEOUT bounds the first configuration fetch of a new client
const LOGIN_TIMEOUT = 10 * time.Second

// Result tells the caller what to do next: show a form, report an abort
// reason or acknowledge a new entry
type Result struct {
	Type                    string
	StepID                  string
	Fields                  []string // required form fields
	Reason                  string
	DescriptionPlaceholders map[string]string
	Title                   string
	Data                    map[string]string
	EntryID                 string
}

// Client is the part of the vendor client the flow needs
type Client interface {
	Token() string
	Account() melcloud.Account
	UpdateConfs(ctx context.Context) error
}

// Connector builds vendor clients
type Connector interface {
	Login(ctx context.Context, email, password string) (Client, error)
	WithToken(token string) Client
}

// EntryStore persists config entries
type EntryStore interface {
	Entries(domain string) []store.Entry
	Add(domain, title string, data map[string]string) (store.Entry, error)
	Update(id string, data map[string]string) error
}

// MelCloud connects to the real MELCloud service
type MelCloud struct {
	Options []melcloud.Option
}

func (m *MelCloud) Login(ctx context.Context, email, password string) (Client, error) {
	client, err := melcloud.Login(ctx, email, password, m.Options...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (m *MelCloud) WithToken(token string) Client {
	return melcloud.New(token, m.Options...)
}

// Config contains the configuration parameters for a new Flow
type Config struct {
	Domain    string
	Connector Connector
	Store     EntryStore
	Timeout   time.Duration // defaults to LOGIN_TIMEOUT
}

// Flow runs config flow steps for one integration domain
type Flow struct {
	Config
}

// New returns a new Flow
func New(config *Config) *Flow {
	f := &Flow{
		Config: *config,
	}
	if f.Timeout == 0 {
		f.Timeout = LOGIN_TIMEOUT
	}
	return f
}

// StepUser asks for credentials when input is nil, otherwise logs in with them
func (f *Flow) StepUser(ctx context.Context, input map[string]string) (*Result, error) {
	if input == nil {
		return &Result{
			Type:   RESULT_FORM,
			StepID: STEP_USER,
			Fields: []string{FIELD_EMAIL, FIELD_PASSWORD},
		}, nil
	}
	return f.createClient(ctx, func() (Client, error) {
		return f.Connector.Login(ctx, input[FIELD_EMAIL], input[FIELD_PASSWORD])
	})
}

// StepImport registers a token obtained elsewhere. Without a token it falls back to the user form.
func (f *Flow) StepImport(ctx context.Context, input map[string]string) (*Result, error) {
	token := input[FIELD_TOKEN]
	if token == "" {
		return f.StepUser(ctx, nil)
	}
	return f.createClient(ctx, func() (Client, error) {
		return f.Connector.WithToken(token), nil
	})
}

func (f *Flow) createClient(ctx context.Context, connect func() (Client, error)) (*Result, error) {
	client, err := connect()
	if err == nil {
		err = f.updateConfs(ctx, client)
	}
	if err != nil {
		return abort(classify(err)), nil
	}
	return f.createEntry(client.Account().EmailAddress, client.Token())
}

func (f *Flow) updateConfs(ctx context.Context, client Client) error {
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	return client.UpdateConfs(ctx)
}

// classify maps a login failure to an abort reason
func classify(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return REASON_CANNOT_CONNECT
	}
	var httpErr *melcloud.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.IsAuthError() {
			return REASON_INVALID_AUTH
		}
		return REASON_CANNOT_CONNECT
	}
	if melcloud.IsConnectionError(err) {
		slog.Error("Cannot reach MELCloud", "error", err)
		return REASON_CANNOT_CONNECT
	}
	slog.Error("Unexpected error creating device", "error", err)
	return REASON_UNKNOWN
}

func (f *Flow) createEntry(email, token string) (*Result, error) {
	data := map[string]string{
		store.DATA_EMAIL: email,
		store.DATA_TOKEN: token,
	}
	for _, entry := range f.Store.Entries(f.Domain) {
		if entry.Email() != email {
			continue
		}
		if err := f.Store.Update(entry.ID, data); err != nil {
			return nil, err
		}
		slog.Info("Updated token of existing entry", "email", email, "entry", entry.ID)
		result := abort(REASON_ALREADY_CONFIGURED)
		result.DescriptionPlaceholders = map[string]string{FIELD_EMAIL: email}
		return result, nil
	}

	entry, err := f.Store.Add(f.Domain, email, data)
	if err != nil {
		return nil, err
	}
	slog.Info("Created config entry", "email", email, "entry", entry.ID)
	return &Result{
		Type:    RESULT_CREATE_ENTRY,
		Title:   email,
		Data:    data,
		EntryID: entry.ID,
	}, nil
}

func abort(reason string) *Result {
	return &Result{
		Type:   RESULT_ABORT,
		Reason: reason,
	}
}
