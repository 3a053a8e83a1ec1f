package command

import (
	"context"
	"time"
)

// Info identifies the appliance a command is sent to.
type Info struct {
	MacAddress      string
	ApplianceType   string
	ModelID         string
	Code            string
	FirmwareID      string
	FirmwareVersion string
	Series          string

	// Options is echoed back to the cloud with every send.
	Options map[string]any
}

// Appliance is the owning appliance as seen by its commands.
type Appliance interface {
	// Info returns the identity used when sending.
	Info() Info

	// Zone is the appliance zone; zero when the appliance has a single zone.
	Zone() int

	// LocalizedProgramName resolves a display label for a program code.
	// It returns false when no translation is known.
	LocalizedProgramName(code, label string) (string, bool)

	// Attributes is the live attribute store.
	Attributes() AttributeStore

	// Sender returns the transport, or nil when no session is attached.
	Sender() Sender
}

// AttributeStore is the part of the live attribute store commands write to.
type AttributeStore interface {
	Get(key string) (string, bool)
	Update(key, value string, shield bool) bool
}

// Request is one outgoing command transmission.
type Request struct {
	Appliance  Info
	Command    string
	Label      string
	Program    string
	Parameters map[string]string
	Ancillary  map[string]string
}

// Ack is the transport's answer to a Request.
type Ack struct {
	Success       bool
	TransactionID string
	ResultCode    string
}

// Sender transmits commands to the cloud.
//
// Implementations return an error wrapping ErrMissingCredentials when no
// session is available.
type Sender interface {
	SendCommand(ctx context.Context, req Request) (Ack, error)
}

// CredentialsChecker is implemented by senders that can tell without a
// request whether their session is usable. The error wraps
// ErrMissingCredentials.
type CredentialsChecker interface {
	CheckCredentials() error
}

// Result describes a successful send.
type Result struct {
	Command       string            `json:"command"`
	Label         string            `json:"label"`
	Program       string            `json:"program,omitempty"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Parameters    map[string]string `json:"parameters"`
	Ancillary     map[string]string `json:"ancillary_parameters,omitempty"`
}

// Record is one send attempt as kept by a Recorder.
type Record struct {
	MacAddress    string
	Command       string
	Label         string
	TransactionID string
	Parameters    map[string]string
	Ancillary     map[string]string
	Success       bool
	Error         string
	SentAt        time.Time
}

// Recorder keeps a journal of send attempts. Failures to record are logged
// and never fail the send.
type Recorder interface {
	RecordSend(ctx context.Context, rec Record) error
}

// Logger is the logging interface used by commands and the loader.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
