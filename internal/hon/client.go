package hon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/config"
)

const (
	defaultTimeout = 30 * time.Second

	// maxErrorBody bounds how much of a failed response is kept for the error.
	maxErrorBody = 512

	resultCodeOK = "0"

	// timestampLayout is ISO-8601 UTC with milliseconds.
	timestampLayout = "2006-01-02T15:04:05.000Z"
)

// Logger is the logging interface used by the client.
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

// Client talks to the vendor cloud.
//
// Thread Safety: All methods are safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     Logger

	mobileID   string
	appVersion string
	os         string

	now func() time.Time
}

// NewClient creates a client from configuration.
//
// Parameters:
//   - cfg: cloud settings; tokens seed the Session
//
// Returns:
//   - *Client: ready to use; no request is made here
//   - error: if the base URL is not an absolute http(s) URL
func NewClient(cfg config.HonConfig) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("hon: invalid base url %q", cfg.BaseURL)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		session:    NewSession(cfg.IDToken, cfg.CognitoToken),
		logger:     noopLogger{},
		mobileID:   cfg.MobileID,
		appVersion: cfg.AppVersion,
		os:         cfg.OS,
		now:        time.Now,
	}, nil
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	c.logger = logger
}

// Session returns the token holder used by the client.
func (c *Client) Session() *Session {
	return c.session
}

// CheckCredentials implements command.CredentialsChecker.
func (c *Client) CheckCredentials() error {
	return c.session.Check()
}

// LoadCommands fetches the raw command tree for an appliance.
//
// The returned object keeps the document order of the response and no
// longer contains the resultCode entry.
func (c *Client) LoadCommands(ctx context.Context, info command.Info) (*command.Object, error) {
	q := url.Values{}
	q.Set("applianceType", info.ApplianceType)
	q.Set("applianceModelId", info.ModelID)
	q.Set("code", info.Code)
	q.Set("firmwareId", info.FirmwareID)
	q.Set("fwVersion", info.FirmwareVersion)
	q.Set("macAddress", info.MacAddress)
	q.Set("series", info.Series)
	q.Set("os", c.os)
	q.Set("appVersion", c.appVersion)

	var env struct {
		Payload *command.Object `json:"payload"`
	}
	if err := c.get(ctx, "/commands/v1/retrieve", q, &env); err != nil {
		return nil, err
	}
	if env.Payload == nil {
		return nil, fmt.Errorf("%w: retrieve: missing payload", ErrBadResponse)
	}
	code, _ := env.Payload.Get("resultCode")
	if s, _ := code.(string); s != resultCodeOK {
		return nil, fmt.Errorf("%w: retrieve: result code %v", ErrRequestFailed, code)
	}
	env.Payload.Delete("resultCode")
	return env.Payload, nil
}

// LoadFavourites fetches the saved presets of an appliance.
func (c *Client) LoadFavourites(ctx context.Context, info command.Info) ([]command.Favourite, error) {
	q := url.Values{}
	q.Set("macAddress", info.MacAddress)

	var env struct {
		Payload struct {
			Favourites []command.Favourite `json:"favourites"`
		} `json:"payload"`
	}
	if err := c.get(ctx, "/commands/v1/favourite", q, &env); err != nil {
		return nil, err
	}
	return env.Payload.Favourites, nil
}

// LoadCommandHistory fetches the commands recently sent to an appliance.
func (c *Client) LoadCommandHistory(ctx context.Context, info command.Info) ([]command.HistoryEntry, error) {
	path := "/commands/v1/appliance/" + url.PathEscape(info.MacAddress) + "/history"

	var env struct {
		Payload struct {
			History []command.HistoryEntry `json:"history"`
		} `json:"payload"`
	}
	if err := c.get(ctx, path, nil, &env); err != nil {
		return nil, err
	}
	return env.Payload.History, nil
}

// LoadAttributes fetches the current attribute snapshot.
//
// Entries keep the vendor shape ({"parNewVal": ..., "lastUpdate": ...})
// and are meant for attribute.Store.Apply.
func (c *Client) LoadAttributes(ctx context.Context, info command.Info) (map[string]any, error) {
	q := url.Values{}
	q.Set("macAddress", info.MacAddress)
	q.Set("applianceType", info.ApplianceType)
	q.Set("category", "CYCLE")

	var env struct {
		Payload struct {
			Shadow struct {
				Parameters map[string]any `json:"parameters"`
			} `json:"shadow"`
		} `json:"payload"`
	}
	if err := c.get(ctx, "/commands/v1/context", q, &env); err != nil {
		return nil, err
	}
	if env.Payload.Shadow.Parameters == nil {
		return map[string]any{}, nil
	}
	return env.Payload.Shadow.Parameters, nil
}

// SendCommand transmits one command.
//
// A non-zero result code is reported through Ack.Success rather than an
// error; errors are reserved for transport and credential failures.
func (c *Client) SendCommand(ctx context.Context, req command.Request) (command.Ack, error) {
	if err := c.session.Check(); err != nil {
		return command.Ack{}, err
	}

	body := c.sendBody(req)
	txID, _ := body["transactionId"].(string)

	var env struct {
		Payload struct {
			ResultCode string `json:"resultCode"`
		} `json:"payload"`
	}
	if err := c.do(ctx, http.MethodPost, "/commands/v1/send", nil, body, &env); err != nil {
		return command.Ack{TransactionID: txID}, err
	}

	ack := command.Ack{
		Success:       env.Payload.ResultCode == resultCodeOK,
		TransactionID: txID,
		ResultCode:    env.Payload.ResultCode,
	}
	if !ack.Success {
		c.logger.Warn("command rejected by cloud",
			"mac", req.Appliance.MacAddress,
			"command", req.Command,
			"result_code", ack.ResultCode,
		)
	}
	return ack, nil
}

// TransactionID builds the identifier the cloud expects for a send:
// the MAC address and an ISO-8601 UTC timestamp with milliseconds.
func TransactionID(mac string, at time.Time) string {
	return mac + "_" + at.UTC().Format(timestampLayout)
}

func (c *Client) sendBody(req command.Request) map[string]any {
	now := c.now().UTC()
	info := req.Appliance

	options := info.Options
	if options == nil {
		options = map[string]any{}
	}
	params := req.Parameters
	if params == nil {
		params = map[string]string{}
	}
	ancillary := req.Ancillary
	if ancillary == nil {
		ancillary = map[string]string{}
	}

	body := map[string]any{
		"macAddress":       info.MacAddress,
		"timestamp":        now.Format(timestampLayout),
		"commandName":      req.Command,
		"transactionId":    TransactionID(info.MacAddress, now),
		"applianceOptions": options,
		"device": map[string]string{
			"appVersion": c.appVersion,
			"mobileId":   c.mobileID,
			"mobileOs":   c.os,
		},
		"attributes": map[string]string{
			"channel":     "mobileApp",
			"origin":      "standardProgram",
			"energyLabel": "0",
		},
		"ancillaryParameters": ancillary,
		"parameters":          params,
		"applianceType":       info.ApplianceType,
	}
	if req.Command == "startProgram" && req.Program != "" {
		body["programName"] = strings.ToUpper(req.Program)
	}
	return body
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	if err := c.session.Check(); err != nil {
		return err
	}
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// do performs one request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.session.apply(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for connection reuse
		resp.Body.Close()
	}()

	c.logger.Debug("cloud request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s: status %d", command.ErrMissingCredentials, method, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%w: %s %s: status %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrBadResponse, path, err)
	}
	return nil
}
