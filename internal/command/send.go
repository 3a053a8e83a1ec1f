package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// includeFunc selects which non-ancillary parameters accompany a send.
type includeFunc func(key string, p parameter.Parameter) bool

// Send transmits the command with its "parameters" group plus overrides.
//
// Overrides are validated against a copy of the matching parameter; a
// rejected override returns a *parameter.ValidationError and nothing is
// sent. Keys without a matching parameter are passed through as strings.
// An override under the program selector (or "program", whatever the
// selector key) naming a sibling category sends
// that sibling instead, filling every key not overridden from its current
// values; after a successful send the sibling becomes the active category.
func (c *Command) Send(ctx context.Context, overrides map[string]any) (*Result, error) {
	return c.send(ctx, overrides, func(_ string, p parameter.Parameter) bool {
		return p.Group() == parameter.GroupParameters
	})
}

// SendMandatory is Send restricted to mandatory parameters.
func (c *Command) SendMandatory(ctx context.Context, overrides map[string]any) (*Result, error) {
	return c.send(ctx, overrides, func(_ string, p parameter.Parameter) bool {
		return p.Group() == parameter.GroupParameters && p.Mandatory()
	})
}

// SendSpecific sends the listed keys plus every mandatory parameter,
// whatever their group.
func (c *Command) SendSpecific(ctx context.Context, keys []string) (*Result, error) {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	return c.send(ctx, nil, func(key string, p parameter.Parameter) bool {
		return wanted[key] || p.Mandatory()
	})
}

func (c *Command) send(ctx context.Context, overrides map[string]any, include includeFunc) (*Result, error) {
	source, overrides, err := c.resolveSource(overrides)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string)
	ancillary := make(map[string]string)
	for key, p := range source.parameters {
		if p.Kind() == parameter.KindProgram {
			continue
		}
		if _, overridden := overrides[key]; overridden {
			continue
		}
		if p.Group() == parameter.GroupAncillary {
			if key != keyProgramRules {
				ancillary[key] = p.String()
			}
			continue
		}
		if include(key, p) {
			params[key] = p.String()
		}
	}

	for _, key := range sortedKeys(overrides) {
		value := overrides[key]
		p, known := source.parameters[key]
		if !known {
			params[key] = parameter.Stringify(value)
			continue
		}
		candidate := p.Clone()
		if err := candidate.SetValue(value); err != nil {
			return nil, err
		}
		if p.Group() == parameter.GroupAncillary {
			ancillary[key] = candidate.String()
			continue
		}
		params[key] = candidate.String()
	}

	program := source.programName()
	if _, ok := params[parameter.KeyPrStr]; ok {
		params[parameter.KeyPrStr] = program
	}

	req := Request{
		Command:    source.name,
		Label:      source.label(),
		Program:    program,
		Parameters: params,
		Ancillary:  ancillary,
	}

	var sender Sender
	if source.appliance != nil {
		req.Appliance = source.appliance.Info()
		sender = source.appliance.Sender()
	}
	if sender == nil {
		source.record(ctx, req, Ack{}, ErrMissingCredentials)
		return nil, ErrMissingCredentials
	}
	if checker, ok := sender.(CredentialsChecker); ok {
		if err := checker.CheckCredentials(); err != nil {
			source.record(ctx, req, Ack{}, err)
			return nil, err
		}
	}

	if store := source.appliance.Attributes(); store != nil {
		for key, value := range params {
			store.Update(key, value, true)
		}
	}

	ack, err := sender.SendCommand(ctx, req)
	var sendErr error
	switch {
	case errors.Is(err, ErrMissingCredentials):
		sendErr = err
	case err != nil:
		sendErr = &TransmissionError{Command: source.name, Err: err}
	case !ack.Success:
		sendErr = &TransmissionError{Command: source.name, ResultCode: ack.ResultCode}
	}
	source.record(ctx, req, ack, sendErr)
	if sendErr != nil {
		source.logger.Warn("command send failed",
			"command", source.name,
			"mac", req.Appliance.MacAddress,
			"error", sendErr,
		)
		return nil, sendErr
	}

	if source != c && c.catalog != nil {
		c.catalog.set(c.name, source)
	}

	source.logger.Info("command sent",
		"command", source.name,
		"mac", req.Appliance.MacAddress,
		"label", req.Label,
		"transaction_id", ack.TransactionID,
	)
	return &Result{
		Command:       source.name,
		Label:         req.Label,
		Program:       program,
		TransactionID: ack.TransactionID,
		Parameters:    params,
		Ancillary:     ancillary,
	}, nil
}

// resolveSource applies a program selector found in overrides. It returns
// the command to send and the overrides without the selector.
func (c *Command) resolveSource(overrides map[string]any) (*Command, map[string]any, error) {
	rest := make(map[string]any, len(overrides))
	for k, v := range overrides {
		rest[k] = v
	}

	prog, ok := c.programParameter()
	if !ok {
		return c, rest, nil
	}
	// "program" selects a sibling whatever the selector key is called.
	raw, ok := rest[prog.Key()]
	if ok {
		delete(rest, prog.Key())
	} else if raw, ok = rest[parameter.KeyProgram]; ok {
		delete(rest, parameter.KeyProgram)
	} else {
		return c, rest, nil
	}

	sibling, ok := c.lookupCategory(parameter.Stringify(raw))
	if !ok {
		return nil, nil, &parameter.ValidationError{Key: prog.Key(), Value: raw, Allowed: prog.Values()}
	}
	return sibling, rest, nil
}

// programName is the vendor program identifier in upper case.
func (c *Command) programName() string {
	if c.categoryName != "" {
		return strings.ToUpper(c.categoryName)
	}
	return strings.ToUpper(c.categoryKey)
}

// label resolves the display label through the appliance localisation,
// falling back to the upper-cased category key.
func (c *Command) label() string {
	if c.appliance != nil {
		code := ""
		if p, ok := c.parameters[parameter.KeyPrCode]; ok {
			code = p.String()
		}
		if name, ok := c.appliance.LocalizedProgramName(code, c.categoryKey); ok && name != "" {
			return name
		}
	}
	return strings.ToUpper(c.categoryKey)
}

func (c *Command) record(ctx context.Context, req Request, ack Ack, sendErr error) {
	if c.recorder == nil {
		return
	}
	rec := Record{
		MacAddress:    req.Appliance.MacAddress,
		Command:       req.Command,
		Label:         req.Label,
		TransactionID: ack.TransactionID,
		Parameters:    req.Parameters,
		Ancillary:     req.Ancillary,
		Success:       sendErr == nil,
		SentAt:        time.Now().UTC(),
	}
	if sendErr != nil {
		rec.Error = sendErr.Error()
	}
	if err := c.recorder.RecordSend(ctx, rec); err != nil {
		c.logger.Warn("failed to record command send", "command", c.name, "error", err)
	}
}
