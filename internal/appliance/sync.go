package appliance

import (
	"fmt"

	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// Failure reports one value that could not be assigned during
// synchronisation. Failures are collected, never returned as errors.
type Failure struct {
	Command string `json:"command"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (f Failure) Error() string {
	return fmt.Sprintf("%s.%s = %q: %v", f.Command, f.Key, f.Value, f.Err)
}

// SyncOptions restricts SyncCommand.
type SyncOptions struct {
	// Targets limits the commands written to. Empty means every other command.
	Targets []string
	// Keys limits the parameters copied. Takes precedence over MandatoryOnly.
	Keys []string
	// MandatoryOnly copies only parameters that are mandatory on the source.
	MandatoryOnly bool
}

// SyncCommandToParams echoes the named command's current values into the
// live store, for keys the store already holds.
func (a *Appliance) SyncCommandToParams(name string) error {
	cmd, err := a.catalog.Lookup(name)
	if err != nil {
		return err
	}
	for _, key := range a.attributes.Keys() {
		p, ok := cmd.Parameter(key)
		if !ok {
			continue
		}
		a.attributes.Update(key, p.String(), true)
	}
	return nil
}

// SyncParamsToCommand assigns non-empty live values to the named command's
// parameters. Range parameters receive the parsed number, other variants
// the raw string. Rejected values are returned as failures.
func (a *Appliance) SyncParamsToCommand(name string) ([]Failure, error) {
	cmd, err := a.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}

	var failures []Failure
	for _, key := range cmd.SettingKeys() {
		p, ok := cmd.Parameter(key)
		if !ok || p.Kind() == parameter.KindProgram {
			continue
		}
		value, ok := a.attributes.Get(key)
		if !ok || value == "" {
			continue
		}

		var candidate any = value
		if p.Kind() == parameter.KindRange {
			f, parseErr := parameter.ParseNumber(value)
			if parseErr != nil {
				failures = append(failures, Failure{Command: name, Key: key, Value: value, Err: parseErr})
				continue
			}
			candidate = f
		}
		if err := p.SetValue(candidate); err != nil {
			failures = append(failures, Failure{Command: name, Key: key, Value: value, Err: err})
		}
	}

	for _, f := range failures {
		a.logger.Debug("attribute not assignable to command", "mac", a.MacAddress(), "failure", f.Error())
	}
	return failures, nil
}

// SyncCommand copies parameter values from the source command to every
// other command (or the listed targets) defining the same key.
//
// Range targets take the source bounds when the source is a Range, and
// collapse to the single source value otherwise. Enum targets take the
// source's legal values. Program selectors are never copied.
func (a *Appliance) SyncCommand(source string, opts SyncOptions) ([]Failure, error) {
	base, err := a.catalog.Lookup(source)
	if err != nil {
		return nil, err
	}

	targets := make(map[string]bool, len(opts.Targets))
	for _, t := range opts.Targets {
		targets[t] = true
	}
	keys := make(map[string]bool, len(opts.Keys))
	for _, k := range opts.Keys {
		keys[k] = true
	}

	var failures []Failure
	for _, name := range a.catalog.Names() {
		if name == source || (len(targets) > 0 && !targets[name]) {
			continue
		}
		cmd, _ := a.catalog.Get(name)
		for key, target := range cmd.Parameters() {
			from, ok := base.Parameter(key)
			if !ok {
				continue
			}
			if len(keys) > 0 {
				if !keys[key] {
					continue
				}
			} else if opts.MandatoryOnly && !from.Mandatory() {
				continue
			}
			if from.Kind() == parameter.KindProgram || target.Kind() == parameter.KindProgram {
				continue
			}
			if err := syncParameter(from, target); err != nil {
				failures = append(failures, Failure{Command: name, Key: key, Value: from.String(), Err: err})
			}
		}
	}
	return failures, nil
}

func syncParameter(from, to parameter.Parameter) error {
	switch target := to.(type) {
	case *parameter.Range:
		if src, ok := from.(*parameter.Range); ok {
			target.SetBounds(src.Min(), src.Max(), src.Step())
			break
		}
		v, err := parameter.ParseNumber(from.String())
		if err != nil {
			return err
		}
		target.SetBounds(v, v, 1)
	case *parameter.Enum:
		target.SetValues(from.Values())
	}
	return to.SetValue(from.Value())
}

// Commands returns the catalog's command names, for callers that only
// need the listing.
func (a *Appliance) Commands() []string {
	return a.catalog.Names()
}

var _ command.Appliance = (*Appliance)(nil)
