package command

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// Catalog node markers and well-known names.
const (
	keyDescription    = "description"
	keyProtocolType   = "protocolType"
	keyProgramRules   = "programRules"
	keyApplianceModel = "applianceModel"
	categoryRule      = "rule"
	defaultCategory   = "setParameters"
)

// Command is a named, sendable operation made of parameters.
//
// Commands that were parsed from a category node share one sibling map with
// the other categories of the same node. Favourites registered later are
// added to that shared map and become visible to every sibling.
type Command struct {
	name         string
	categoryName string
	categoryKey  string
	appliance    Appliance
	parameters   map[string]parameter.Parameter
	data         map[string]any
	categories   map[string]*Command
	catalog      *Catalog
	logger       Logger
	recorder     Recorder
}

// New parses the raw attribute tree of one command node.
//
// Parameters:
//   - name: command name as it appears in the catalog
//   - attrs: the node's raw tree (groups of parameter entries)
//   - app: owning appliance, may be nil in tests
//   - categories: shared sibling map, nil for a command without categories
//   - categoryName: raw name of the category this node was found under
//
// Returns:
//   - *Command: the parsed command
//   - error: if a parameter entry is malformed
func New(name string, attrs map[string]any, app Appliance, categories map[string]*Command, categoryName string) (*Command, error) {
	return newCommand(name, attrs, app, categories, categoryName, noopLogger{})
}

func newCommand(name string, attrs map[string]any, app Appliance, categories map[string]*Command, categoryName string, logger Logger) (*Command, error) {
	c := &Command{
		name:         name,
		categoryName: categoryName,
		categoryKey:  name,
		appliance:    app,
		parameters:   make(map[string]parameter.Parameter),
		data:         make(map[string]any),
		categories:   categories,
		logger:       logger,
	}
	if categoryName != "" {
		c.categoryKey = parameter.CleanCategoryName(categoryName)
	}

	if err := c.parse(attrs); err != nil {
		return nil, err
	}

	if categoryName != "" {
		key := parameter.KeyCategory
		if strings.Contains(categoryName, "PROGRAM") {
			key = parameter.KeyProgram
		}
		c.parameters[key] = parameter.NewProgram(key, parameter.GroupCustom, c)
	}
	return c, nil
}

func (c *Command) parse(attrs map[string]any) error {
	for _, group := range sortedKeys(attrs) {
		entries, ok := attrs[group].(map[string]any)
		if !ok {
			c.data[group] = deepCopyValue(attrs[group])
			continue
		}
		for _, key := range sortedKeys(entries) {
			if err := c.parseEntry(group, key, entries[key]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Command) parseEntry(group, key string, raw any) error {
	attrs, ok := raw.(map[string]any)
	if !ok {
		c.setData(group, key, raw)
		return nil
	}

	// Rule sets are reserved: they are not wired into the trigger system.
	if category, _ := attrs["category"].(string); category == categoryRule {
		c.logger.Debug("ignoring rule entry", "command", c.name, "key", key)
	}

	if key == parameter.KeyZoneMap && c.appliance != nil && c.appliance.Zone() > 0 {
		zone := strconv.Itoa(c.appliance.Zone())
		attrs = deepCopyMap(attrs)
		attrs["defaultValue"] = zone
		attrs["fixedValue"] = zone
	}

	p, err := parameter.New(key, attrs, group)
	switch {
	case err == nil:
		c.parameters[key] = p
	case errors.Is(err, parameter.ErrUnknownTypology):
		c.setData(group, key, attrs)
	default:
		return fmt.Errorf("command %s: %w", c.name, err)
	}
	return nil
}

func (c *Command) setData(group, key string, value any) {
	bag, ok := c.data[group].(map[string]any)
	if !ok {
		bag = make(map[string]any)
		c.data[group] = bag
	}
	bag[key] = deepCopyValue(value)
}

// Name returns the command name.
func (c *Command) Name() string { return c.name }

// CategoryName returns the raw name of the category the command was parsed
// from, or "" for commands without categories.
func (c *Command) CategoryName() string { return c.categoryName }

// Category returns the key under which this command is registered among
// its siblings.
func (c *Command) Category() string { return c.categoryKey }

// Appliance returns the owning appliance.
func (c *Command) Appliance() Appliance { return c.appliance }

// SetLogger sets the logger used for send and rule diagnostics.
func (c *Command) SetLogger(l Logger) {
	if l == nil {
		l = noopLogger{}
	}
	c.logger = l
}

// SetRecorder sets the journal that receives send attempts.
func (c *Command) SetRecorder(r Recorder) { c.recorder = r }

// Parameter returns the parameter stored under key.
func (c *Command) Parameter(key string) (parameter.Parameter, bool) {
	p, ok := c.parameters[key]
	return p, ok
}

// Parameters returns the command's parameters keyed by name.
// The map is a copy; the parameters are shared.
func (c *Command) Parameters() map[string]parameter.Parameter {
	out := make(map[string]parameter.Parameter, len(c.parameters))
	for k, p := range c.parameters {
		out[k] = p
	}
	return out
}

// ParameterValue returns the current value of one parameter.
func (c *Command) ParameterValue(key string) (any, bool) {
	p, ok := c.parameters[key]
	if !ok {
		return nil, false
	}
	return p.Value(), true
}

// ParameterGroups returns current wire values grouped by parameter group.
func (c *Command) ParameterGroups() map[string]map[string]string {
	return c.groups(func(parameter.Parameter) bool { return true })
}

// MandatoryParameterGroups is ParameterGroups restricted to mandatory parameters.
func (c *Command) MandatoryParameterGroups() map[string]map[string]string {
	return c.groups(parameter.Parameter.Mandatory)
}

func (c *Command) groups(include func(parameter.Parameter) bool) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for key, p := range c.parameters {
		if !include(p) {
			continue
		}
		if out[p.Group()] == nil {
			out[p.Group()] = make(map[string]string)
		}
		out[p.Group()][key] = p.String()
	}
	return out
}

// AdditionalData returns a copy of the entries that were not parsed into
// parameters.
func (c *Command) AdditionalData() map[string]any {
	return deepCopyMap(c.data)
}

// Categories returns the sibling map. A command without categories is its
// own single sibling.
func (c *Command) Categories() map[string]*Command {
	if c.categories == nil {
		return map[string]*Command{c.categoryKey: c}
	}
	out := make(map[string]*Command, len(c.categories))
	for k, v := range c.categories {
		out[k] = v
	}
	return out
}

// SetCategory makes the named sibling the command exposed under this
// command's name in the owning catalog. Parameters are not touched.
func (c *Command) SetCategory(name string) error {
	sibling, ok := c.lookupCategory(name)
	if !ok {
		return fmt.Errorf("%w: %q for %s", ErrUnknownCategory, name, c.name)
	}
	if c.catalog == nil {
		if sibling == c {
			return nil
		}
		return ErrDetached
	}
	c.catalog.set(c.name, sibling)
	return nil
}

// lookupCategory finds a sibling by key, then by cleaned program name.
func (c *Command) lookupCategory(name string) (*Command, bool) {
	categories := c.Categories()
	if cmd, ok := categories[name]; ok {
		return cmd, true
	}
	if cmd, ok := categories[parameter.CleanCategoryName(name)]; ok {
		return cmd, true
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		cmd, ok := categories[strings.ToLower(name[i+1:])]
		return cmd, ok
	}
	return nil, false
}

func (c *Command) hasCategories() bool { return len(c.categories) > 0 }

// addCategory registers cmd as a sibling under key.
func (c *Command) addCategory(key string, cmd *Command) {
	if c.categories == nil {
		c.categories = map[string]*Command{c.categoryKey: c}
	}
	cmd.categories = c.categories
	cmd.categoryKey = key
	c.categories[key] = cmd
}

// CategoryNames implements parameter.CategorySource.
func (c *Command) CategoryNames() []string {
	return sortedKeys(c.Categories())
}

// CategoryParameter implements parameter.CategorySource.
func (c *Command) CategoryParameter(category, key string) (parameter.Parameter, bool) {
	cmd, ok := c.Categories()[category]
	if !ok {
		return nil, false
	}
	return cmd.Parameter(key)
}

// SelectCategory implements parameter.CategorySource.
func (c *Command) SelectCategory(name string) error { return c.SetCategory(name) }

// Reset restores every parameter to its parsed default.
func (c *Command) Reset() {
	for _, p := range c.parameters {
		p.Reset()
	}
}

// Clone returns a deep copy that shares no parameter state with c.
// The copy keeps c's sibling map and catalog; its Program is rebound to it.
func (c *Command) Clone() *Command {
	cpy := &Command{
		name:         c.name,
		categoryName: c.categoryName,
		categoryKey:  c.categoryKey,
		appliance:    c.appliance,
		parameters:   make(map[string]parameter.Parameter, len(c.parameters)),
		data:         deepCopyMap(c.data),
		categories:   c.categories,
		catalog:      c.catalog,
		logger:       c.logger,
		recorder:     c.recorder,
	}
	for key, p := range c.parameters {
		if prog, ok := p.(*parameter.Program); ok {
			cpy.parameters[key] = prog.Rebind(cpy)
			continue
		}
		cpy.parameters[key] = p.Clone()
	}
	return cpy
}

// programParameter returns the synthetic Program, if the command has one.
func (c *Command) programParameter() (*parameter.Program, bool) {
	for _, key := range []string{parameter.KeyProgram, parameter.KeyCategory} {
		if prog, ok := c.parameters[key].(*parameter.Program); ok {
			return prog, true
		}
	}
	return nil, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
