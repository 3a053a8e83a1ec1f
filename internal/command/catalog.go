package command

import "fmt"

// Catalog maps command names to the currently active Command.
type Catalog struct {
	commands       map[string]*Command
	applianceModel map[string]any
	additional     map[string]any
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		commands:   make(map[string]*Command),
		additional: make(map[string]any),
	}
}

// Add registers cmd under its name and attaches it, with its siblings, to
// the catalog.
func (cat *Catalog) Add(cmd *Command) {
	for _, sibling := range cmd.Categories() {
		sibling.catalog = cat
	}
	cmd.catalog = cat
	cat.commands[cmd.name] = cmd
}

// Get returns the active command for name.
func (cat *Catalog) Get(name string) (*Command, bool) {
	cmd, ok := cat.commands[name]
	return cmd, ok
}

// Lookup is Get returning ErrUnknownCommand when name is absent.
func (cat *Catalog) Lookup(name string) (*Command, error) {
	cmd, ok := cat.commands[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return cmd, nil
}

// Names returns the command names in sorted order.
func (cat *Catalog) Names() []string {
	return sortedKeys(cat.commands)
}

// Len returns the number of commands.
func (cat *Catalog) Len() int { return len(cat.commands) }

// Commands returns a copy of the name → command map.
func (cat *Catalog) Commands() map[string]*Command {
	out := make(map[string]*Command, len(cat.commands))
	for k, v := range cat.commands {
		out[k] = v
	}
	return out
}

// ApplianceModel returns the applianceModel block found in the command
// tree, or nil.
func (cat *Catalog) ApplianceModel() map[string]any {
	return deepCopyMap(cat.applianceModel)
}

// AdditionalData returns non-command entries found in the tree.
func (cat *Catalog) AdditionalData() map[string]any {
	return deepCopyMap(cat.additional)
}

func (cat *Catalog) set(name string, cmd *Command) {
	cat.commands[name] = cmd
}
