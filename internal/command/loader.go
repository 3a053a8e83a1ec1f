package command

import (
	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// Loader builds catalogs for one appliance.
type Loader struct {
	appliance Appliance
	logger    Logger
	recorder  Recorder
}

// NewLoader creates a loader for commands owned by app.
func NewLoader(app Appliance) *Loader {
	return &Loader{appliance: app, logger: noopLogger{}}
}

// SetLogger sets the logger handed to the loader and every built command.
func (l *Loader) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	l.logger = logger
}

// SetRecorder sets the journal handed to every built command.
func (l *Loader) SetRecorder(r Recorder) { l.recorder = r }

// Build parses tree into a catalog, then merges favourites and replays the
// most recent history entry of each command.
//
// Malformed nodes, unknown favourites and rejected replay values are logged
// and skipped; Build never fails.
func (l *Loader) Build(tree *Object, favourites []Favourite, history []HistoryEntry) *Catalog {
	cat := NewCatalog()
	for _, name := range tree.Keys() {
		value, _ := tree.Get(name)
		if name == keyApplianceModel {
			if model, ok := asObject(value); ok {
				cat.applianceModel = model.Map()
			}
			continue
		}
		if cmd := l.parseNode(cat, name, "", value, nil); cmd != nil {
			cat.commands[name] = cmd
		}
	}

	l.mergeFavourites(cat, favourites)
	l.recoverHistory(cat, history)

	l.logger.Debug("command catalog built",
		"commands", cat.Len(),
		"favourites", len(favourites),
		"history", len(history),
	)
	return cat
}

// isCommand reports whether node is a terminal command.
func isCommand(node *Object) bool {
	_, hasDescription := node.Get(keyDescription)
	_, hasProtocol := node.Get(keyProtocolType)
	return hasDescription && hasProtocol
}

func (l *Loader) parseNode(cat *Catalog, name, categoryName string, value any, categories map[string]*Command) *Command {
	node, ok := asObject(value)
	if !ok {
		key := name
		if categoryName != "" {
			key = name + "." + categoryName
		}
		cat.additional[key] = toPlain(value)
		return nil
	}

	if isCommand(node) {
		cmd, err := newCommand(name, node.Map(), l.appliance, categories, categoryName, l.logger)
		if err != nil {
			l.logger.Warn("skipping malformed command",
				"command", name,
				"category", categoryName,
				"error", err,
			)
			return nil
		}
		cmd.catalog = cat
		cmd.recorder = l.recorder
		return cmd
	}
	return l.parseCategories(cat, name, node)
}

// parseCategories parses every child of node as a category of name and
// returns the canonical one.
func (l *Loader) parseCategories(cat *Catalog, name string, node *Object) *Command {
	categories := make(map[string]*Command)
	var first *Command
	for _, key := range node.Keys() {
		value, _ := node.Get(key)
		cmd := l.parseNode(cat, name, key, value, categories)
		if cmd == nil {
			continue
		}
		categories[parameter.CleanCategoryName(key)] = cmd
		if first == nil {
			first = cmd
		}
	}
	if cmd, ok := categories[defaultCategory]; ok {
		return cmd
	}
	return first
}

func (l *Loader) mergeFavourites(cat *Catalog, favourites []Favourite) {
	for _, fav := range favourites {
		cmd, ok := cat.commands[fav.CommandName]
		if !ok {
			l.logger.Debug("favourite for unknown command", "favourite", fav.Name, "command", fav.CommandName)
			continue
		}
		base, ok := cmd.lookupCategory(fav.ProgramName)
		if !ok {
			l.logger.Debug("favourite for unknown program", "favourite", fav.Name, "program", fav.ProgramName)
			continue
		}

		clone := base.Clone()
		for _, group := range sortedKeys(fav.Groups) {
			values := fav.Groups[group]
			for _, key := range sortedKeys(values) {
				p, ok := clone.parameters[key]
				if !ok || p.Kind() == parameter.KindProgram {
					continue
				}
				if err := p.SetValue(values[key]); err != nil {
					l.logger.Debug("favourite value rejected",
						"favourite", fav.Name,
						"key", key,
						"error", err,
					)
				}
			}
		}

		clone.parameters[parameter.KeyFavourite] = parameter.NewFixedValue(parameter.KeyFavourite, "1", parameter.GroupCustom, true)
		if prog, ok := clone.programParameter(); ok {
			prog.SetDisplayValue(fav.Name)
		}
		cmd.addCategory(fav.Name, clone)
	}
}

func (l *Loader) recoverHistory(cat *Catalog, history []HistoryEntry) {
	if len(history) == 0 {
		return
	}
	for _, name := range cat.Names() {
		entry, ok := latestEntry(history, name)
		if !ok {
			continue
		}
		replay := make(map[string]any, len(entry.Parameters))
		for k, v := range entry.Parameters {
			replay[k] = v
		}
		selector := parameter.Stringify(replay[parameter.KeyProgram])
		if selector == "" {
			selector = parameter.Stringify(replay[parameter.KeyCategory])
		}
		delete(replay, parameter.KeyProgram)
		delete(replay, parameter.KeyCategory)

		cmd := cat.commands[name]
		if selector != "" && cmd.hasCategories() {
			if err := cmd.SetCategory(selector); err != nil {
				l.logger.Debug("history category not found", "command", name, "category", selector)
			}
			cmd = cat.commands[name]
		}

		for _, key := range sortedKeys(cmd.parameters) {
			p := cmd.parameters[key]
			if p.Kind() == parameter.KindFixed || p.Kind() == parameter.KindProgram {
				continue
			}
			value, ok := replay[key]
			if !ok || value == nil {
				continue
			}
			if err := p.SetValue(value); err != nil {
				l.logger.Debug("history value rejected", "command", name, "key", key, "error", err)
			}
		}
	}
}
