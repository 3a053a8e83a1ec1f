package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/attribute"
	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// Journal query limits.
const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

// ApplianceView is the JSON form of an appliance.
type ApplianceView struct {
	MacAddress string   `json:"mac_address"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	ModelID    string   `json:"model_id,omitempty"`
	Zone       int      `json:"zone,omitempty"`
	Commands   []string `json:"commands"`
	Attributes int      `json:"attributes"`
}

// CommandSummary is one catalog entry.
type CommandSummary struct {
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	CategoryName string   `json:"category_name,omitempty"`
	Categories   []string `json:"categories"`
	Parameters   int      `json:"parameters"`
}

// CommandView is a command with its parameters.
type CommandView struct {
	CommandSummary
	ParameterList []ParameterView `json:"parameter_list"`
}

// ParameterView describes one parameter and its legal domain.
type ParameterView struct {
	Key       string   `json:"key"`
	Kind      string   `json:"kind"`
	Group     string   `json:"group"`
	Mandatory bool     `json:"mandatory"`
	Value     any      `json:"value"`
	Values    []string `json:"values,omitempty"`
	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	Step      *float64 `json:"step,omitempty"`
}

// SyncRequest is the body of POST /appliances/{mac}/sync.
type SyncRequest struct {
	Op            string   `json:"op"`
	Command       string   `json:"command"`
	Targets       []string `json:"targets"`
	Keys          []string `json:"keys"`
	MandatoryOnly bool     `json:"mandatory_only"`
}

// Sync operations.
const (
	SyncToParams  = "to_params"
	SyncToCommand = "to_command"
	SyncCommand   = "command"
)

type failureView struct {
	Command string `json:"command"`
	Key     string `json:"key"`
	Value   string `json:"value"`
	Error   string `json:"error"`
}

// lockedApplianceView renders a while holding the appliance lock, so the
// command list is not read during a catalog rebuild.
func lockedApplianceView(a *appliance.Appliance) ApplianceView {
	var v ApplianceView
	_ = a.Exclusive(func() error {
		v = applianceView(a)
		return nil
	})
	return v
}

// applianceView must run under the appliance lock.
func applianceView(a *appliance.Appliance) ApplianceView {
	return ApplianceView{
		MacAddress: a.MacAddress(),
		Name:       a.Name(),
		Type:       a.Type(),
		ModelID:    a.Info().ModelID,
		Zone:       a.Zone(),
		Commands:   a.Commands(),
		Attributes: a.Store().Len(),
	}
}

func commandSummary(name string, cmd *command.Command) CommandSummary {
	return CommandSummary{
		Name:         name,
		Category:     cmd.Category(),
		CategoryName: cmd.CategoryName(),
		Categories:   cmd.CategoryNames(),
		Parameters:   len(cmd.Parameters()),
	}
}

func commandView(name string, cmd *command.Command) CommandView {
	params := cmd.Parameters()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	view := CommandView{CommandSummary: commandSummary(name, cmd)}
	view.ParameterList = make([]ParameterView, 0, len(keys))
	for _, k := range keys {
		view.ParameterList = append(view.ParameterList, parameterView(params[k]))
	}
	return view
}

func parameterView(p parameter.Parameter) ParameterView {
	v := ParameterView{
		Key:       p.Key(),
		Kind:      p.Kind().String(),
		Group:     p.Group(),
		Mandatory: p.Mandatory(),
		Value:     p.Value(),
	}
	if r, ok := p.(*parameter.Range); ok {
		lo, hi, step := r.Min(), r.Max(), r.Step()
		v.Min, v.Max, v.Step = &lo, &hi, &step
		return v
	}
	v.Values = p.Values()
	return v
}

// applianceFromRequest resolves {mac} or writes a 404.
func (s *Server) applianceFromRequest(w http.ResponseWriter, r *http.Request) (*appliance.Appliance, bool) {
	a, err := s.registry.Get(chi.URLParam(r, "mac"))
	if err != nil {
		writeNotFound(w, "appliance not found")
		return nil, false
	}
	return a, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// handleListAppliances returns every registered appliance.
func (s *Server) handleListAppliances(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.List()
	out := make([]ApplianceView, 0, len(list))
	for _, a := range list {
		out = append(out, lockedApplianceView(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"appliances": out,
		"count":      len(out),
	})
}

// handleGetAppliance returns one appliance.
func (s *Server) handleGetAppliance(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, lockedApplianceView(a))
}

// handleListCommands returns the catalog summary.
func (s *Server) handleListCommands(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	var (
		out   []CommandSummary
		model any
	)
	_ = a.Exclusive(func() error {
		cat := a.Catalog()
		names := cat.Names()
		out = make([]CommandSummary, 0, len(names))
		for _, name := range names {
			cmd, _ := cat.Get(name)
			out = append(out, commandSummary(name, cmd))
		}
		model = cat.ApplianceModel()
		return nil
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"commands":        out,
		"appliance_model": model,
	})
}

// handleGetCommand returns the active category of a command with its parameters.
func (s *Server) handleGetCommand(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	var view CommandView
	err := a.Exclusive(func() error {
		cmd, err := a.Command(name)
		if err != nil {
			return err
		}
		view = commandView(name, cmd)
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSetParameter validates and assigns one parameter value.
//
// Body: {"value": <string or number>}
func (s *Server) handleSetParameter(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	var body struct {
		Value any `json:"value"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Value == nil {
		writeBadRequest(w, "value is required")
		return
	}

	name, key := chi.URLParam(r, "name"), chi.URLParam(r, "key")
	var view ParameterView
	err := a.Exclusive(func() error {
		cmd, err := a.Command(name)
		if err != nil {
			return err
		}
		p, ok := cmd.Parameter(key)
		if !ok {
			return errParameterNotFound
		}
		if err := p.SetValue(body.Value); err != nil {
			return err
		}
		view = parameterView(p)
		return nil
	})
	if errors.Is(err, errParameterNotFound) {
		writeNotFound(w, "parameter "+key+" not found")
		return
	}
	if err != nil {
		s.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSetCategory switches the active category of a command.
//
// Body: {"category": "<key or program name>"}
func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	var body struct {
		Category string `json:"category"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Category == "" {
		writeBadRequest(w, "category is required")
		return
	}

	name := chi.URLParam(r, "name")
	var view CommandView
	err := a.Exclusive(func() error {
		cmd, err := a.Command(name)
		if err != nil {
			return err
		}
		if err := cmd.SetCategory(body.Category); err != nil {
			return err
		}
		active, err := a.Command(name)
		if err != nil {
			return err
		}
		view = commandView(name, active)
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleSend transmits a command.
//
// Body (optional): {"overrides": {"key": value, ...}}
//
// Responses: 200 with the send result, 422 for a rejected override, 401
// without credentials, 502 when the cloud rejects or cannot be reached.
func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	var body struct {
		Overrides map[string]any `json:"overrides"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	name := chi.URLParam(r, "name")
	var res *command.Result
	err := a.Exclusive(func() error {
		var err error
		res, err = a.Send(r.Context(), name, body.Overrides)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleResetCommand restores every parameter of a command to its default.
func (s *Server) handleResetCommand(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	name := chi.URLParam(r, "name")
	var view CommandView
	err := a.Exclusive(func() error {
		cmd, err := a.Command(name)
		if err != nil {
			return err
		}
		cmd.Reset()
		view = commandView(name, cmd)
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleGetSettings returns the available settings of ?command=.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	name := r.URL.Query().Get("command")
	if name == "" {
		writeBadRequest(w, "command query parameter is required")
		return
	}
	var settings map[string]any
	err := a.Exclusive(func() error {
		var err error
		settings, err = a.AvailableSettings(name)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err, http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"command":  name,
		"settings": settings,
	})
}

// handleSync runs one of the synchronisation operations.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	var req SyncRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Command == "" {
		writeBadRequest(w, "command is required")
		return
	}

	var failures []appliance.Failure
	err := a.Exclusive(func() error {
		var err error
		switch req.Op {
		case SyncToParams:
			err = a.SyncCommandToParams(req.Command)
		case SyncToCommand:
			failures, err = a.SyncParamsToCommand(req.Command)
		case SyncCommand:
			failures, err = a.SyncCommand(req.Command, appliance.SyncOptions{
				Targets:       req.Targets,
				Keys:          req.Keys,
				MandatoryOnly: req.MandatoryOnly,
			})
		default:
			return errUnknownSyncOp
		}
		return err
	})
	if errors.Is(err, errUnknownSyncOp) {
		writeBadRequest(w, "op must be one of to_params, to_command, command")
		return
	}
	if err != nil {
		s.writeDomainError(w, err, http.StatusBadRequest)
		return
	}

	out := make([]failureView, 0, len(failures))
	for _, f := range failures {
		out = append(out, failureView{Command: f.Command, Key: f.Key, Value: f.Value, Error: f.Err.Error()})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"op":       req.Op,
		"failures": out,
	})
}

// handleGetAttributes returns the live attribute store.
func (s *Server) handleGetAttributes(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mac_address": a.MacAddress(),
		"attributes":  sortedAttributes(a.Store().Snapshot()),
	})
}

// handleRefreshAttributes pulls the attribute snapshot from the cloud.
func (s *Server) handleRefreshAttributes(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	changes, err := a.RefreshAttributes(r.Context())
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changes": len(changes),
	})
}

// handleReload rebuilds the command catalog from the cloud.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	var view ApplianceView
	err := a.Exclusive(func() error {
		if err := a.LoadCommands(r.Context()); err != nil {
			return err
		}
		view = applianceView(a)
		return nil
	})
	if err != nil {
		s.writeUpstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleJournal lists recorded sends, newest first.
func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	a, ok := s.applianceFromRequest(w, r)
	if !ok {
		return
	}
	if s.journal == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "journal not configured")
		return
	}

	limit := defaultJournalLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxJournalLimit {
			writeBadRequest(w, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.journal.List(r.Context(), a.MacAddress(), limit)
	if err != nil {
		s.logger.Error("listing journal failed", "mac", a.MacAddress(), "error", err)
		writeInternalError(w, "failed to list journal")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

// writeUpstreamError maps cloud fetch failures. Anything that is not a
// credential or configuration problem is reported as 502.
func (s *Server) writeUpstreamError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, command.ErrMissingCredentials), errors.Is(err, appliance.ErrNoAPI):
		s.writeDomainError(w, err, http.StatusBadRequest)
	default:
		s.logger.Warn("cloud request failed", "error", err)
		writeError(w, http.StatusBadGateway, ErrCodeTransmission, err.Error())
	}
}

func sortedAttributes(snapshot map[string]attribute.Attribute) []attribute.Attribute {
	out := make([]attribute.Attribute, 0, len(snapshot))
	for _, a := range snapshot {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
