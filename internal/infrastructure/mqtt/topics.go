package mqtt

import "strings"

// DefaultPrefix is used when no topic prefix is configured.
const DefaultPrefix = "hon"

// Topics builds the hond topic hierarchy under a common prefix:
//
//	{prefix}/status                           daemon online/offline (retained, LWT)
//	{prefix}/{mac}/attributes                 attribute pushes from a device gateway (in)
//	{prefix}/{mac}/state                      attribute snapshot (retained, out)
//	{prefix}/{mac}/commands/{name}/set        command requests (in)
//	{prefix}/{mac}/commands/{name}            command echoes after a successful send (out)
//
// MAC addresses are used as given; they must not contain '/', '+' or '#'.
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	p := strings.Trim(t.Prefix, "/")
	if p == "" {
		return DefaultPrefix
	}
	return p
}

// Status returns the daemon status topic.
func (t Topics) Status() string {
	return t.prefix() + "/status"
}

// Attributes returns the inbound attribute push topic of one appliance.
func (t Topics) Attributes(mac string) string {
	return t.prefix() + "/" + mac + "/attributes"
}

// State returns the retained attribute snapshot topic of one appliance.
func (t Topics) State(mac string) string {
	return t.prefix() + "/" + mac + "/state"
}

// CommandEcho returns the topic a successful send is echoed on.
func (t Topics) CommandEcho(mac, command string) string {
	return t.prefix() + "/" + mac + "/commands/" + command
}

// CommandRequest returns the topic command requests are received on.
func (t Topics) CommandRequest(mac, command string) string {
	return t.CommandEcho(mac, command) + "/set"
}

// AllAttributes matches attribute pushes for every appliance.
func (t Topics) AllAttributes() string {
	return t.prefix() + "/+/attributes"
}

// AllCommandRequests matches command requests for every appliance and command.
func (t Topics) AllCommandRequests() string {
	return t.prefix() + "/+/commands/+/set"
}

// ParseAttributes extracts the MAC address from an attribute push topic.
func (t Topics) ParseAttributes(topic string) (mac string, ok bool) {
	parts, ok := t.split(topic)
	if !ok || len(parts) != 2 || parts[1] != "attributes" || parts[0] == "" {
		return "", false
	}
	return parts[0], true
}

// ParseCommandRequest extracts the MAC address and command name from a
// command request topic.
func (t Topics) ParseCommandRequest(topic string) (mac, command string, ok bool) {
	parts, ok := t.split(topic)
	if !ok || len(parts) != 4 || parts[1] != "commands" || parts[3] != "set" || parts[0] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[0], parts[2], true
}

func (t Topics) split(topic string) ([]string, bool) {
	rest, found := strings.CutPrefix(topic, t.prefix()+"/")
	if !found {
		return nil, false
	}
	return strings.Split(rest, "/"), true
}
