// Package control implements the request/response query-and-control
// surface (spec.md §4.E/§6): a synchronous boundary external callers
// (CLI, GUI, viewer subprocesses) use to inspect and mutate runtime
// state without ever touching the engine's tick loop. The surface
// itself holds no owned state; every mutation is relayed onto the
// engine's command channel or applied to the workspace.Manager's
// in-memory definition, then published via UpdateWorkspace.
//
// The wire transport connecting a remote caller to a Dispatcher is
// explicitly out of spec.md's scope ("transport not specified"); this
// package implements only the request/response boundary itself, the
// way original_source/rtsyn/src/handlers.rs maps CLI subcommands onto
// DaemonRequest/DaemonResponse values before handing them to whatever
// transport the original used.
package control

import (
	"github.com/rtsyn-dev/rtsyn/engine"
	"github.com/rtsyn-dev/rtsyn/plugin/builtin"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// RequestKind names one of spec.md §6's request enumeration members.
type RequestKind string

const (
	DaemonStop   RequestKind = "DaemonStop"
	DaemonReload RequestKind = "DaemonReload"

	PluginList      RequestKind = "PluginList"
	PluginInstall   RequestKind = "PluginInstall"
	PluginUninstall RequestKind = "PluginUninstall"
	PluginReinstall RequestKind = "PluginReinstall"
	PluginRebuild   RequestKind = "PluginRebuild"

	PluginAdd    RequestKind = "PluginAdd"
	PluginRemove RequestKind = "PluginRemove"

	RuntimeList        RequestKind = "RuntimeList"
	RuntimeShow        RequestKind = "RuntimeShow"
	RuntimePluginView  RequestKind = "RuntimePluginView"
	RuntimeSetVariable RequestKind = "RuntimeSetVariables"
	RuntimeStart       RequestKind = "RuntimePluginStart"
	RuntimeStop        RequestKind = "RuntimePluginStop"
	RuntimeRestart     RequestKind = "RuntimePluginRestart"

	WorkspaceList   RequestKind = "WorkspaceList"
	WorkspaceLoad   RequestKind = "WorkspaceLoad"
	WorkspaceNew    RequestKind = "WorkspaceNew"
	WorkspaceSave   RequestKind = "WorkspaceSave"
	WorkspaceEdit   RequestKind = "WorkspaceEdit"
	WorkspaceDelete RequestKind = "WorkspaceDelete"

	ConnectionList        RequestKind = "ConnectionList"
	ConnectionShow        RequestKind = "ConnectionShow"
	ConnectionAdd         RequestKind = "ConnectionAdd"
	ConnectionRemove      RequestKind = "ConnectionRemove"
	ConnectionRemoveIndex RequestKind = "ConnectionRemoveIndex"

	RuntimeSettingsShow    RequestKind = "RuntimeSettingsShow"
	RuntimeSettingsSet     RequestKind = "RuntimeSettingsSet"
	RuntimeSettingsSave    RequestKind = "RuntimeSettingsSave"
	RuntimeSettingsRestore RequestKind = "RuntimeSettingsRestore"
	RuntimeSettingsOptions RequestKind = "RuntimeSettingsOptions"
)

// Request is the flat, tagged argument bag every request kind draws
// from. Go has no algebraic sum type, so (like workspace.Patch) a
// single struct with the union of fields stands in for the original's
// enum-with-payload; unused fields for a given Kind are simply left
// zero.
type Request struct {
	Kind RequestKind

	// Caller identifies the connection/session issuing the request,
	// used only to key the per-caller rate limiter; opaque to the
	// dispatcher otherwise.
	Caller string

	Name         string
	Description  string
	AbsolutePath string

	PluginID workspace.PluginID

	JSON map[string]interface{}
	Key  string
	Value interface{}

	FromPlugin workspace.PluginID
	FromPort   string
	ToPlugin   workspace.PluginID
	ToPort     string
	ConnKind   workspace.ConnectionKind
	Index      int

	SettingsPatch workspace.Patch
}

// Status names the three response shapes spec.md §6 describes:
// Ok{message}, Error{message}, or a typed payload.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusPayload Status = "payload"
)

// Response is returned for every Request. Message carries the Ok/Error
// text; Payload carries one of the typed payload values below when
// Status is StatusPayload.
type Response struct {
	Status  Status
	Message string
	Payload interface{}
}

func ok(message string) Response {
	return Response{Status: StatusOK, Message: message}
}

func errResp(message string) Response {
	return Response{Status: StatusError, Message: message}
}

func payload(v interface{}) Response {
	return Response{Status: StatusPayload, Payload: v}
}

// ExitCode maps a Response onto the CLI front-end's exit-code
// convention from spec.md §6: 0 on Ok/payload, 1 on Error, 2 is
// reserved by the CLI layer for a malformed request it never managed
// to turn into a Request at all.
func (r Response) ExitCode() int {
	if r.Status == StatusError {
		return 1
	}
	return 0
}

// PluginAdded is PluginAdd's success payload.
type PluginAdded struct {
	ID workspace.PluginID `json:"id"`
}

// PluginCatalogEntry describes one installed plugin kind — built-in or
// an external library — as returned by PluginList.
type PluginCatalogEntry struct {
	Kind        string   `json:"kind"`
	LibraryPath string   `json:"library_path,omitempty"`
	BuiltIn     bool     `json:"built_in"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
}

// RuntimeSummary describes one live plugin instance, as returned by
// RuntimeList.
type RuntimeSummary struct {
	ID      workspace.PluginID `json:"id"`
	Kind    string             `json:"kind"`
	Running bool               `json:"running"`
}

// RuntimeDetail is RuntimeShow's full-state payload: the summary plus
// the most recently published outputs and internal variables.
type RuntimeDetail struct {
	RuntimeSummary
	Outputs   map[string]float64    `json:"outputs"`
	Variables map[string]interface{} `json:"variables"`
}

// SettingsSaveTarget names which file a RuntimeSettingsSave/Restore
// actually wrote: the shared defaults file when no workspace is loaded
// from disk, or the workspace file itself otherwise. Grounded on
// original_source/rtsyn-core/src/workspace/manager.rs's
// RuntimeSettingsSaveTarget.
type SettingsSaveTarget string

const (
	SettingsTargetDefaults  SettingsSaveTarget = "defaults"
	SettingsTargetWorkspace SettingsSaveTarget = "workspace"
)

// SettingsOptions describes the legal values a RuntimeSettingsSet patch
// may use, for a front-end to render as a picklist rather than hardcode.
type SettingsOptions struct {
	FrequencyUnits []string `json:"frequency_units"`
	PeriodUnits    []string `json:"period_units"`
	MinValue       float64  `json:"min_value"`
}

// PluginViewPayload is RuntimePluginView's payload: a live_plotter or
// csv_recorder's full state plus its recently captured samples and the
// time-axis metadata an external viewer needs to label its x-axis.
type PluginViewPayload struct {
	RuntimeSummary
	Outputs   map[string]float64     `json:"outputs"`
	Variables map[string]interface{} `json:"variables"`
	Samples   []builtin.Sample       `json:"samples"`
	Period    engine.PeriodInfo      `json:"period"`
}

// ConnectionSummary mirrors connection_handler.rs's ConnectionSummary:
// a connection plus its position in the workspace's connection list
// (consulted by ConnectionRemoveIndex).
type ConnectionSummary struct {
	Index      int                      `json:"index"`
	FromPlugin workspace.PluginID       `json:"from_plugin"`
	FromPort   string                   `json:"from_port"`
	ToPlugin   workspace.PluginID       `json:"to_plugin"`
	ToPort     string                   `json:"to_port"`
	Kind       workspace.ConnectionKind `json:"kind"`
}
