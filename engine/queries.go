package engine

import (
	"time"

	"github.com/rtsyn-dev/rtsyn/errors"
	"github.com/rtsyn-dev/rtsyn/plugin"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// defaultQueryTimeout bounds every synchronous query below when the
// caller doesn't need a tighter deadline. Spec.md §5 leaves the
// timeout caller-supplied; this is this package's default for callers
// (the control surface) that don't thread their own through yet.
const defaultQueryTimeout = 2 * time.Second

// The engine has no LastSnapshot accessor: its own copy of the latest
// snapshot is read only on the engine goroutine (by GetPluginVariable).
// Other goroutines receive snapshots from Snapshots(), as
// control.Dispatcher's cache loop does.

// QueryBehavior asks the engine for plugin id's Behavior, blocking up
// to defaultQueryTimeout for a reply.
func (e *Engine) QueryBehavior(id workspace.PluginID) (plugin.Behavior, bool) {
	reply := make(chan BehaviorResult, 1)
	e.Submit(&QueryPluginBehavior{PluginID: id, Result: reply})
	select {
	case r := <-reply:
		return r.Behavior, r.OK
	case <-time.After(defaultQueryTimeout):
		return plugin.Behavior{}, false
	}
}

// QueryMetadata transiently loads the library at path to enumerate its
// declared ports and display schema, blocking up to
// defaultQueryTimeout. The instance is destroyed before this returns;
// it is never added to the live workspace.
func (e *Engine) QueryMetadata(path string) (MetadataResult, error) {
	reply := make(chan MetadataResult, 1)
	e.Submit(&QueryPluginMetadata{LibraryPath: path, Result: reply})
	select {
	case r := <-reply:
		return r, r.Err
	case <-time.After(defaultQueryTimeout):
		return MetadataResult{}, errors.New("metadata query timed out")
	}
}

// GetVariable asks the engine for plugin id's most recently published
// named internal variable, blocking up to defaultQueryTimeout.
func (e *Engine) GetVariable(id workspace.PluginID, name string) (interface{}, bool) {
	reply := make(chan VariableResult, 1)
	e.Submit(&GetPluginVariable{PluginID: id, Name: name, Result: reply})
	select {
	case r := <-reply:
		return r.Value, r.OK
	case <-time.After(defaultQueryTimeout):
		return nil, false
	}
}

// ApplySettings submits an UpdateSettings command and waits for it to
// apply, blocking up to defaultQueryTimeout.
func (e *Engine) ApplySettings(s workspace.Settings) error {
	done := make(chan error, 1)
	e.Submit(&UpdateSettings{Settings: s, Done: done})
	select {
	case err := <-done:
		return err
	case <-time.After(defaultQueryTimeout):
		return errors.New("settings update timed out")
	}
}

// ApplyWorkspace submits an UpdateWorkspace command and waits for it
// to finish reconciling, blocking up to defaultQueryTimeout.
func (e *Engine) ApplyWorkspace(ws workspace.Definition) error {
	done := make(chan error, 1)
	e.Submit(&UpdateWorkspace{Workspace: ws, Done: done})
	select {
	case err := <-done:
		return err
	case <-time.After(defaultQueryTimeout):
		return errors.New("workspace update timed out")
	}
}

// SetRunning submits a SetPluginRunning command and waits for it to
// apply, blocking up to defaultQueryTimeout.
func (e *Engine) SetRunning(id workspace.PluginID, running bool) error {
	done := make(chan error, 1)
	e.Submit(&SetPluginRunning{PluginID: id, Running: running, Done: done})
	select {
	case err := <-done:
		return err
	case <-time.After(defaultQueryTimeout):
		return errors.New("set running timed out")
	}
}

// Restart submits a RestartPlugin command and waits for it to apply,
// blocking up to defaultQueryTimeout.
func (e *Engine) Restart(id workspace.PluginID) error {
	done := make(chan error, 1)
	e.Submit(&RestartPlugin{PluginID: id, Done: done})
	select {
	case err := <-done:
		return err
	case <-time.After(defaultQueryTimeout):
		return errors.New("restart timed out")
	}
}

// SetVariable submits a SetPluginVariable command and waits for it to
// apply, blocking up to defaultQueryTimeout.
func (e *Engine) SetVariable(id workspace.PluginID, key string, value interface{}) error {
	done := make(chan error, 1)
	e.Submit(&SetPluginVariable{PluginID: id, Key: key, Value: value, Done: done})
	select {
	case err := <-done:
		return err
	case <-time.After(defaultQueryTimeout):
		return errors.New("set variable timed out")
	}
}

// Close submits a Shutdown command and waits for it to apply, then
// stops the tick loop. Blocking up to defaultQueryTimeout for the
// shutdown command itself; Stop then waits unconditionally for the
// goroutine to exit.
func (e *Engine) Close() {
	done := make(chan struct{}, 1)
	e.Submit(&Shutdown{Done: done})
	select {
	case <-done:
	case <-time.After(defaultQueryTimeout):
	}
	e.Stop()
}
