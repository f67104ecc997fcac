package control

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rtsyn-dev/rtsyn/logger"
	"github.com/rtsyn-dev/rtsyn/workspace"
)

// ViewerServer hosts the websocket boundary a viewer subprocess (a
// standalone plot window, per spec.md's out-of-scope GUI collaborators)
// dials back into, per spec.md §6's RTSYN_DAEMON_SOCKET/
// RTSYN_DAEMON_VIEW_PLUGIN_ID environment pair. It never touches the
// engine's owned state directly: every frame it sends is built from
// Dispatcher.Dispatch(RuntimePluginView), the same call the in-process
// CLI uses. Grounded on teranos-QNTX's server/util.go upgrader and
// server/client.go's ping/pong keepalive shape.
type ViewerServer struct {
	dispatcher *Dispatcher
	upgrader   websocket.Upgrader
	refresh    time.Duration
}

// Websocket write-deadline and ping/pong keepalive timings. The frame
// cadence is separate: the refresh interval, a GUI-facing rate
// independent of the engine's tick period, per spec.md §9's
// "decimation is a GUI concern" design note — the viewer server
// free-runs at that rate rather than pushing one frame per tick.
const (
	viewerWriteWait = 10 * time.Second
	viewerPongWait  = 60 * time.Second
	viewerPing      = 54 * time.Second
)

// NewViewerServer returns a server that answers /view?plugin_id=<id>
// websocket upgrades by streaming RuntimePluginView payloads for that
// plugin at refresh cadence (e.g. 33ms ~ 30Hz) until the client
// disconnects.
func NewViewerServer(d *Dispatcher, refresh time.Duration) *ViewerServer {
	if refresh <= 0 {
		refresh = 33 * time.Millisecond
	}
	return &ViewerServer{
		dispatcher: d,
		refresh:    refresh,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  2048,
			WriteBufferSize: 2048,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ListenAndServe binds addr and serves /view until the process exits
// or the listener errors. Intended to run on its own goroutine from the
// daemon's startup sequence (see cmd/rtsyn/commands/daemon.go).
func (vs *ViewerServer) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/view", vs.handleView)
	logger.Infow("viewer server listening", "addr", addr)
	return http.ListenAndServe(addr, mux)
}

func (vs *ViewerServer) handleView(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("plugin_id")
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		http.Error(w, "plugin_id query parameter required", http.StatusBadRequest)
		return
	}

	conn, err := vs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warnw("viewer websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	vs.stream(conn, workspace.PluginID(id))
}

// stream pushes PluginViewPayload frames until the peer goes away. The
// read pump exists only to process pong keepalives and detect peer
// close; viewers never send application data.
func (vs *ViewerServer) stream(conn *websocket.Conn, pluginID workspace.PluginID) {
	conn.SetReadDeadline(time.Now().Add(viewerPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(viewerPongWait))
		return nil
	})

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(vs.refresh)
	defer ticker.Stop()
	pinger := time.NewTicker(viewerPing)
	defer pinger.Stop()

	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			resp := vs.dispatcher.Dispatch(Request{Kind: RuntimePluginView, PluginID: pluginID})
			conn.SetWriteDeadline(time.Now().Add(viewerWriteWait))
			if resp.Status == StatusError {
				if err := conn.WriteJSON(resp); err != nil {
					return
				}
				continue
			}
			if err := conn.WriteJSON(resp.Payload); err != nil {
				return
			}
		case <-pinger.C:
			conn.SetWriteDeadline(time.Now().Add(viewerWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// DialViewer connects to a ViewerServer at socket (a host:port address;
// the "socket" terminology follows spec.md §6's RTSYN_DAEMON_SOCKET
// naming even though the transport is plain TCP websocket, not a unix
// domain socket) and subscribes to pluginID's frames. The returned
// channel is closed when the connection ends; callers should call the
// returned close func on their own shutdown path too.
func DialViewer(socket string, pluginID workspace.PluginID) (<-chan PluginViewPayload, func() error, error) {
	url := "ws://" + socket + "/view?plugin_id=" + strconv.FormatUint(uint64(pluginID), 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, nil, err
	}

	frames := make(chan PluginViewPayload, 8)
	go func() {
		defer close(frames)
		conn.SetReadDeadline(time.Now().Add(viewerPongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(viewerPongWait))
			return nil
		})
		for {
			var frame PluginViewPayload
			if err := conn.ReadJSON(&frame); err != nil {
				return
			}
			select {
			case frames <- frame:
			default:
			}
		}
	}()

	return frames, conn.Close, nil
}
