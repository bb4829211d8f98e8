package site

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"k8s.io/klog/v2"
)

// Reloader tells connected browsers to reload after a rebuild.
type Reloader struct {
	mu      sync.Mutex
	clients map[chan struct{}]struct{}
}

// NewReloader returns a Reloader with no clients.
func NewReloader() *Reloader {
	return &Reloader{clients: map[chan struct{}]struct{}{}}
}

// Broadcast signals every connected client.
func (rl *Reloader) Broadcast() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	klog.V(1).Infof("reloading %d clients", len(rl.clients))
	for c := range rl.clients {
		select {
		case c <- struct{}{}:
		default:
		}
	}
}

func (rl *Reloader) add() chan struct{} {
	c := make(chan struct{}, 1)
	rl.mu.Lock()
	rl.clients[c] = struct{}{}
	rl.mu.Unlock()
	return c
}

func (rl *Reloader) remove(c chan struct{}) {
	rl.mu.Lock()
	delete(rl.clients, c)
	rl.mu.Unlock()
}

// ServeHTTP upgrades the request and sends "reload" on every broadcast.
func (rl *Reloader) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		klog.Warningf("livereload accept: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	c := rl.add()
	defer rl.remove(c)

	// we never read; CloseRead watches for the client going away
	ctx := conn.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			return
		case <-c:
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(wctx, websocket.MessageText, []byte("reload"))
			cancel()
			if err != nil {
				klog.V(1).Infof("livereload write: %v", err)
				return
			}
		}
	}
}
