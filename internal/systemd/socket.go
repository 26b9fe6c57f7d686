package systemd

import (
	"fmt"
	"net"

	"github.com/coreos/go-systemd/v22/activation"
)

// Socket names expected in the onlinetime.socket unit (FileDescriptorName=).
const (
	SocketAPI     = "api"
	SocketMetrics = "metrics"
)

// Listeners holds all systemd-activated listeners
type Listeners struct {
	API       net.Listener
	Metrics   net.Listener
	Activated bool
}

// GetListeners retrieves systemd socket-activated file descriptors.
// Returns nil listeners if not running under socket activation.
func GetListeners() (*Listeners, error) {
	listeners := &Listeners{}

	named, err := activation.ListenersWithNames()
	if err != nil {
		return nil, fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if len(named) == 0 {
		return listeners, nil
	}

	listeners.Activated = true
	assign(listeners, named)

	return listeners, nil
}

func assign(listeners *Listeners, named map[string][]net.Listener) {
	if lns, ok := named[SocketAPI]; ok && len(lns) > 0 {
		listeners.API = lns[0]
	}
	if lns, ok := named[SocketMetrics]; ok && len(lns) > 0 {
		listeners.Metrics = lns[0]
	}
}
