package server

import (
	"net"
	"strconv"

	"github.com/QR-Madness/diagrammer-host/internal/config"
)

// Status is the snapshot returned by the host-side status endpoint and
// control surface: enough for an operator to confirm the server is
// live and tell collaborators where to point their client.
type Status struct {
	Running          bool     `json:"running"`
	Port             int      `json:"port"`
	NetworkMode      string   `json:"networkMode"`
	ConnectedClients int      `json:"connectedClients"`
	MaxConnections   int      `json:"maxConnections"`
	Address          string   `json:"address"`
	Addresses        []string `json:"addresses"`
}

// Status reports the hub's current lifecycle and connection state. The
// address list is recomputed on every call rather than cached, since
// host interfaces can change (laptop moves between networks) while the
// server keeps running.
func (h *Hub) Status() Status {
	addrs := []string{"localhost"}
	address := "localhost"
	if h.Config != nil && h.Config.NetworkMode == config.NetworkLAN {
		lan := LANAddresses()
		if len(lan) > 0 {
			address = lan[0]
		}
		addrs = append(addrs, lan...)
	}

	maxConn := 0
	if h.Config != nil {
		maxConn = h.Config.MaxConnections
	}

	return Status{
		Running:          h.IsRunning(),
		Port:             h.Port(),
		NetworkMode:      string(h.networkMode()),
		ConnectedClients: h.Sessions.Count(),
		MaxConnections:   maxConn,
		Address:          address,
		Addresses:        addrs,
	}
}

func (h *Hub) networkMode() string {
	if h.Config == nil {
		return string(config.NetworkLocalhost)
	}
	return string(h.Config.NetworkMode)
}

// LANAddresses enumerates this host's non-loopback private IPv4
// addresses, the set a LAN-mode server is reachable on from another
// machine on the same network.
func LANAddresses() []string {
	ifaces, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}

	var out []string
	for _, addr := range ifaces {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		if !isPrivateIPv4(ip4) {
			continue
		}
		out = append(out, ip4.String())
	}
	return out
}

// isPrivateIPv4 reports whether ip falls in one of the RFC 1918 private
// ranges, the only addresses worth offering a LAN collaborator.
func isPrivateIPv4(ip net.IP) bool {
	switch {
	case ip[0] == 10:
		return true
	case ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31:
		return true
	case ip[0] == 192 && ip[1] == 168:
		return true
	}
	return false
}

// ListenHost returns the address ListenAndServe should bind, honoring
// the configured network mode.
func (h *Hub) ListenHost() string {
	if h.Config == nil {
		return config.NetworkLocalhost.BindHost()
	}
	return h.Config.NetworkMode.BindHost()
}

// DisplayAddress renders host:port for display, substituting the first
// LAN address for a wildcard bind host so the printed value is
// something a collaborator can actually dial.
func DisplayAddress(host string, port int) string {
	if host == "0.0.0.0" {
		if addrs := LANAddresses(); len(addrs) > 0 {
			host = addrs[0]
		} else {
			host = "localhost"
		}
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
