// Package mdns advertises the status page on the local network so that the
// sensor can be found without knowing its address.
package mdns

import (
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
	log "github.com/sirupsen/logrus"
)

const (
	// Service is the DNS-SD service type registered for the status page.
	Service = "_http._tcp"
	domain  = "local."
)

// Advertiser owns a registered service until Close is called.
type Advertiser struct {
	server *zeroconf.Server
}

// Advertise registers instance on every multicast interface, pointing at the
// port of httpAddr (e.g. ":80" or "0.0.0.0:8080").
func Advertise(instance, httpAddr string, txt []string) (*Advertiser, error) {
	port, err := PortFromAddr(httpAddr)
	if err != nil {
		return nil, err
	}

	server, err := zeroconf.Register(instance, Service, domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("mdns: register %s: %w", instance, err)
	}

	log.Infof("mdns: advertising %q as %s.%s port %d", instance, Service, domain, port)
	return &Advertiser{server: server}, nil
}

// Close withdraws the advertisement.
func (a *Advertiser) Close() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
}

// PortFromAddr extracts the TCP port from a listen address.
func PortFromAddr(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("mdns: listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("mdns: listen address %q has no usable port", addr)
	}
	return port, nil
}

// TXT builds key=value TXT records in the order the keys are given.
func TXT(kv ...string) []string {
	var out []string
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, kv[i]+"="+kv[i+1])
	}
	return out
}
