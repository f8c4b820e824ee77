package net

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_fadingink._tcp"

// Advertise publishes the hub on port over mDNS. Shut the returned server
// down when the session ends.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("advertise: hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"FadingInk"})
	if err != nil {
		return nil, fmt.Errorf("advertise: mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("advertise: mdns server: %w", err)
	}
	return server, nil
}

// Browse looks for advertised hubs for timeout and returns their host:port
// addresses, IPv4 only.
func Browse(timeout time.Duration) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	found := make(chan []string, 1)
	go func() {
		var addrs []string
		seen := make(map[string]bool)
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			a := net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port))
			if !seen[a] {
				seen[a] = true
				addrs = append(addrs, a)
			}
		}
		found <- addrs
	}()

	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	addrs := <-found
	if err != nil {
		return addrs, fmt.Errorf("browse %s: %w", serviceType, err)
	}
	return addrs, nil
}
