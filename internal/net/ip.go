package net

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// LinkScheme prefixes share links handed to joining surfaces.
const LinkScheme = "fadingink://"

// OutgoingIP finds the local address other machines on the LAN can reach.
// No packet is sent; dialing UDP only selects the route.
func OutgoingIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return interfaceIP()
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

// interfaceIP is used on networks without a default route.
func interfaceIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, a := range addrs {
		if ipnet, ok := a.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			return ipnet.IP.String()
		}
	}
	return "127.0.0.1"
}

// ShareLink builds the link a joining surface is started with.
func ShareLink(host string, port int) string {
	return LinkScheme + net.JoinHostPort(host, strconv.Itoa(port))
}

// IsShareLink reports whether s looks like a share link.
func IsShareLink(s string) bool {
	return strings.HasPrefix(s, LinkScheme)
}

// ParseShareLink extracts host:port from a share link.
func ParseShareLink(link string) (string, error) {
	if !IsShareLink(link) {
		return "", fmt.Errorf("share link %q: missing %s prefix", link, LinkScheme)
	}
	addr := strings.TrimSuffix(strings.TrimPrefix(link, LinkScheme), "/")
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("share link %q: %w", link, err)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "", fmt.Errorf("share link %q: bad port: %w", link, err)
	}
	return net.JoinHostPort(host, port), nil
}

// HubURL is the websocket URL of the hub at addr.
func HubURL(addr, path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + addr + path
}
