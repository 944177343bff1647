package httputil

import (
	"fmt"
	"net"
)

// ValidateIP rejects addresses a redirect may not lead to: private,
// loopback, link-local (unicast and multicast), multicast and
// unspecified. host is only used in the error message.
func ValidateIP(ip net.IP, host string) error {
	var kind string
	switch {
	case ip.IsPrivate():
		kind = "private"
	case ip.IsLoopback():
		kind = "loopback"
	case ip.IsLinkLocalUnicast():
		kind = "link-local"
	case ip.IsLinkLocalMulticast():
		kind = "link-local multicast"
	case ip.IsMulticast():
		kind = "multicast"
	case ip.IsUnspecified():
		kind = "unspecified"
	default:
		return nil
	}
	return fmt.Errorf("refusing redirect to %s IP: %s (%s)", kind, host, ip)
}
