package wizard

import (
	"golang.org/x/net/icmp"
)

// socketCapability reports whether this process can open each ICMP socket
// type, so the operator can pick config.toml's [ping] socket_type before
// any target starts probing (spec.md §7: "operator diagnoses via the
// wizard's socket-capability test").
type socketCapability struct {
	Dgram bool
	Raw   bool
}

// testSocketCapability attempts to open, then immediately close, both an
// unprivileged datagram ICMP socket and a raw ICMP socket. Neither attempt
// sends a packet; this only probes permission to open the socket.
func testSocketCapability() socketCapability {
	var result socketCapability

	if conn, err := icmp.ListenPacket("udp4", "0.0.0.0"); err == nil {
		result.Dgram = true
		_ = conn.Close()
	}

	if conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0"); err == nil {
		result.Raw = true
		_ = conn.Close()
	}

	return result
}
