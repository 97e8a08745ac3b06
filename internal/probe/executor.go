// Package probe implements the per-target probe supervisor and the single-
// echo executor it drives, grounded on the teacher's pkg/scan ICMP sweeper
// (golang.org/x/net/icmp framing, raw-vs-datagram socket choice) but
// narrowed to one echo/reply pair per call, as spec.md §4.1 requires.
package probe

import (
	"context"
	"net"
	"os"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/pingwarden/pingwarden/internal/models"
)

const (
	echoTimeout = 2 * time.Second
	echoTTL     = 64
)

// Execute sends one ICMP echo to address with the given sequence number and
// returns the resulting ProbeOutcome. An unparseable address yields a
// failed outcome with no network I/O, matching spec.md §4.1.
func Execute(
	ctx context.Context,
	id, address string,
	sequence uint16,
	name string,
	socketType models.SocketType,
) models.ProbeOutcome {
	outcome := models.ProbeOutcome{
		Timestamp:     time.Now(),
		TargetID:      id,
		TargetAddress: address,
		TargetName:    name,
		Sequence:      sequence,
	}

	ipAddr, err := net.ResolveIPAddr("ip", address)
	if err != nil {
		return outcome
	}

	elapsed, err := echo(ctx, ipAddr, sequence, socketType)
	if err != nil {
		return outcome
	}

	outcome.Success = true
	ms := float64(elapsed) / float64(time.Millisecond)
	outcome.LatencyMs = &ms

	return outcome
}

func echo(ctx context.Context, dst *net.IPAddr, sequence uint16, socketType models.SocketType) (time.Duration, error) {
	isV6 := dst.IP.To4() == nil

	network, listenAddr, proto := dialParams(isV6, socketType)

	conn, err := icmp.ListenPacket(network, listenAddr)
	if err != nil {
		return 0, err
	}

	defer func() { _ = conn.Close() }()

	if isV6 {
		if p := conn.IPv6PacketConn(); p != nil {
			_ = p.SetHopLimit(echoTTL)
		}
	} else {
		if p := conn.IPv4PacketConn(); p != nil {
			_ = p.SetTTL(echoTTL)
		}
	}

	id := os.Getpid() & 0xffff

	msgType := icmp.Type(ipv4.ICMPTypeEcho)
	if isV6 {
		msgType = ipv6.ICMPTypeEchoRequest
	}

	wm := icmp.Message{
		Type: msgType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  int(sequence),
			Data: []byte("pingwarden"),
		},
	}

	wb, err := wm.Marshal(nil)
	if err != nil {
		return 0, err
	}

	deadline, cancel := context.WithTimeout(ctx, echoTimeout)
	defer cancel()

	if dl, ok := deadline.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}

	start := time.Now()

	if _, err := conn.WriteTo(wb, dst); err != nil {
		return 0, err
	}

	rb := make([]byte, 1500)

	for {
		n, peer, err := conn.ReadFrom(rb)
		if err != nil {
			return 0, err
		}

		if !sameHost(peer, dst) {
			continue
		}

		rm, err := icmp.ParseMessage(proto, rb[:n])
		if err != nil {
			return 0, err
		}

		echoReply, ok := rm.Body.(*icmp.Echo)
		if !ok || echoReply.ID != id || echoReply.Seq != int(sequence) {
			continue
		}

		if !isReplyType(rm.Type, isV6) {
			continue
		}

		return time.Since(start), nil
	}
}

func dialParams(isV6 bool, socketType models.SocketType) (network, listenAddr string, proto int) {
	switch {
	case !isV6 && socketType == models.SocketRaw:
		return "ip4:icmp", "0.0.0.0", 1
	case !isV6:
		return "udp4", "0.0.0.0", 1
	case isV6 && socketType == models.SocketRaw:
		return "ip6:ipv6-icmp", "::", 58
	default:
		return "udp6", "::", 58
	}
}

func isReplyType(t icmp.Type, isV6 bool) bool {
	if isV6 {
		return t == ipv6.ICMPTypeEchoReply
	}

	return t == ipv4.ICMPTypeEchoReply
}

func sameHost(peer net.Addr, dst *net.IPAddr) bool {
	host, _, err := net.SplitHostPort(peer.String())
	if err != nil {
		host = peer.String()
	}

	peerIP := net.ParseIP(host)
	if peerIP == nil {
		return false
	}

	return peerIP.Equal(dst.IP)
}
