package discovery

import (
	"net"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

// rfc1918Nets are the private IPv4 ranges subnet suggestion restricts to.
var rfc1918Nets = []*net.IPNet{
	mustParseCIDR("10.0.0.0/8"),
	mustParseCIDR("172.16.0.0/12"),
	mustParseCIDR("192.168.0.0/16"),
}

func mustParseCIDR(s string) *net.IPNet {
	_, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}

	return n
}

func isRFC1918(ip net.IP) bool {
	for _, n := range rfc1918Nets {
		if n.Contains(ip) {
			return true
		}
	}

	return false
}

// LocalSubnets enumerates this host's non-loopback IPv4 interfaces
// restricted to RFC 1918 ranges, expressed as their containing /24 CIDR.
func LocalSubnets() ([]string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var subnets []string

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		ip4 := ipNet.IP.To4()
		if ip4 == nil || ip4.IsLoopback() || !isRFC1918(ip4) {
			continue
		}

		cidr := to24CIDR(ip4)

		if _, dup := seen[cidr]; dup {
			continue
		}

		seen[cidr] = struct{}{}
		subnets = append(subnets, cidr)
	}

	return subnets, nil
}

func to24CIDR(ip net.IP) string {
	ip4 := ip.To4()
	return ip4.Mask(net.CIDRMask(24, 32)).String() + "/24"
}

var ipPattern = regexp.MustCompile(`(\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})`)

// TracerouteSubnets runs the OS traceroute (or tracert on Windows) to
// target and extracts the /24 of each private hop, stopping at the first
// public hop (which contributes nothing), per spec.md §4.8. Only lines that
// begin with a hop number are read, so the header naming the target is
// skipped.
func TracerouteSubnets(target string) ([]string, error) {
	var cmd *exec.Cmd

	if runtime.GOOS == "windows" {
		cmd = exec.Command("tracert", "-d", "-h", "15", target)
	} else {
		cmd = exec.Command("traceroute", "-n", "-m", "15", target)
	}

	output, _ := cmd.CombinedOutput()

	seen := make(map[string]struct{})
	var subnets []string

	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}

		hop := ipPattern.FindString(line)
		if hop == "" {
			continue
		}

		ip := net.ParseIP(hop).To4()
		if ip == nil {
			continue
		}

		if !isRFC1918(ip) {
			break
		}

		cidr := to24CIDR(ip)

		if _, dup := seen[cidr]; dup {
			continue
		}

		seen[cidr] = struct{}{}
		subnets = append(subnets, cidr)
	}

	return subnets, nil
}

// SuggestSubnets combines local-interface and traceroute suggestions,
// de-duplicated by CIDR.
func SuggestSubnets(tracerouteTarget string) []string {
	seen := make(map[string]struct{})
	var result []string

	add := func(cidrs []string) {
		for _, c := range cidrs {
			if _, dup := seen[c]; dup {
				continue
			}

			seen[c] = struct{}{}
			result = append(result, c)
		}
	}

	if local, err := LocalSubnets(); err == nil {
		add(local)
	}

	if tracerouteTarget != "" {
		if hops, err := TracerouteSubnets(tracerouteTarget); err == nil {
			add(hops)
		}
	}

	return result
}
