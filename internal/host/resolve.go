package host

import (
	"fmt"
	"net"
	"os"

	"github.com/rileyhilliard/hostkit/internal/errors"
)

// ResolveAddress resolves a hostname to a non-loopback address of the
// requested family. An empty host means the local hostname. When the local
// hostname itself does not resolve, non-loopback interface addresses are
// consulted before giving up with a RESOLVE error.
func ResolveAddress(hostname string, ipv6 bool) (string, error) {
	local := hostname == ""
	if local {
		name, err := os.Hostname()
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrResolve,
				"Cannot determine local hostname", "")
		}
		hostname = name
	}

	ips, _ := net.LookupIP(hostname)
	for _, ip := range ips {
		if usable(ip, ipv6) {
			return ip.String(), nil
		}
	}

	if local {
		if addr := interfaceAddress(ipv6); addr != "" {
			return addr, nil
		}
	}

	family := "IPv4"
	if ipv6 {
		family = "IPv6"
	}
	scope := ""
	if local {
		scope = "local "
	}
	return "", errors.New(errors.ErrResolve,
		fmt.Sprintf("Unable to get %s address for %shost '%s'", family, scope, hostname),
		"Check the hostname resolves to a non-loopback address")
}

// interfaceAddress returns the first non-loopback interface address of the
// requested family, or empty.
func interfaceAddress(ipv6 bool) string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if usable(ipnet.IP, ipv6) {
			return ipnet.IP.String()
		}
	}
	return ""
}

func usable(ip net.IP, ipv6 bool) bool {
	if ip.IsLoopback() {
		return false
	}
	if ipv6 {
		return ip.To4() == nil
	}
	return ip.To4() != nil
}
