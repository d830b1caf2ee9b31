package ipam

import (
	"net"
	"strings"
)

// Helpers IPv4
func ip4ToUint(ip net.IP) uint32 {
	ip = ip.To4()
	return uint32(ip[0])<<24 | uint32(ip[1])<<16 | uint32(ip[2])<<8 | uint32(ip[3])
}

func uintToIP4(u uint32) net.IP {
	return net.IPv4(byte(u>>24), byte(u>>16), byte(u>>8), byte(u))
}

// ParseIPv4 возвращает адрес как число; ok == false для не-IPv4.
func ParseIPv4(s string) (uint32, bool) {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil || ip.To4() == nil {
		return 0, false
	}
	return ip4ToUint(ip), true
}

// CompareIPv4 упорядочивает адреса по числовому значению октетов
// ("10.0.0.9" < "10.0.0.10"); неразбираемые идут в конце, между собой: лексикографически.
func CompareIPv4(a, b string) int {
	ua, oka := ParseIPv4(a)
	ub, okb := ParseIPv4(b)
	switch {
	case oka && okb:
		switch {
		case ua < ub:
			return -1
		case ua > ub:
			return 1
		}
		return 0
	case oka:
		return -1
	case okb:
		return 1
	}
	return strings.Compare(a, b)
}

// firstUsableIPv4: network + 1, по соглашению шлюз.
func firstUsableIPv4(nw *net.IPNet) string {
	ip := nw.IP.To4()
	if ip == nil {
		return ""
	}
	return uintToIP4(ip4ToUint(ip) + 1).String()
}
