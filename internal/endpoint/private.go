package endpoint

import (
	"net"
)

// privateCIDRs 私有、回环与链路本地地址段
var privateCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"127.0.0.0/8",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var privateNets = mustIPNetSet(privateCIDRs)

// IPNetSet 用于检查 IP 是否属于某组地址段
type IPNetSet struct {
	nets []*net.IPNet
}

// Contains 检查给定的 IP 是否在集合中
func (s *IPNetSet) Contains(ip net.IP) bool {
	for _, n := range s.nets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func mustIPNetSet(cidrs []string) *IPNetSet {
	set := &IPNetSet{nets: make([]*net.IPNet, 0, len(cidrs))}
	for _, c := range cidrs {
		_, ipNet, err := net.ParseCIDR(c)
		if err != nil {
			panic("endpoint: invalid CIDR " + c)
		}
		set.nets = append(set.nets, ipNet)
	}
	return set
}

// IsPrivate 报告 ip 是否属于私有、回环或链路本地地址
func IsPrivate(ip net.IP) bool {
	return ip != nil && privateNets.Contains(ip)
}
