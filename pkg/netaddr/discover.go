package netaddr

import (
	"errors"
	"net"
)

var (
	// ErrNoNetworkInterface no up interface carries a routable IPv4 address
	ErrNoNetworkInterface = errors.New("no usable network interface found")
)

/*
Discoverはホストが属するLANで他の端末から到達可能なIPv4アドレスを1つ選びます。
リンクアップしているループバック以外のインターフェースを順に調べ、
最初に見つかったグローバルユニキャストのIPv4を返します。
APIPA(169.254.0.0/16)はルータ不在時の自己割当なので候補から外します。
*/
func Discover(src Source) (net.IP, error) {
	ifaces, err := src.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagUp == 0 {
			continue
		}

		if ifc.Flags&net.FlagLoopback != 0 {
			continue
		}

		for _, addr := range ifc.Addrs {
			ip := addrIP(addr)
			if ip == nil {
				continue
			}

			ip4 := ip.To4()
			if ip4 == nil {
				continue
			}

			if !ip4.IsGlobalUnicast() {
				continue
			}

			return ip4, nil
		}
	}

	return nil, ErrNoNetworkInterface
}

func addrIP(addr net.Addr) net.IP {
	switch v := addr.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	default:
		return nil
	}
}
