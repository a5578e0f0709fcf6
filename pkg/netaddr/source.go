package netaddr

import "net"

// Interface は探索対象となるネットワークインターフェースのスナップショットです。
type Interface struct {
	Name  string
	Flags net.Flags
	Addrs []net.Addr
}

// Sourceはホストのネットワークインターフェースを列挙するための抽象化されたインターフェースです。
// 実環境ではOSの列挙結果をそのまま返し、テストでは任意の構成を差し込めます。
//
//go:generate mockgen -source source.go -destination mock/source.go
type Source interface {
	Interfaces() ([]Interface, error)
}

var _ Source = (*systemSource)(nil)

func NewSystemSource() Source {
	return &systemSource{}
}

type systemSource struct{}

func (s *systemSource) Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(ifaces))

	for _, ifc := range ifaces {
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}

		out = append(out, Interface{
			Name:  ifc.Name,
			Flags: ifc.Flags,
			Addrs: addrs,
		})
	}

	return out, nil
}
