package input

import (
	"context"
	"errors"
	"net"
)

// UDPListener implements the UDP input from spec.md §4.6: each
// datagram is exactly one payload, with no Splitter involved.
type UDPListener struct {
	Addr       string
	NewDecoder func() Pipeline
}

func (l *UDPListener) Serve(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", l.Addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	p := l.NewDecoder()
	buf := make([]byte, 65536)
	for {
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				if errors.Is(err, net.ErrClosed) {
					return nil
				}
				return err
			}
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		if err := p.HandleDatagram(ctx, payload); err != nil {
			return err
		}
	}
}
