package server

import (
	"net"

	"golang.org/x/net/netutil"
)

// Listen starts a net.Listener on the tcp network on the given address.
// If maxOpenConnections is positive, it will also set the limitListener.
func Listen(addr string, maxOpenConnections int) (net.Listener, error) {
	if addr == "" {
		addr = ":http"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if maxOpenConnections > 0 {
		ln = netutil.LimitListener(ln, maxOpenConnections)
	}
	return ln, err
}
