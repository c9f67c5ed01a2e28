// Package netutil provides a TCP dialer tuned for a chatty
// request/reply control protocol: TCP_NODELAY so small RPC frames are
// not held back by Nagle's algorithm, and SO_KEEPALIVE so a wedged
// daemon on a dead connection is eventually noticed.
package netutil

import (
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// DialTimeout dials a TCP connection to address, bounding the connect
// attempt by timeout (zero means no bound), with TCP_NODELAY and
// SO_KEEPALIVE set at the socket level before the connection completes.
func DialTimeout(address string, timeout time.Duration) (net.Conn, error) {
	d := net.Dialer{
		Timeout: timeout,
		Control: tuneSocket,
	}
	return d.Dial("tcp", address)
}

func tuneSocket(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		if sockErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); sockErr != nil {
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_KEEPALIVE, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
