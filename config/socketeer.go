package config

import (
	"net"
)

// SocketeerOptions configure the shared UDP socket.
type SocketeerOptions struct {
	// Bind is the local address. Defaults are chosen by cmd: 0.0.0.0:68
	// for v4 targets, [::]:547 for v6 targets, port 0 when a custom
	// target port is in play.
	Bind *net.UDPAddr

	// InterfaceName scopes multicast joins and, when set, binds the
	// socket to the device. Required for v6 targets.
	InterfaceName string

	// V6 selects the decoder applied to inbound datagrams.
	V6 bool
}
