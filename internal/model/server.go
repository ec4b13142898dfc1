package model

import (
	"context"
	"net"
)

// Server is a network server with lifecycle methods.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}

// SecurityLayer produces a listener, plain or TLS.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}
