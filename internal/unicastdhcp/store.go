package unicastdhcp

import (
	"sync/atomic"

	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
)

// ServerLocation holds the DHCP server attachment point. Every Store swaps in
// a fresh value, so a reader sees either the old or the new point in full.
type ServerLocation struct {
	p atomic.Pointer[connectpoint.ConnectPoint]
}

func (s *ServerLocation) Load() (connectpoint.ConnectPoint, bool) {
	cp := s.p.Load()
	if cp == nil {
		return connectpoint.ConnectPoint{}, false
	}
	return *cp, true
}

func (s *ServerLocation) Store(cp connectpoint.ConnectPoint) {
	s.p.Store(&cp)
}

func (s *ServerLocation) Clear() {
	s.p.Store(nil)
}
