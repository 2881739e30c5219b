package unicastdhcp

import (
	"testing"

	"github.com/veesix-networks/unicastdhcp/pkg/connectpoint"
)

func TestServerLocationLifecycle(t *testing.T) {
	var s ServerLocation

	if _, ok := s.Load(); ok {
		t.Fatal("new store should be unset")
	}

	first := connectpoint.New("of:0000000000000001", 7)
	s.Store(first)
	if got, ok := s.Load(); !ok || got != first {
		t.Fatalf("Load() = %v, %v, want %v", got, ok, first)
	}

	second := connectpoint.New("of:0000000000000004", 1)
	s.Store(second)
	if got, _ := s.Load(); got != second {
		t.Fatalf("Load() after replace = %v, want %v", got, second)
	}

	s.Clear()
	if _, ok := s.Load(); ok {
		t.Fatal("store should be unset after Clear")
	}
}
