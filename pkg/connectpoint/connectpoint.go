package connectpoint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMissingSeparator = errors.New("missing '/' separator")
	ErrEmptyDevice      = errors.New("empty device identifier")
	ErrInvalidPort      = errors.New("invalid port number")
)

// DeviceID identifies a network element, e.g. "of:0000000000000001".
type DeviceID string

// PortNumber is a port on a network element. OpenFlow port numbers are 32 bit.
type PortNumber uint32

// ConnectPoint is a (device, port) attachment point. It is a comparable value
// type; two points are equal when both fields are equal.
type ConnectPoint struct {
	DeviceID DeviceID
	Port     PortNumber
}

func New(device DeviceID, port PortNumber) ConnectPoint {
	return ConnectPoint{DeviceID: device, Port: port}
}

// Parse reads a "<device>/<port>" location. The string is split at the first
// '/', so device identifiers must not contain one.
func Parse(location string) (ConnectPoint, error) {
	idx := strings.IndexByte(location, '/')
	if idx < 0 {
		return ConnectPoint{}, fmt.Errorf("parse location %q: %w", location, ErrMissingSeparator)
	}

	device := location[:idx]
	if device == "" {
		return ConnectPoint{}, fmt.Errorf("parse location %q: %w", location, ErrEmptyDevice)
	}

	port, err := strconv.ParseUint(location[idx+1:], 10, 32)
	if err != nil {
		return ConnectPoint{}, fmt.Errorf("parse location %q: %w: %v", location, ErrInvalidPort, err)
	}

	return ConnectPoint{DeviceID: DeviceID(device), Port: PortNumber(port)}, nil
}

func (c ConnectPoint) IsZero() bool {
	return c == ConnectPoint{}
}

func (c ConnectPoint) String() string {
	return fmt.Sprintf("%s/%d", c.DeviceID, c.Port)
}
