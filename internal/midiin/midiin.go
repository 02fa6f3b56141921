// Package midiin supplies the raw MIDI byte stream from a real OS MIDI
// port, wrapping gitlab.com/gomidi/midi/v2/drivers/rtmididrv (SPEC_FULL
// §2B/§6). It hands each received message straight to a callback so
// internal/router's transport-independent decoder does the actual §4.11
// decode work.
package midiin

import (
	"fmt"

	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Handler receives one raw MIDI message (status byte + 0..2 data bytes).
type Handler func(data []byte)

// Input owns an rtmidi driver and an open input port.
type Input struct {
	driver *rtmididrv.Driver
	port   drivers.In
	stop   func()
}

// Open opens portName (or the first available input port if portName is
// empty) and returns an Input ready to Listen. MIDI open failure is
// recoverable per SPEC_FULL §7: the caller is expected to continue without
// MIDI rather than treat this as fatal.
func Open(portName string) (*Input, error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("open midi driver: %w", err)
	}

	port, err := selectPort(driver, portName)
	if err != nil {
		driver.Close()
		return nil, err
	}

	return &Input{driver: driver, port: port}, nil
}

func selectPort(driver *rtmididrv.Driver, portName string) (drivers.In, error) {
	ins, err := driver.Ins()
	if err != nil {
		return nil, fmt.Errorf("list midi input ports: %w", err)
	}
	if len(ins) == 0 {
		return nil, fmt.Errorf("no midi input ports available")
	}
	if portName == "" {
		return ins[0], nil
	}
	for _, in := range ins {
		if in.String() == portName {
			return in, nil
		}
	}
	return nil, fmt.Errorf("midi input port %q not found", portName)
}

// Listen starts delivering raw message bytes to h until Close is called.
func (i *Input) Listen(h Handler) error {
	if err := i.port.Open(); err != nil {
		return fmt.Errorf("open midi port: %w", err)
	}
	stop, err := i.port.Listen(func(data []byte, _ int32) {
		h(data)
	}, drivers.ListenConfig{})
	if err != nil {
		return fmt.Errorf("listen on midi port: %w", err)
	}
	i.stop = stop
	return nil
}

// Close stops listening and releases the port and driver.
func (i *Input) Close() error {
	if i.stop != nil {
		i.stop()
	}
	if i.port != nil {
		i.port.Close()
	}
	if i.driver != nil {
		return i.driver.Close()
	}
	return nil
}

// Name reports the open port's display name.
func (i *Input) Name() string {
	if i.port == nil {
		return ""
	}
	return i.port.String()
}
