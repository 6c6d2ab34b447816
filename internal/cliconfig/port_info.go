package cliconfig

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// PortAuto is the sentinel port value that asks for serial device discovery
// instead of a fixed path.
const PortAuto = "auto"

// ResolveSerialPort replaces a PortAuto port with a serial device enumerated
// on the host. Simulated runs and fixed device paths pass through untouched.
func ResolveSerialPort(cfg *Config) error {
	if cfg.Simulate || cfg.Port != PortAuto {
		return nil
	}

	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("enumerate serial ports: %w", err)
	}
	if len(ports) == 0 {
		return fmt.Errorf("no serial ports found (pass --port explicitly)")
	}

	cfg.Port = pickPort(ports)
	return nil
}

// pickPort prefers USB serial adapters over built-in ports; the GPP-4323
// shows up as a USB CDC device on every platform.
func pickPort(ports []string) string {
	for _, p := range ports {
		if strings.Contains(p, "ttyUSB") || strings.Contains(p, "ttyACM") || strings.Contains(p, "usbserial") || strings.Contains(p, "usbmodem") {
			return p
		}
	}
	return ports[0]
}
