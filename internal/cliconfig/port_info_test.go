package cliconfig

import "testing"

func TestResolveSerialPort_Passthrough(t *testing.T) {
	// A fixed device path is never touched.
	cfg := DefaultConfig()
	cfg.Port = "/dev/ttyUSB7"
	if err := ResolveSerialPort(&cfg); err != nil {
		t.Fatalf("ResolveSerialPort() error = %v", err)
	}
	if cfg.Port != "/dev/ttyUSB7" {
		t.Errorf("Port = %v, want /dev/ttyUSB7", cfg.Port)
	}

	// Simulated runs skip discovery even with the auto sentinel.
	cfg = DefaultConfig()
	cfg.Port = PortAuto
	cfg.Simulate = true
	if err := ResolveSerialPort(&cfg); err != nil {
		t.Fatalf("ResolveSerialPort() error = %v", err)
	}
	if cfg.Port != PortAuto {
		t.Errorf("Port = %v, want %v (untouched in simulate mode)", cfg.Port, PortAuto)
	}
}

func TestPickPort(t *testing.T) {
	tests := []struct {
		name  string
		ports []string
		want  string
	}{
		{
			name:  "prefers ttyUSB over built-in",
			ports: []string{"/dev/ttyS0", "/dev/ttyUSB0"},
			want:  "/dev/ttyUSB0",
		},
		{
			name:  "prefers ttyACM over built-in",
			ports: []string{"/dev/ttyS0", "/dev/ttyACM2"},
			want:  "/dev/ttyACM2",
		},
		{
			name:  "macOS usbserial device",
			ports: []string{"/dev/cu.Bluetooth", "/dev/cu.usbserial-1410"},
			want:  "/dev/cu.usbserial-1410",
		},
		{
			name:  "falls back to first port",
			ports: []string{"/dev/ttyS0", "/dev/ttyS1"},
			want:  "/dev/ttyS0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickPort(tt.ports); got != tt.want {
				t.Errorf("pickPort(%v) = %v, want %v", tt.ports, got, tt.want)
			}
		})
	}
}
