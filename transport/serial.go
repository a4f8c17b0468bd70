// File: transport/serial.go
// Author: momentics <momentics@gmail.com>
//
// Serial device descriptor parsing.

package transport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/momentics/serbridge/api"
)

// DefaultBaudRate applies when a device descriptor carries no rate.
const DefaultBaudRate = 115200

// SerialConfig identifies a serial device and its line speed.
type SerialConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	BaudRate int    `mapstructure:"baud_rate" yaml:"baud_rate"`
}

func (c SerialConfig) String() string {
	return fmt.Sprintf("%s,%d", c.Name, c.BaudRate)
}

// ParseSerialConfig parses "NAME[,BAUD]", e.g. "/dev/ttyUSB0" or "COM1,115200".
func ParseSerialConfig(desc string) (SerialConfig, error) {
	desc = strings.TrimSpace(desc)
	name, rate, hasRate := strings.Cut(desc, ",")
	name = strings.TrimSpace(name)
	if name == "" {
		return SerialConfig{}, api.NewError(api.ErrCodeInvalidArgument, "empty serial device name").
			WithContext("descriptor", desc)
	}
	cfg := SerialConfig{Name: name, BaudRate: DefaultBaudRate}
	if !hasRate {
		return cfg, nil
	}
	baud, err := strconv.ParseUint(strings.TrimSpace(rate), 10, 32)
	if err != nil || baud == 0 {
		return SerialConfig{}, api.NewError(api.ErrCodeInvalidArgument, "invalid baudrate").
			WithContext("descriptor", desc)
	}
	cfg.BaudRate = int(baud)
	return cfg, nil
}
