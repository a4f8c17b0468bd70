package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/momentics/serbridge/control"
	"github.com/momentics/serbridge/transport"
)

// Options holds CLI options.
type Options struct {
	ConfigPath  string
	Remote      string
	Port        int
	BufferSize  int
	LogLevel    string
	Metrics     string
	PrintConfig bool
	Serial      string

	set map[string]bool
}

const usage = `Usage: serbridge [options] serial-name

Bridges a serial device to TCP. Without -c the bridge listens for one
client at a time; with -c it connects to a remote bridge.

serial-name is DEVICE[,BAUD], e.g. /dev/ttyUSB0 or /dev/ttyS1,9600
(default baud rate %d).

Options:
`

// ParseFlags parses args into Options.
func ParseFlags(args []string, out io.Writer) (Options, error) {
	fs := flag.NewFlagSet("serbridge", flag.ContinueOnError)
	fs.SetOutput(out)
	var opts Options
	fs.StringVar(&opts.Remote, "c", "", "connect to `host:port` instead of listening")
	fs.IntVar(&opts.Port, "p", control.DefaultPort, "server `port`")
	fs.IntVar(&opts.BufferSize, "b", 512, "relay buffer `size` in bytes (minimum 512)")
	fs.StringVar(&opts.ConfigPath, "config", "", "path to YAML config `file`")
	fs.StringVar(&opts.LogLevel, "log-level", "", "log `level`: debug, info, warn, error")
	fs.StringVar(&opts.Metrics, "metrics", "", "serve /metrics and /debug/state on `addr`")
	fs.BoolVar(&opts.PrintConfig, "print-config", false, "print the effective configuration and exit")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usage, transport.DefaultBaudRate)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		opts.Serial = fs.Arg(0)
	default:
		fs.Usage()
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args()[1:])
	}
	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

// Apply overrides cfg with explicitly given flags.
func (o Options) Apply(cfg *control.Config) error {
	if o.Serial != "" {
		sc, err := transport.ParseSerialConfig(o.Serial)
		if err != nil {
			return err
		}
		cfg.Serial = sc
	}
	if o.set["c"] {
		cfg.Remote = o.Remote
	}
	if o.set["p"] {
		cfg.Listen.Port = o.Port
	}
	if o.set["b"] {
		cfg.BufferSize = o.BufferSize
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.LogLevel
	}
	if o.set["metrics"] {
		cfg.Metrics.Listen = o.Metrics
	}
	return nil
}
