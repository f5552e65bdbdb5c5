package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"nescore/internal/bus"
	"nescore/internal/memory"
	"nescore/internal/version"
)

// SessionError represents session setup and teardown errors
type SessionError struct {
	Component string
	Operation string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// Session owns a configured bus and the files it writes to.
type Session struct {
	Bus *bus.Bus

	config  *Config
	logger  *log.Logger
	closers []io.Closer
}

type sessionOptions struct {
	logOutput  io.Writer
	memoryOpts []memory.Option
}

// Option customises NewSession
type Option func(*sessionOptions)

// WithLogOutput sends session logs to w instead of a file under Paths.Logs.
func WithLogOutput(w io.Writer) Option {
	return func(o *sessionOptions) {
		o.logOutput = w
	}
}

// WithMemoryOptions passes extra options, such as peripheral windows, to the
// address bus.
func WithMemoryOptions(opts ...memory.Option) Option {
	return func(o *sessionOptions) {
		o.memoryOpts = append(o.memoryOpts, opts...)
	}
}

// NewSession validates cfg, builds the address bus and CPU around cart,
// performs the power-on reset and applies the start-up overrides. A nil cfg
// uses the defaults.
func NewSession(cfg *Config, cart memory.Cartridge, opts ...Option) (*Session, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	cfg = cfg.Clone()
	if err := cfg.validate(); err != nil {
		return nil, &SessionError{Component: "config", Operation: "validation", Err: err}
	}

	pattern, err := cfg.PowerUp()
	if err != nil {
		return nil, &SessionError{Component: "config", Operation: "power-up pattern", Err: err}
	}
	resetPC, overridePC, err := cfg.ResetAddress()
	if err != nil {
		return nil, &SessionError{Component: "config", Operation: "reset address", Err: err}
	}

	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{config: cfg}
	if err := s.openLogger(o.logOutput); err != nil {
		return nil, err
	}

	memoryOpts := append([]memory.Option{
		memory.WithPowerUpPattern(pattern),
		memory.WithDiagnostics(cfg.Memory.OpenBusDiagnostics),
		memory.WithLogger(s.logger),
	}, o.memoryOpts...)

	b, err := bus.New(cart, memoryOpts...)
	if err != nil {
		s.Close()
		return nil, &SessionError{Component: "bus", Operation: "setup", Err: err}
	}
	s.Bus = b
	b.SetLogger(s.logger)
	s.logger.Printf("[SESSION] %s", version.GetBuildInfo())

	if overridePC {
		b.CPU.PC = resetPC
		s.logger.Printf("[SESSION] PC overridden to $%04X", resetPC)
	}
	if cfg.CPU.StartCycles > 0 {
		b.SetCycles(cfg.CPU.StartCycles)
	}

	if err := s.applyDebugSettings(o.logOutput); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openLogger routes logs to w, to Paths.Logs/nescore.log when logging is
// enabled, or nowhere.
func (s *Session) openLogger(w io.Writer) error {
	switch {
	case !s.config.Debug.EnableLogging:
		w = io.Discard
	case w == nil:
		if err := os.MkdirAll(s.config.Paths.Logs, 0755); err != nil {
			return &SessionError{Component: "logger", Operation: "open", Err: err}
		}
		f, err := os.Create(filepath.Join(s.config.Paths.Logs, "nescore.log"))
		if err != nil {
			return &SessionError{Component: "logger", Operation: "open", Err: err}
		}
		s.closers = append(s.closers, f)
		w = f
	}
	s.logger = log.New(w, "", log.LstdFlags|log.Lmicroseconds)
	return nil
}

// applyDebugSettings applies debug settings to the bus and CPU
func (s *Session) applyDebugSettings(logOutput io.Writer) error {
	debug := s.config.Debug

	if debug.EnableLogging && debug.LogLevel == "DEBUG" {
		s.Bus.CPU.EnableDebugLogging(true)
	}
	if debug.LoopDetection {
		s.Bus.CPU.EnableLoopDetection(true)
	}

	if debug.MemoryDebugging {
		addresses, _ := s.config.WatchpointAddresses()
		for _, address := range addresses {
			s.Bus.AddMemoryWatchpoint(address)
		}
		s.Bus.EnableWatchpointLogging(true)
		s.logger.Printf("[DEBUG] Memory monitoring enabled for %d addresses", len(addresses))
	}

	switch {
	case s.config.Paths.TraceLog != "":
		if err := os.MkdirAll(filepath.Dir(s.config.Paths.TraceLog), 0755); err != nil {
			return &SessionError{Component: "trace", Operation: "open", Err: err}
		}
		f, err := os.Create(s.config.Paths.TraceLog)
		if err != nil {
			return &SessionError{Component: "trace", Operation: "open", Err: err}
		}
		s.closers = append(s.closers, f)
		s.Bus.SetTraceWriter(f)
	case debug.CPUTracing && logOutput != nil:
		s.Bus.SetTraceWriter(logOutput)
	case debug.CPUTracing:
		return &SessionError{Component: "trace", Operation: "open", Err: errors.New("cpu tracing needs paths.trace_log")}
	}
	return nil
}

// Config returns the validated configuration the session runs with.
func (s *Session) Config() *Config {
	return s.config
}

// Step executes one instruction, interrupt entry or DMA stall cycle.
func (s *Session) Step() uint64 {
	return s.Bus.Step()
}

// RunCycles runs for at least the given number of CPU cycles.
func (s *Session) RunCycles(cycles uint64) {
	s.Bus.RunCycles(cycles)
}

// RunUntilHalt steps until the CPU jams or maxSteps steps have run, and
// reports whether it jammed.
func (s *Session) RunUntilHalt(maxSteps int) bool {
	for i := 0; i < maxSteps; i++ {
		if s.Bus.CPU.Halted() {
			return true
		}
		s.Bus.Step()
	}
	return s.Bus.CPU.Halted()
}

// Close releases the log and trace files.
func (s *Session) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	if s.Bus != nil {
		s.Bus.SetTraceWriter(nil)
	}
	return errors.Join(errs...)
}
