// Package config loads the daemon's JSON configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/motus/internal/mocap"
	"github.com/banshee-data/motus/internal/network"
	"github.com/banshee-data/motus/internal/osc"
	"github.com/banshee-data/motus/internal/serialsource"
)

// DefaultConfigPath is the canonical defaults file.
const DefaultConfigPath = "config/motus.defaults.json"

const maxFileSize = 1 * 1024 * 1024

// MotusConfig is the root configuration. Omitted fields fall back to the
// defaults returned by the Get* accessors, so partial files are safe.
type MotusConfig struct {
	// Transport
	ListenAddress  *string `json:"listen_address,omitempty"`
	ForwardAddress *string `json:"forward_address,omitempty"`
	RcvBuf         *int    `json:"rcv_buf,omitempty"`
	MonitorAddress *string `json:"monitor_address,omitempty"`
	ForwardBuffer  *int    `json:"forward_buffer,omitempty"`

	// Loop
	TickInterval  *string `json:"tick_interval,omitempty"`  // duration string like "20ms"
	StatsInterval *string `json:"stats_interval,omitempty"` // duration string like "1m"

	// Pipeline
	HistoryCap      *int     `json:"history_cap,omitempty"`
	BufferSize      *int     `json:"buffer_size,omitempty"`
	AverageWindow   *int     `json:"average_window,omitempty"`
	DerivativeScale *float64 `json:"derivative_scale,omitempty"`
	MaxDraw         *int     `json:"max_draw,omitempty"`
	QueueCapacity   *int     `json:"queue_capacity,omitempty"`
	SkipIdle        *bool    `json:"skip_idle,omitempty"`
	UseAccel        *bool    `json:"use_accel,omitempty"`
	UseGyro         *bool    `json:"use_gyro,omitempty"`
	UseQuaternion   *bool    `json:"use_quaternion,omitempty"`
	SampleRate      *float64 `json:"sample_rate,omitempty"`

	// Inbound routing
	WiimoteAccelMax *float64 `json:"wiimote_accel_max,omitempty"`
	PhoneDeviceID   *string  `json:"phone_device_id,omitempty"`
	MaxWiimotes     *int     `json:"max_wiimotes,omitempty"`

	// Serial bridge (optional)
	SerialPort    *string                   `json:"serial_port,omitempty"`
	SerialOptions *serialsource.PortOptions `json:"serial_options,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// LoadConfig reads a MotusConfig from a .json file no larger than 1MB.
func LoadConfig(path string) (*MotusConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &MotusConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. It panics when the file cannot be found and is
// intended for tests.
func MustLoadDefaultConfig() *MotusConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the values that are set.
func (c *MotusConfig) Validate() error {
	for name, v := range map[string]*string{"tick_interval": c.TickInterval, "stats_interval": c.StatsInterval} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, *v)
		}
	}

	positive := []struct {
		name string
		v    *int
	}{
		{"history_cap", c.HistoryCap},
		{"buffer_size", c.BufferSize},
		{"average_window", c.AverageWindow},
		{"max_draw", c.MaxDraw},
		{"queue_capacity", c.QueueCapacity},
		{"max_wiimotes", c.MaxWiimotes},
		{"forward_buffer", c.ForwardBuffer},
	}
	for _, p := range positive {
		if p.v != nil && *p.v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", p.name, *p.v)
		}
	}

	if c.RcvBuf != nil && *c.RcvBuf < 0 {
		return fmt.Errorf("rcv_buf must not be negative, got %d", *c.RcvBuf)
	}
	if c.HistoryCap != nil && c.BufferSize != nil && *c.BufferSize > *c.HistoryCap {
		return fmt.Errorf("buffer_size %d exceeds history_cap %d", *c.BufferSize, *c.HistoryCap)
	}
	if c.DerivativeScale != nil && *c.DerivativeScale == 0 {
		return fmt.Errorf("derivative_scale must be non-zero")
	}
	if c.SampleRate != nil && *c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %f", *c.SampleRate)
	}
	if c.WiimoteAccelMax != nil && *c.WiimoteAccelMax < 0 {
		return fmt.Errorf("wiimote_accel_max must not be negative, got %f", *c.WiimoteAccelMax)
	}
	if !c.GetUseAccel() && !c.GetUseGyro() && !c.GetUseQuaternion() {
		return fmt.Errorf("at least one of use_accel, use_gyro, use_quaternion must be enabled")
	}
	if c.SerialOptions != nil {
		if _, err := c.SerialOptions.Normalize(); err != nil {
			return fmt.Errorf("serial_options: %w", err)
		}
	}
	return nil
}

func getDuration(v *string, def time.Duration) time.Duration {
	if v == nil || *v == "" {
		return def
	}
	d, err := time.ParseDuration(*v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// GetListenAddress returns the UDP listen address or ":8887".
func (c *MotusConfig) GetListenAddress() string {
	if c.ListenAddress == nil || *c.ListenAddress == "" {
		return ":8887"
	}
	return *c.ListenAddress
}

// GetForwardAddress returns the OSC destination or "127.0.0.1:8888".
func (c *MotusConfig) GetForwardAddress() string {
	if c.ForwardAddress == nil || *c.ForwardAddress == "" {
		return "127.0.0.1:8888"
	}
	return *c.ForwardAddress
}

// GetRcvBuf returns the socket receive buffer size.
func (c *MotusConfig) GetRcvBuf() int {
	if c.RcvBuf == nil {
		return 4 << 20
	}
	return *c.RcvBuf
}

// GetMonitorAddress returns the debug HTTP address. Empty disables it.
func (c *MotusConfig) GetMonitorAddress() string {
	if c.MonitorAddress == nil {
		return ""
	}
	return *c.MonitorAddress
}

// GetTickInterval returns the processing tick period.
func (c *MotusConfig) GetTickInterval() time.Duration {
	return getDuration(c.TickInterval, 20*time.Millisecond)
}

// GetStatsInterval returns how often counters are logged.
func (c *MotusConfig) GetStatsInterval() time.Duration {
	return getDuration(c.StatsInterval, time.Minute)
}

func (c *MotusConfig) GetHistoryCap() int {
	if c.HistoryCap == nil {
		return mocap.DefaultHistoryCap
	}
	return *c.HistoryCap
}

func (c *MotusConfig) GetBufferSize() int {
	if c.BufferSize == nil {
		return mocap.DefaultBufferSize
	}
	return *c.BufferSize
}

func (c *MotusConfig) GetAverageWindow() int {
	if c.AverageWindow == nil {
		return mocap.DefaultAverageWindow
	}
	return *c.AverageWindow
}

func (c *MotusConfig) GetDerivativeScale() float64 {
	if c.DerivativeScale == nil {
		return mocap.DefaultDerivativeScale
	}
	return *c.DerivativeScale
}

func (c *MotusConfig) GetMaxDraw() int {
	if c.MaxDraw == nil {
		return mocap.DefaultMaxDraw
	}
	return *c.MaxDraw
}

// GetForwardBuffer is the number of outbound datagrams the forwarder holds.
// One active sensor produces a few hundred per tick.
func (c *MotusConfig) GetForwardBuffer() int {
	if c.ForwardBuffer == nil {
		return network.DefaultForwardBuffer
	}
	return *c.ForwardBuffer
}

func (c *MotusConfig) GetQueueCapacity() int {
	if c.QueueCapacity == nil {
		return mocap.DefaultQueueCapacity
	}
	return *c.QueueCapacity
}

func (c *MotusConfig) GetSkipIdle() bool {
	if c.SkipIdle == nil {
		return true
	}
	return *c.SkipIdle
}

func (c *MotusConfig) GetUseAccel() bool {
	if c.UseAccel == nil {
		return true
	}
	return *c.UseAccel
}

func (c *MotusConfig) GetUseGyro() bool {
	return c.UseGyro != nil && *c.UseGyro
}

func (c *MotusConfig) GetUseQuaternion() bool {
	return c.UseQuaternion != nil && *c.UseQuaternion
}

func (c *MotusConfig) GetSampleRate() float64 {
	if c.SampleRate == nil {
		return mocap.DefaultSampleRate
	}
	return *c.SampleRate
}

// GetWiimoteAccelMax returns the wiimote normalisation divisor. Zero
// leaves values unscaled.
func (c *MotusConfig) GetWiimoteAccelMax() float64 {
	if c.WiimoteAccelMax == nil {
		return 0
	}
	return *c.WiimoteAccelMax
}

func (c *MotusConfig) GetPhoneDeviceID() string {
	if c.PhoneDeviceID == nil || *c.PhoneDeviceID == "" {
		return osc.DefaultPhoneID
	}
	return *c.PhoneDeviceID
}

func (c *MotusConfig) GetMaxWiimotes() int {
	if c.MaxWiimotes == nil {
		return osc.DefaultMaxWiis
	}
	return *c.MaxWiimotes
}

// GetSerialPort returns the serial device path. Empty disables the bridge.
func (c *MotusConfig) GetSerialPort() string {
	if c.SerialPort == nil {
		return ""
	}
	return *c.SerialPort
}

func (c *MotusConfig) GetSerialOptions() serialsource.PortOptions {
	if c.SerialOptions == nil {
		return serialsource.PortOptions{}
	}
	return *c.SerialOptions
}

// PipelineConfig builds the mocap configuration.
func (c *MotusConfig) PipelineConfig() mocap.Config {
	return mocap.Config{
		HistoryCap:      c.GetHistoryCap(),
		BufferSize:      c.GetBufferSize(),
		AverageWindow:   c.GetAverageWindow(),
		DerivativeScale: c.GetDerivativeScale(),
		MaxDraw:         c.GetMaxDraw(),
		SampleRate:      c.GetSampleRate(),
		QueueCapacity:   c.GetQueueCapacity(),
		SkipIdle:        c.GetSkipIdle(),
		Groups: mocap.ChannelGroups{
			Accel:      c.GetUseAccel(),
			Gyro:       c.GetUseGyro(),
			Quaternion: c.GetUseQuaternion(),
		},
	}
}

// DecoderConfig builds the inbound OSC routing configuration.
func (c *MotusConfig) DecoderConfig() osc.DecoderConfig {
	return osc.DecoderConfig{
		PhoneDeviceID:   c.GetPhoneDeviceID(),
		MaxWiimotes:     c.GetMaxWiimotes(),
		WiimoteAccelMax: c.GetWiimoteAccelMax(),
	}
}
