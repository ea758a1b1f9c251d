// Package osc translates between OSC datagrams and the pipeline's readings
// and messages.
package osc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hypebeast/go-osc/osc"

	"github.com/banshee-data/motus/internal/mocap"
)

// Inbound addresses understood by the decoder.
const (
	WiimotePrefix   = "/wii/"
	WiimoteSuffix   = "/accel/pry"
	PhoneAddress    = "/syntien/motion/1/scope1"
	DefaultPhoneID  = "7"
	DefaultMaxWiis  = 6
	DefaultAccelMax = 1.0
)

// ErrUnknownAddress is returned for messages no route matches.
var ErrUnknownAddress = errors.New("osc: unknown address")

// DecoderConfig controls inbound routing.
type DecoderConfig struct {
	// PhoneDeviceID is the identity given to the single phone stream.
	PhoneDeviceID string
	// MaxWiimotes bounds the wiimote numbers accepted (0..MaxWiimotes-1).
	MaxWiimotes int
	// WiimoteAccelMax normalises wiimote acceleration as |a|/max. Zero
	// disables scaling.
	WiimoteAccelMax float64
}

// DefaultDecoderConfig returns the installation routing.
func DefaultDecoderConfig() DecoderConfig {
	return DecoderConfig{
		PhoneDeviceID: DefaultPhoneID,
		MaxWiimotes:   DefaultMaxWiis,
	}
}

// Decoder turns OSC datagrams into readings.
type Decoder struct {
	cfg     DecoderConfig
	phoneIx int
}

// NewDecoder builds a decoder. The phone's sensor index is the numeric value
// of its device id, or 0 when the id is not numeric.
func NewDecoder(cfg DecoderConfig) *Decoder {
	if cfg.PhoneDeviceID == "" {
		cfg.PhoneDeviceID = DefaultPhoneID
	}
	if cfg.MaxWiimotes <= 0 {
		cfg.MaxWiimotes = DefaultMaxWiis
	}
	ix, _ := strconv.Atoi(cfg.PhoneDeviceID)
	return &Decoder{cfg: cfg, phoneIx: ix}
}

// Decode parses one datagram. Bundles are flattened; messages that do not
// route are skipped and reported through the returned error together with
// any readings that did decode.
func (d *Decoder) Decode(packet []byte) ([]mocap.Reading, error) {
	pkt, err := osc.ParsePacket(string(packet))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OSC packet: %w", err)
	}

	var (
		readings []mocap.Reading
		errs     []error
	)
	for _, msg := range flatten(pkt) {
		r, err := d.DecodeMessage(msg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		readings = append(readings, r)
	}
	return readings, errors.Join(errs...)
}

// DecodeMessage routes a single OSC message.
func (d *Decoder) DecodeMessage(msg *osc.Message) (mocap.Reading, error) {
	var (
		r      mocap.Reading
		isWiis bool
	)
	switch {
	case msg.Address == PhoneAddress:
		r.DeviceID = d.cfg.PhoneDeviceID
		r.Index = d.phoneIx
	case strings.HasPrefix(msg.Address, WiimotePrefix) && strings.HasSuffix(msg.Address, WiimoteSuffix):
		which := strings.TrimSuffix(strings.TrimPrefix(msg.Address, WiimotePrefix), WiimoteSuffix)
		n, err := strconv.Atoi(which)
		if err != nil || n < 0 || n >= d.cfg.MaxWiimotes {
			return r, fmt.Errorf("%w: %s", ErrUnknownAddress, msg.Address)
		}
		r.DeviceID = which
		r.Index = n
		isWiis = true
	default:
		return r, fmt.Errorf("%w: %s", ErrUnknownAddress, msg.Address)
	}

	if len(msg.Arguments) < 3 {
		return r, fmt.Errorf("osc: %s carries %d arguments, need 3", msg.Address, len(msg.Arguments))
	}
	vals := make([]float64, 3)
	for i := range vals {
		v, err := toFloat(msg.Arguments[i])
		if err != nil {
			return r, fmt.Errorf("osc: %s argument %d: %w", msg.Address, i, err)
		}
		vals[i] = v
	}
	r.AccelX, r.AccelY, r.AccelZ = vals[0], vals[1], vals[2]

	if isWiis && d.cfg.WiimoteAccelMax > 0 {
		s := mocap.NewSample()
		s.SetAccel(mocap.Vec3{X: r.AccelX, Y: r.AccelY, Z: r.AccelZ})
		s.ScaleAccel(d.cfg.WiimoteAccelMax)
		a := s.Accel()
		r.AccelX, r.AccelY, r.AccelZ = a.X, a.Y, a.Z
	}
	return r, nil
}

func flatten(pkt osc.Packet) []*osc.Message {
	switch p := pkt.(type) {
	case *osc.Message:
		return []*osc.Message{p}
	case *osc.Bundle:
		msgs := append([]*osc.Message(nil), p.Messages...)
		for _, b := range p.Bundles {
			msgs = append(msgs, flatten(b)...)
		}
		return msgs
	default:
		return nil
	}
}

func toFloat(arg interface{}) (float64, error) {
	switch v := arg.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("unsupported argument type %T", arg)
	}
}

// Encode renders an outbound message as an OSC datagram carrying two
// float32 arguments.
func Encode(m mocap.Message) ([]byte, error) {
	msg := osc.NewMessage(m.Address, float32(m.X), float32(m.Y))
	data, err := msg.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("failed to encode OSC message %s: %w", m.Address, err)
	}
	return data, nil
}

// EncodeAll renders each message as its own datagram.
func EncodeAll(msgs []mocap.Message) ([][]byte, error) {
	out := make([][]byte, 0, len(msgs))
	for _, m := range msgs {
		data, err := Encode(m)
		if err != nil {
			return out, err
		}
		out = append(out, data)
	}
	return out, nil
}
