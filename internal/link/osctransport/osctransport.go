// Package osctransport carries the link command/feedback contract over OSC,
// so a remote producer can drive the audio engine across a process or
// network boundary. Messages carry a fixed header followed by name/value
// pairs for optional fields. Sample PCM is deliberately not carried here —
// bulk transfers stay on the in-process channel; OSC covers the control
// surface.
package osctransport

import (
	"fmt"
	"log"
	"math"

	"github.com/hypebeast/go-osc/osc"

	"github.com/schollz/collidertracker/internal/link"
	"github.com/schollz/collidertracker/internal/pattern"
)

const (
	addrSchedule      = "/colliderlive/schedule"
	addrCleanup       = "/colliderlive/cleanup"
	addrBackendStart  = "/colliderlive/backendstart"
	addrRequestSample = "/colliderlive/requestsample"
)

// Client sends link commands to a remote engine's OSC server.
type Client struct {
	osc *osc.Client
}

// NewClient builds a Client targeting host:port.
func NewClient(host string, port int) *Client {
	return &Client{osc: osc.NewClient(host, port)}
}

// Send encodes and transmits one command. Sample payload commands are
// rejected: PCM does not travel over OSC.
func (c *Client) Send(cmd link.Command) error {
	msg, err := EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return c.osc.Send(msg)
}

// EncodeCommand turns a control command into an OSC message.
func EncodeCommand(cmd link.Command) (*osc.Message, error) {
	switch v := cmd.(type) {
	case link.Schedule:
		msg := osc.NewMessage(addrSchedule)
		msg.Append(v.Playback)
		msg.Append(v.StartTimeSec)
		msg.Append(v.GateEndTimeSec)
		appendVoiceData(msg, v.Data)
		return msg, nil
	case link.Cleanup:
		msg := osc.NewMessage(addrCleanup)
		msg.Append(v.Playback)
		return msg, nil
	case link.SetBackendStart:
		msg := osc.NewMessage(addrBackendStart)
		msg.Append(v.StartTimeSec)
		return msg, nil
	default:
		return nil, fmt.Errorf("osctransport: command %T does not travel over OSC", cmd)
	}
}

// appendVoiceData flattens the VoiceData fields the control surface carries
// as name/value pairs.
func appendVoiceData(msg *osc.Message, d pattern.VoiceData) {
	if d.Sound != "" {
		msg.Append("sound")
		msg.Append(d.Sound)
	}
	if d.Index != nil {
		msg.Append("index")
		msg.Append(int32(*d.Index))
	}
	if d.Note != nil {
		msg.Append("note")
		msg.Append(*d.Note)
	}
	if d.FreqHz != nil {
		msg.Append("freq")
		msg.Append(*d.FreqHz)
	}
	if d.Gain != nil {
		msg.Append("gain")
		msg.Append(*d.Gain)
	}
	if d.Pan != nil {
		msg.Append("pan")
		msg.Append(*d.Pan)
	}
	if d.Orbit != 0 {
		msg.Append("orbit")
		msg.Append(int32(d.Orbit))
	}
	if d.Cut != nil {
		msg.Append("cut")
		msg.Append(int32(*d.Cut))
	}
	if d.Delay != nil {
		msg.Append("delay")
		msg.Append(*d.Delay)
	}
	if d.Reverb != nil {
		msg.Append("reverb")
		msg.Append(*d.Reverb)
	}
	if d.Legato != nil {
		msg.Append("legato")
		msg.Append(*d.Legato)
	}
	if d.Begin != nil {
		msg.Append("begin")
		msg.Append(*d.Begin)
	}
	if d.End != nil {
		msg.Append("end")
		msg.Append(*d.End)
	}
	if d.Loop {
		msg.Append("loop")
		msg.Append(true)
	}
}

// DecodeSchedule rebuilds a Schedule command from its OSC encoding.
func DecodeSchedule(msg *osc.Message) (link.Schedule, error) {
	args := msg.Arguments
	if len(args) < 3 {
		return link.Schedule{}, fmt.Errorf("osctransport: schedule message needs playback, start, gateEnd")
	}
	playback, ok := args[0].(string)
	if !ok {
		return link.Schedule{}, fmt.Errorf("osctransport: playback id must be a string")
	}
	start, err := floatArg(args[1])
	if err != nil {
		return link.Schedule{}, err
	}
	gateEnd, err := floatArg(args[2])
	if err != nil {
		return link.Schedule{}, err
	}
	sched := link.Schedule{Playback: playback, StartTimeSec: start, GateEndTimeSec: gateEnd}
	for i := 3; i+1 < len(args); i += 2 {
		name, ok := args[i].(string)
		if !ok {
			return link.Schedule{}, fmt.Errorf("osctransport: field name at arg %d is not a string", i)
		}
		if err := setVoiceField(&sched.Data, name, args[i+1]); err != nil {
			return link.Schedule{}, err
		}
	}
	return sched, nil
}

func setVoiceField(d *pattern.VoiceData, name string, arg any) error {
	switch name {
	case "sound":
		s, ok := arg.(string)
		if !ok {
			return fmt.Errorf("osctransport: sound must be a string")
		}
		d.Sound = s
	case "index":
		n, err := intArg(arg)
		if err != nil {
			return err
		}
		d.Index = &n
	case "note":
		return setFloat(&d.Note, arg)
	case "freq":
		return setFloat(&d.FreqHz, arg)
	case "gain":
		return setFloat(&d.Gain, arg)
	case "pan":
		return setFloat(&d.Pan, arg)
	case "orbit":
		n, err := intArg(arg)
		if err != nil {
			return err
		}
		d.Orbit = n
	case "cut":
		n, err := intArg(arg)
		if err != nil {
			return err
		}
		d.Cut = &n
	case "delay":
		return setFloat(&d.Delay, arg)
	case "reverb":
		return setFloat(&d.Reverb, arg)
	case "legato":
		return setFloat(&d.Legato, arg)
	case "begin":
		return setFloat(&d.Begin, arg)
	case "end":
		return setFloat(&d.End, arg)
	case "loop":
		b, ok := arg.(bool)
		if !ok {
			return fmt.Errorf("osctransport: loop must be a bool")
		}
		d.Loop = b
	default:
		// Unknown fields are skipped so old engines tolerate newer producers.
	}
	return nil
}

func setFloat(dst **float64, arg any) error {
	f, err := floatArg(arg)
	if err != nil {
		return err
	}
	*dst = &f
	return nil
}

func floatArg(arg any) (float64, error) {
	switch v := arg.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("osctransport: expected numeric argument, got %T", arg)
	}
}

func intArg(arg any) (int, error) {
	f, err := floatArg(arg)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f)), nil
}

// Server listens for command messages and forwards them into a Link.
type Server struct {
	srv *osc.Server
	l   *link.Link
}

// NewServer wires a dispatcher over the command addresses, forwarding each
// decoded command into l. Malformed messages are logged and dropped rather
// than tearing the server down.
func NewServer(port int, l *link.Link) *Server {
	d := osc.NewStandardDispatcher()
	d.AddMsgHandler(addrSchedule, func(msg *osc.Message) {
		sched, err := DecodeSchedule(msg)
		if err != nil {
			log.Printf("osctransport: bad schedule message: %v", err)
			return
		}
		if !l.Send(sched) {
			log.Printf("osctransport: command channel full, dropping schedule for %q", sched.Playback)
		}
	})
	d.AddMsgHandler(addrCleanup, func(msg *osc.Message) {
		if len(msg.Arguments) < 1 {
			return
		}
		if pb, ok := msg.Arguments[0].(string); ok {
			l.Send(link.Cleanup{Playback: pb})
		}
	})
	d.AddMsgHandler(addrBackendStart, func(msg *osc.Message) {
		if len(msg.Arguments) < 1 {
			return
		}
		if t, err := floatArg(msg.Arguments[0]); err == nil {
			l.Send(link.SetBackendStart{StartTimeSec: t})
		}
	})
	return &Server{
		srv: &osc.Server{Addr: fmt.Sprintf(":%d", port), Dispatcher: d},
		l:   l,
	}
}

// ListenAndServe blocks serving OSC packets; run it on its own goroutine.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// ForwardFeedback drains up to max feedback messages from l and transmits
// each as a /requestsample message to the producer-side client. It returns
// how many were forwarded.
func ForwardFeedback(l *link.Link, c *Client, max int) int {
	return l.DrainFeedback(max, func(f link.Feedback) {
		rs, ok := f.(link.RequestSample)
		if !ok {
			return
		}
		msg := osc.NewMessage(addrRequestSample)
		msg.Append(rs.Playback)
		msg.Append(rs.Req.Bank)
		msg.Append(rs.Req.Sound)
		msg.Append(int32(rs.Req.Index))
		msg.Append(rs.Req.Note)
		if err := c.osc.Send(msg); err != nil {
			log.Printf("osctransport: send requestsample: %v", err)
		}
	})
}
