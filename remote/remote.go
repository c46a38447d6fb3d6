// Package remote is the OSC remote control of the sampler. The first
// controller that pings the server is remembered and receives the replies
// on its remote port.
package remote

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/discordance/phrase-sampler/config"
	"github.com/discordance/phrase-sampler/control"
	"github.com/discordance/phrase-sampler/log"
	"github.com/discordance/phrase-sampler/slicer"
)

// OSC addresses.
const (
	AddressPing         = "/smplr/ping"
	AddressPingBack     = "/smplr/ping_back"
	AddressGetConfig    = "/smplr/get_config"
	AddressSetConfig    = "/smplr/set_config"
	AddressVolume       = "/smplr/track/volume"
	AddressPan          = "/smplr/track/pan"
	AddressLoopDiv      = "/smplr/track/loop_div"
	AddressPlaybackMult = "/smplr/track/playback_mult"
	AddressNextSample   = "/smplr/track/next_sample"
	AddressPrevSample   = "/smplr/track/prev_sample"
	AddressTransform    = "/smplr/track/slicer/transform"
	AddressRepeat       = "/smplr/track/slicer/repeat"
)

// maxPacketSize is the largest UDP payload.
const maxPacketSize = 65507

// ErrNoController is returned when a reply is due before any ping.
var ErrNoController = errors.New("no remote controller")

// Server receives OSC packets and offers the decoded commands.
type Server struct {
	conn       net.PacketConn
	sender     control.Sender
	conf       *config.Config
	remotePort int
	log        log.Logger

	mu     sync.Mutex
	remote net.Addr
	done   chan struct{}
}

// Listen binds the UDP address and starts serving.
func Listen(address string, s control.Sender, conf *config.Config, l log.Logger) (*Server, error) {
	if l == nil {
		l = log.Silent
	}
	conn, err := net.ListenPacket("udp", address)
	if err != nil {
		return nil, fmt.Errorf("osc listen %v: %w", address, err)
	}
	srv := &Server{
		conn:       conn,
		sender:     s,
		conf:       conf,
		remotePort: conf.OSC.RemotePort,
		log:        l,
		done:       make(chan struct{}),
	}
	go srv.serve()
	l.Info(fmt.Sprintf("osc: listening to %v", conn.LocalAddr()))
	return srv, nil
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

// Remote returns the controller address, nil until the first ping.
func (s *Server) Remote() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remote
}

// Close stops serving and releases the socket.
func (s *Server) Close() error {
	err := s.conn.Close()
	<-s.done
	return err
}

func (s *Server) serve() {
	defer close(s.done)
	buf := make([]byte, maxPacketSize)
	for {
		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Temporary() {
				continue
			}
			return
		}
		packet, err := osc.ParsePacket(string(buf[:n]))
		if err != nil {
			s.log.Debug(fmt.Sprintf("osc: bad packet from %v: %v", from, err))
			continue
		}
		s.handlePacket(packet, from)
	}
}

func (s *Server) handlePacket(p osc.Packet, from net.Addr) {
	switch v := p.(type) {
	case *osc.Message:
		s.handle(v, from)
	case *osc.Bundle:
		for _, m := range v.Messages {
			s.handle(m, from)
		}
		for _, b := range v.Bundles {
			s.handlePacket(b, from)
		}
	}
}

func (s *Server) handle(msg *osc.Message, from net.Addr) {
	var err error
	switch msg.Address {
	case AddressPing:
		err = s.ping(msg, from)
	case AddressGetConfig:
		err = s.sendConfig()
	default:
		m, ok := Decode(msg)
		if !ok {
			s.log.Info(fmt.Sprintf("osc: unimplemented address %v %v", msg.Address, msg.Arguments))
			return
		}
		if !s.sender.Offer(m) {
			s.log.Debug(fmt.Sprintf("osc: dropped %v", m))
		}
	}
	if err != nil {
		s.log.Info(fmt.Sprintf("osc: %v: %v", msg.Address, err))
	}
}

func (s *Server) ping(msg *osc.Message, from net.Addr) error {
	r, ok := argInt(msg, 0)
	if !ok {
		return fmt.Errorf("incorrect ping %v", msg.Arguments)
	}
	s.mu.Lock()
	if s.remote == nil {
		if udp, ok := from.(*net.UDPAddr); ok {
			s.remote = &net.UDPAddr{IP: udp.IP, Port: s.remotePort, Zone: udp.Zone}
		}
	}
	s.mu.Unlock()
	return s.send(osc.NewMessage(AddressPingBack, r))
}

func (s *Server) sendConfig() error {
	conf, err := s.conf.JSON()
	if err != nil {
		return err
	}
	return s.send(osc.NewMessage(AddressSetConfig, conf))
}

func (s *Server) send(msg *osc.Message) error {
	remote := s.Remote()
	if remote == nil {
		return ErrNoController
	}
	data, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = s.conn.WriteTo(data, remote)
	return err
}

// Decode translates a track message into a command.
func Decode(msg *osc.Message) (control.Message, bool) {
	track, ok := argInt(msg, 0)
	if !ok || track < 0 {
		return nil, false
	}
	n := int(track)
	switch msg.Address {
	case AddressVolume:
		if v, ok := argFloat(msg, 1); ok {
			return control.Volume{TrackNum: n, Value: v}, true
		}
	case AddressPan:
		if v, ok := argFloat(msg, 1); ok {
			return control.Pan{TrackNum: n, Value: v}, true
		}
	case AddressLoopDiv:
		if v, ok := argInt(msg, 1); ok && v > 0 {
			return control.LoopDiv{TrackNum: n, Value: uint64(v)}, true
		}
	case AddressPlaybackMult:
		if v, ok := argInt(msg, 1); ok && v > 0 {
			return control.PlaybackMult{TrackNum: n, Value: uint64(v)}, true
		}
	case AddressNextSample:
		return control.NextSample{TrackNum: n}, true
	case AddressPrevSample:
		return control.PrevSample{TrackNum: n}, true
	case AddressTransform:
		name, _ := arg(msg, 1).(string)
		switch name {
		case slicer.Reset.String():
			return control.Slicer{TrackNum: n, Transform: slicer.ResetTransform()}, true
		case slicer.RandSwap.String():
			return control.Slicer{TrackNum: n, Transform: slicer.RandSwapTransform()}, true
		}
	case AddressRepeat:
		// the slice is captured by the sequencer when the command is applied
		if q, ok := argInt(msg, 1); ok && q > 0 {
			return control.Slicer{TrackNum: n, Transform: slicer.QuantRepeatTransform(int(q), 0)}, true
		}
	}
	return nil, false
}

func arg(msg *osc.Message, i int) interface{} {
	if i >= len(msg.Arguments) {
		return nil
	}
	return msg.Arguments[i]
}

func argInt(msg *osc.Message, i int) (int32, bool) {
	switch v := arg(msg, i).(type) {
	case int32:
		return v, true
	case int64:
		return int32(v), true
	}
	return 0, false
}

func argFloat(msg *osc.Message, i int) (float32, bool) {
	switch v := arg(msg, i).(type) {
	case float32:
		return v, true
	case float64:
		return float32(v), true
	}
	return 0, false
}
