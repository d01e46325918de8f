package socketeer

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"

	"github.com/leshow/dhcpm/config"
	"github.com/leshow/dhcpm/message"
	"github.com/leshow/dhcpm/stats"
)

// resultSendTimeout bounds how long the listener waits to hand a decoded
// reply to the runner before dropping it.
const resultSendTimeout = 1 * time.Second

// Target is a resolved destination address plus the broadcast/multicast
// flag derived from it.
type Target struct {
	Addr      *net.UDPAddr
	Broadcast bool
}

func (t Target) String() string {
	return t.Addr.String()
}

// NewTarget classifies a destination. The flag is true iff the address
// is the v4 all-ones broadcast, a v4 address ending in .255, or a v6
// multicast address.
func NewTarget(ip net.IP, port int) Target {
	broadcast := false
	if ip4 := ip.To4(); ip4 != nil {
		broadcast = ip4.Equal(net.IPv4bcast) || ip4[3] == 255
	} else if ip.IsMulticast() {
		broadcast = true
	}
	return Target{
		Addr:      &net.UDPAddr{IP: ip, Port: port},
		Broadcast: broadcast,
	}
}

// Outbound pairs a built message with its resolved target for the
// sender worker.
type Outbound struct {
	Msg    message.Message
	Target Target
}

// UDPSocketeer owns the shared UDP socket and runs the sender and
// receiver workers. The workers live for the lifetime of the socket and
// are stopped through channel closure, not joined directly.
type UDPSocketeer struct {
	conn    *net.UDPConn
	options *config.SocketeerOptions

	log     *zap.Logger
	addStat func(stats.StatValue) bool

	outboundChannel chan Outbound
	resultChannel   chan message.Inbound
	finishChannel   chan struct{}
	doneChannel     chan struct{}

	mu           sync.Mutex
	broadcastSet bool
	joined       map[string]bool
}

func New(o *config.SocketeerOptions, log *zap.Logger, statFunc func(stats.StatValue) bool) *UDPSocketeer {
	return &UDPSocketeer{
		options:         o,
		log:             log,
		addStat:         statFunc,
		outboundChannel: make(chan Outbound, 1),
		resultChannel:   make(chan message.Inbound, 1),
		finishChannel:   make(chan struct{}, 1),
		doneChannel:     make(chan struct{}),
		joined:          make(map[string]bool),
	}
}

// Init binds the socket and applies one-time device configuration.
// A v6 target without an interface is a configuration error: v6 sends
// need an explicit interface for scope resolution.
func (s *UDPSocketeer) Init() error {
	if s.options.V6 && s.options.InterfaceName == "" {
		return errors.New("an interface is required for IPv6 targets (use --interface)")
	}

	var err error
	if s.conn, err = net.ListenUDP("udp", s.options.Bind); err != nil {
		return fmt.Errorf("binding %v: %w", s.options.Bind, err)
	}

	if s.options.InterfaceName != "" {
		if err = s.bindToDevice(s.options.InterfaceName); err != nil {
			return fmt.Errorf("binding to device %q: %w", s.options.InterfaceName, err)
		}
	}

	return nil
}

func (s *UDPSocketeer) DeInit() error {
	return s.conn.Close()
}

// LocalAddr reports the bound address, useful when binding to port 0.
func (s *UDPSocketeer) LocalAddr() *net.UDPAddr {
	return s.conn.LocalAddr().(*net.UDPAddr)
}

// Results is the bounded channel the receiver worker delivers decoded
// replies on.
func (s *UDPSocketeer) Results() <-chan message.Inbound {
	return s.resultChannel
}

// ResolveTarget classifies the destination and applies any required
// socket configuration: broadcast option for v4 broadcast-like targets,
// multicast group membership for v6 multicast targets. Both side
// effects are idempotent per socket.
func (s *UDPSocketeer) ResolveTarget(ip net.IP, port int) (Target, error) {
	t := NewTarget(ip, port)
	if !t.Broadcast {
		return t, nil
	}

	if ip.To4() != nil {
		if err := s.ensureBroadcast(); err != nil {
			return Target{}, fmt.Errorf("enabling broadcast: %w", err)
		}
		return t, nil
	}

	if err := s.joinGroup(ip); err != nil {
		return Target{}, fmt.Errorf("joining multicast group %v: %w", ip, err)
	}
	return t, nil
}

func (s *UDPSocketeer) ensureBroadcast() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broadcastSet {
		return nil
	}

	rc, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	if err = rc.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	if serr != nil {
		return serr
	}

	s.broadcastSet = true
	return nil
}

func (s *UDPSocketeer) joinGroup(group net.IP) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.joined[group.String()] {
		return nil
	}

	iface, err := net.InterfaceByName(s.options.InterfaceName)
	if err != nil {
		return err
	}

	if err := ipv6.NewPacketConn(s.conn).JoinGroup(iface, &net.UDPAddr{IP: group}); err != nil {
		return err
	}

	s.joined[group.String()] = true
	return nil
}

func (s *UDPSocketeer) bindToDevice(name string) error {
	rc, err := s.conn.SyscallConn()
	if err != nil {
		return err
	}
	var serr error
	if err = rc.Control(func(fd uintptr) {
		serr = unix.BindToDevice(int(fd), name)
	}); err != nil {
		return err
	}
	return serr
}

// RunWriter drains the outbound queue, encodes and transmits each
// message. It stops when the queue is closed; that is the normal
// shutdown path, not an error.
func (s *UDPSocketeer) RunWriter() {
	for out := range s.outboundChannel {
		// Last-mile flag in case the producer skipped ResolveTarget.
		if out.Target.Broadcast && out.Target.Addr.IP.To4() != nil {
			if err := s.ensureBroadcast(); err != nil {
				s.log.Error("enabling broadcast before send", zap.Error(err))
			}
		}

		payload, err := out.Msg.Encode()
		if err != nil {
			s.log.Error("encoding message", zap.Error(err))
			s.addStat(stats.SendErrorsStat)
			continue
		}

		s.log.Info("sending msg",
			zap.String("msg_type", out.Msg.TypeName()),
			zap.Stringer("target", out.Target),
			zap.String("msg", out.Msg.Summary()),
		)

		if _, err = s.conn.WriteToUDP(payload, out.Target.Addr); err != nil {
			s.log.Error("error sending", zap.Error(err))
			s.addStat(stats.SendErrorsStat)
			continue
		}
		s.addStat(stats.MessagesSentStat)
	}
}

// RunListener blocks on socket receive, decodes each datagram and
// forwards it on the bounded result channel. Decode failures are logged
// and skipped; a full result channel drops the reply after a short wait
// rather than blocking the socket.
func (s *UDPSocketeer) RunListener() {
	family := message.FamilyV4
	if s.options.V6 {
		family = message.FamilyV6
	}

	data := make([]byte, 4096)

	for {
		select {
		case <-s.finishChannel:
			close(s.doneChannel)
			return
		default:
		}

		n, src, err := s.conn.ReadFromUDP(data)
		if err != nil {
			// A closed socket lands here; the finish check above
			// exits on the next pass.
			if !errors.Is(err, net.ErrClosed) {
				s.log.Error("could not receive", zap.Error(err))
			}
			continue
		}

		msg, err := message.Decode(data[:n], family)
		if err != nil {
			s.log.Error("dropping undecodable datagram",
				zap.Stringer("source", src),
				zap.Error(err),
			)
			s.addStat(stats.DecodeErrorsStat)
			continue
		}

		in := message.Inbound{Msg: msg, Source: src}

		select {
		case s.resultChannel <- in:
			s.addStat(stats.RepliesReceivedStat)
		case <-time.After(resultSendTimeout):
			s.log.Warn("result queue full, dropping reply",
				zap.String("msg_type", msg.TypeName()),
				zap.Stringer("source", src),
			)
			s.addStat(stats.RepliesDroppedStat)
		}
	}
}

// AddPayload enqueues a message for the sender worker.
func (s *UDPSocketeer) AddPayload(out Outbound) bool {
	s.outboundChannel <- out
	return true
}

// StopListener closes the socket to unblock the receive call, then
// waits for the listener to acknowledge.
func (s *UDPSocketeer) StopListener() error {
	err := s.conn.Close()

	s.finishChannel <- struct{}{}
	<-s.doneChannel

	return err
}

// StopWriter closes the outbound queue; the writer drains and exits.
func (s *UDPSocketeer) StopWriter() error {
	close(s.outboundChannel)
	return nil
}
