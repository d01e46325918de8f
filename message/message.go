package message

import (
	"fmt"
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv6"
)

// Family selects which decoder applies to an inbound datagram.
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
)

func (f Family) String() string {
	if f == FamilyV6 {
		return "v6"
	}
	return "v4"
}

// Message is a two-variant envelope around a decoded DHCP message.
// Exactly one of V4/V6 is set.
type Message struct {
	V4 *dhcpv4.DHCPv4
	V6 *dhcpv6.Message
}

// Inbound is what the receiver worker forwards on the result channel.
type Inbound struct {
	Msg    Message
	Source *net.UDPAddr
}

func NewV4(m *dhcpv4.DHCPv4) Message {
	return Message{V4: m}
}

func NewV6(m *dhcpv6.Message) Message {
	return Message{V6: m}
}

func (m Message) Family() Family {
	if m.V6 != nil {
		return FamilyV6
	}
	return FamilyV4
}

// Encode serializes the message with the wire codec.
func (m Message) Encode() ([]byte, error) {
	switch {
	case m.V4 != nil:
		return m.V4.ToBytes(), nil
	case m.V6 != nil:
		return m.V6.ToBytes(), nil
	default:
		return nil, fmt.Errorf("message: empty envelope")
	}
}

// Decode parses a datagram with the decoder selected by the family hint.
func Decode(buf []byte, hint Family) (Message, error) {
	if hint == FamilyV6 {
		msg, err := dhcpv6.MessageFromBytes(buf)
		if err != nil {
			return Message{}, fmt.Errorf("decoding v6 message: %w", err)
		}
		return NewV6(msg), nil
	}
	msg, err := dhcpv4.FromBytes(buf)
	if err != nil {
		return Message{}, fmt.Errorf("decoding v4 message: %w", err)
	}
	return NewV4(msg), nil
}

// TypeName is the canonical name of the DHCP message type, for logs.
func (m Message) TypeName() string {
	switch {
	case m.V4 != nil:
		return m.V4.MessageType().String()
	case m.V6 != nil:
		return m.V6.Type().String()
	default:
		return "empty"
	}
}

// Summary is the codec's multi-line pretty printing of the full message.
func (m Message) Summary() string {
	switch {
	case m.V4 != nil:
		return m.V4.Summary()
	case m.V6 != nil:
		return m.V6.Summary()
	default:
		return "<empty message>"
	}
}
