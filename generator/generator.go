package generator

import (
	"fmt"
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/leshow/dhcpm/message"
)

// Spec is a fully-parsed request specification. Build is deterministic
// aside from the transaction id and may be called once per send attempt.
type Spec interface {
	Build(broadcast bool) (message.Message, error)
	Kind() string
}

// Relay-agent-information (opt 82) link selection sub-option, RFC 3527.
// Subnet selection option, RFC 3011.
const (
	linkSelectionSubOption = dhcpv4.GenericOptionCode(5)
	subnetSelectionOption  = dhcpv4.GenericOptionCode(118)
)

// DefaultParams is the parameter request list sent when none is given:
// subnet mask, router, DNS server, domain name.
func DefaultParams() []dhcpv4.OptionCode {
	return []dhcpv4.OptionCode{
		dhcpv4.OptionSubnetMask,
		dhcpv4.OptionRouter,
		dhcpv4.OptionDomainNameServer,
		dhcpv4.OptionDomainName,
	}
}

// v4Fields is the common material every v4 variant assembles into a
// message. Optional IPs are nil when absent.
type v4Fields struct {
	mtype        dhcpv4.MessageType
	chaddr       net.HardwareAddr
	ciaddr       net.IP
	yiaddr       net.IP
	giaddr       net.IP
	params       []dhcpv4.OptionCode
	opts         []dhcpv4.Option
	sident       net.IP
	reqAddr      net.IP
	relayLink    net.IP
	subnetSelect net.IP
}

// buildV4 assembles a v4 message in a fixed order: header fields, then
// the automatic options (type, client id, param list), then user opts
// (later writes win by option code), then the optional named options.
func buildV4(f v4Fields, broadcast bool) (message.Message, error) {
	if len(f.chaddr) != 6 {
		return message.Message{}, errBadChaddr(len(f.chaddr))
	}

	msg, err := dhcpv4.New()
	if err != nil {
		return message.Message{}, fmt.Errorf("creating v4 message: %w", err)
	}

	msg.ClientHWAddr = f.chaddr
	msg.ClientIPAddr = ipOrZero(f.ciaddr)
	msg.YourIPAddr = ipOrZero(f.yiaddr)
	msg.GatewayIPAddr = ipOrZero(f.giaddr)

	if broadcast {
		msg.SetBroadcast()
	}

	msg.UpdateOption(dhcpv4.OptMessageType(f.mtype))
	msg.UpdateOption(dhcpv4.OptGeneric(dhcpv4.OptionClientIdentifier, f.chaddr))
	msg.UpdateOption(dhcpv4.OptParameterRequestList(f.params...))

	for _, o := range f.opts {
		msg.UpdateOption(o)
	}

	if f.sident != nil {
		msg.UpdateOption(dhcpv4.OptServerIdentifier(f.sident))
	}
	if f.reqAddr != nil {
		msg.UpdateOption(dhcpv4.OptRequestedIPAddress(f.reqAddr))
	}
	if f.relayLink != nil {
		msg.UpdateOption(dhcpv4.OptRelayAgentInfo(
			dhcpv4.OptGeneric(linkSelectionSubOption, f.relayLink.To4()),
		))
	}
	if f.subnetSelect != nil {
		msg.UpdateOption(dhcpv4.OptGeneric(subnetSelectionOption, f.subnetSelect.To4()))
	}

	return message.NewV4(msg), nil
}

func errBadChaddr(n int) error {
	return fmt.Errorf("hardware address must be 6 bytes, got %d", n)
}

func ipOrZero(ip net.IP) net.IP {
	if ip == nil {
		return net.IPv4zero
	}
	return ip
}
