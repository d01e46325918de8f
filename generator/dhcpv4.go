package generator

import (
	"net"

	"github.com/insomniacslk/dhcp/dhcpv4"

	"github.com/leshow/dhcpm/message"
)

// DiscoverSpec builds a DISCOVER.
type DiscoverSpec struct {
	Chaddr       net.HardwareAddr
	Ciaddr       net.IP
	Giaddr       net.IP
	ReqAddr      net.IP
	RelayLink    net.IP
	SubnetSelect net.IP
	Opts         []dhcpv4.Option
	Params       []dhcpv4.OptionCode
}

func (s *DiscoverSpec) Kind() string { return "discover" }

func (s *DiscoverSpec) Build(broadcast bool) (message.Message, error) {
	return buildV4(v4Fields{
		mtype:        dhcpv4.MessageTypeDiscover,
		chaddr:       s.Chaddr,
		ciaddr:       s.Ciaddr,
		giaddr:       s.Giaddr,
		params:       s.Params,
		opts:         s.Opts,
		reqAddr:      s.ReqAddr,
		relayLink:    s.RelayLink,
		subnetSelect: s.SubnetSelect,
	}, broadcast)
}

// RequestSpec builds a REQUEST.
type RequestSpec struct {
	Chaddr       net.HardwareAddr
	Ciaddr       net.IP
	Yiaddr       net.IP
	Giaddr       net.IP
	Sident       net.IP
	ReqAddr      net.IP
	RelayLink    net.IP
	SubnetSelect net.IP
	Opts         []dhcpv4.Option
	Params       []dhcpv4.OptionCode
}

func (s *RequestSpec) Kind() string { return "request" }

func (s *RequestSpec) Build(broadcast bool) (message.Message, error) {
	return buildV4(v4Fields{
		mtype:        dhcpv4.MessageTypeRequest,
		chaddr:       s.Chaddr,
		ciaddr:       s.Ciaddr,
		yiaddr:       s.Yiaddr,
		giaddr:       s.Giaddr,
		params:       s.Params,
		opts:         s.Opts,
		sident:       s.Sident,
		reqAddr:      s.ReqAddr,
		relayLink:    s.RelayLink,
		subnetSelect: s.SubnetSelect,
	}, broadcast)
}

// ReleaseSpec builds a RELEASE.
type ReleaseSpec struct {
	Chaddr       net.HardwareAddr
	Ciaddr       net.IP
	Yiaddr       net.IP
	Giaddr       net.IP
	Sident       net.IP
	RelayLink    net.IP
	SubnetSelect net.IP
	Opts         []dhcpv4.Option
	Params       []dhcpv4.OptionCode
}

func (s *ReleaseSpec) Kind() string { return "release" }

func (s *ReleaseSpec) Build(broadcast bool) (message.Message, error) {
	return buildV4(v4Fields{
		mtype:        dhcpv4.MessageTypeRelease,
		chaddr:       s.Chaddr,
		ciaddr:       s.Ciaddr,
		yiaddr:       s.Yiaddr,
		giaddr:       s.Giaddr,
		params:       s.Params,
		opts:         s.Opts,
		sident:       s.Sident,
		relayLink:    s.RelayLink,
		subnetSelect: s.SubnetSelect,
	}, broadcast)
}

// InformSpec builds an INFORM.
type InformSpec struct {
	Chaddr       net.HardwareAddr
	Ciaddr       net.IP
	Yiaddr       net.IP
	Giaddr       net.IP
	Sident       net.IP
	RelayLink    net.IP
	SubnetSelect net.IP
	Opts         []dhcpv4.Option
	Params       []dhcpv4.OptionCode
}

func (s *InformSpec) Kind() string { return "inform" }

func (s *InformSpec) Build(broadcast bool) (message.Message, error) {
	return buildV4(v4Fields{
		mtype:        dhcpv4.MessageTypeInform,
		chaddr:       s.Chaddr,
		ciaddr:       s.Ciaddr,
		yiaddr:       s.Yiaddr,
		giaddr:       s.Giaddr,
		params:       s.Params,
		opts:         s.Opts,
		sident:       s.Sident,
		relayLink:    s.RelayLink,
		subnetSelect: s.SubnetSelect,
	}, broadcast)
}

// DeclineSpec builds a DECLINE for an address the client is refusing.
type DeclineSpec struct {
	Chaddr  net.HardwareAddr
	Ciaddr  net.IP
	Giaddr  net.IP
	Sident  net.IP
	ReqAddr net.IP
	Opts    []dhcpv4.Option
	Params  []dhcpv4.OptionCode
}

func (s *DeclineSpec) Kind() string { return "decline" }

func (s *DeclineSpec) Build(broadcast bool) (message.Message, error) {
	return buildV4(v4Fields{
		mtype:   dhcpv4.MessageTypeDecline,
		chaddr:  s.Chaddr,
		ciaddr:  s.Ciaddr,
		giaddr:  s.Giaddr,
		params:  s.Params,
		opts:    s.Opts,
		sident:  s.Sident,
		reqAddr: s.ReqAddr,
	}, broadcast)
}

// BootReqSpec builds a bare BOOTREQUEST: header fields, fname/sname and
// raw options only, no automatic DHCP options.
type BootReqSpec struct {
	Chaddr net.HardwareAddr
	Ciaddr net.IP
	Giaddr net.IP
	Fname  string
	Sname  string
	Opts   []dhcpv4.Option
}

func (s *BootReqSpec) Kind() string { return "bootreq" }

func (s *BootReqSpec) Build(broadcast bool) (message.Message, error) {
	if len(s.Chaddr) != 6 {
		return message.Message{}, errBadChaddr(len(s.Chaddr))
	}

	msg, err := dhcpv4.New()
	if err != nil {
		return message.Message{}, err
	}

	msg.ClientHWAddr = s.Chaddr
	msg.ClientIPAddr = ipOrZero(s.Ciaddr)
	msg.GatewayIPAddr = ipOrZero(s.Giaddr)

	if broadcast {
		msg.SetBroadcast()
	}
	if s.Fname != "" {
		msg.BootFileName = s.Fname
	}
	if s.Sname != "" {
		msg.ServerHostName = s.Sname
	}

	// dhcpv4.New inserts a message type; a plain BOOTP request carries
	// none, so clear the option set before the user opts go in.
	msg.Options = dhcpv4.Options{}
	for _, o := range s.Opts {
		msg.UpdateOption(o)
	}

	return message.NewV4(msg), nil
}

// DoraSpec is never built directly: it projects to a Discover spec and,
// once an offer is in hand, to a Request spec.
type DoraSpec struct {
	Chaddr       net.HardwareAddr
	Ciaddr       net.IP
	Yiaddr       net.IP
	Giaddr       net.IP
	ReqAddr      net.IP
	RelayLink    net.IP
	SubnetSelect net.IP
	Opts         []dhcpv4.Option
	Params       []dhcpv4.OptionCode
}

func (s *DoraSpec) Kind() string { return "dora" }

func (s *DoraSpec) Build(broadcast bool) (message.Message, error) {
	return s.AsDiscover().Build(broadcast)
}

func (s *DoraSpec) AsDiscover() *DiscoverSpec {
	return &DiscoverSpec{
		Chaddr:       s.Chaddr,
		Ciaddr:       s.Ciaddr,
		Giaddr:       s.Giaddr,
		ReqAddr:      s.ReqAddr,
		RelayLink:    s.RelayLink,
		SubnetSelect: s.SubnetSelect,
		Opts:         s.Opts,
		Params:       s.Params,
	}
}

// AsRequest projects to the follow-up Request; the requested address is
// always the offered one, whatever the original spec carried.
func (s *DoraSpec) AsRequest(offered net.IP) *RequestSpec {
	return &RequestSpec{
		Chaddr:       s.Chaddr,
		Ciaddr:       s.Ciaddr,
		Yiaddr:       s.Yiaddr,
		Giaddr:       s.Giaddr,
		ReqAddr:      offered,
		RelayLink:    s.RelayLink,
		SubnetSelect: s.SubnetSelect,
		Opts:         s.Opts,
		Params:       s.Params,
	}
}
