package generator

import (
	"net"

	"github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/insomniacslk/dhcp/iana"

	"github.com/leshow/dhcpm/message"
)

// InfoReqSpec builds a DHCPv6 INFORMATION-REQUEST.
type InfoReqSpec struct {
	Chaddr net.HardwareAddr
	Params []dhcpv6.OptionCode
}

func (s *InfoReqSpec) Kind() string { return "inforeq" }

// DefaultParamsV6 is the option request sent when none is given:
// DNS servers, domain search list, SNTP servers, bootfile URL.
func DefaultParamsV6() []dhcpv6.OptionCode {
	return []dhcpv6.OptionCode{
		dhcpv6.OptionDNSRecursiveNameServer,
		dhcpv6.OptionDomainSearchList,
		dhcpv6.OptionCode(39),
		dhcpv6.OptionCode(59),
	}
}

func (s *InfoReqSpec) Build(broadcast bool) (message.Message, error) {
	if len(s.Chaddr) != 6 {
		return message.Message{}, errBadChaddr(len(s.Chaddr))
	}

	msg, err := dhcpv6.NewMessage()
	if err != nil {
		return message.Message{}, err
	}
	msg.MessageType = dhcpv6.MessageTypeInformationRequest

	duid := &dhcpv6.DUIDLL{
		HWType:        iana.HWTypeEthernet,
		LinkLayerAddr: s.Chaddr,
	}
	msg.AddOption(dhcpv6.OptClientID(duid))
	msg.AddOption(dhcpv6.OptRequestedOption(s.Params...))
	msg.AddOption(dhcpv6.OptElapsedTime(0))

	return message.NewV6(msg), nil
}
