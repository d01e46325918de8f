package generator

import (
	"testing"

	"github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInfoReqBuild(t *testing.T) {
	spec := &InfoReqSpec{
		Chaddr: testMAC(t),
		Params: DefaultParamsV6(),
	}

	msg, err := spec.Build(false)
	require.NoError(t, err)
	require.NotNil(t, msg.V6)
	assert.Nil(t, msg.V4)

	assert.Equal(t, dhcpv6.MessageTypeInformationRequest, msg.V6.MessageType)
	assert.NotNil(t, msg.V6.GetOneOption(dhcpv6.OptionClientID))
	assert.NotNil(t, msg.V6.GetOneOption(dhcpv6.OptionElapsedTime))

	oro := msg.V6.Options.RequestedOptions()
	assert.Contains(t, oro, dhcpv6.OptionDNSRecursiveNameServer)
	assert.Contains(t, oro, dhcpv6.OptionDomainSearchList)
}

func TestInfoReqRejectsBadChaddr(t *testing.T) {
	_, err := (&InfoReqSpec{Params: DefaultParamsV6()}).Build(false)
	assert.Error(t, err)
}

func TestInfoReqRoundTrip(t *testing.T) {
	spec := &InfoReqSpec{Chaddr: testMAC(t), Params: DefaultParamsV6()}

	msg, err := spec.Build(false)
	require.NoError(t, err)

	wire, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := dhcpv6.MessageFromBytes(wire)
	require.NoError(t, err)
	assert.Equal(t, dhcpv6.MessageTypeInformationRequest, decoded.MessageType)
	assert.Equal(t, msg.V6.TransactionID, decoded.TransactionID)
}
