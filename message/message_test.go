package message

import (
	"testing"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyString(t *testing.T) {
	assert.Equal(t, "v4", FamilyV4.String())
	assert.Equal(t, "v6", FamilyV6.String())
}

func TestV4RoundTrip(t *testing.T) {
	orig, err := dhcpv4.New()
	require.NoError(t, err)
	orig.UpdateOption(dhcpv4.OptMessageType(dhcpv4.MessageTypeDiscover))

	msg := NewV4(orig)
	assert.Equal(t, FamilyV4, msg.Family())

	wire, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := Decode(wire, FamilyV4)
	require.NoError(t, err)
	require.NotNil(t, decoded.V4)
	assert.Equal(t, orig.TransactionID, decoded.V4.TransactionID)
	assert.Equal(t, "DISCOVER", decoded.TypeName())
}

func TestV6RoundTrip(t *testing.T) {
	orig, err := dhcpv6.NewMessage()
	require.NoError(t, err)
	orig.MessageType = dhcpv6.MessageTypeInformationRequest

	msg := NewV6(orig)
	assert.Equal(t, FamilyV6, msg.Family())

	wire, err := msg.Encode()
	require.NoError(t, err)

	decoded, err := Decode(wire, FamilyV6)
	require.NoError(t, err)
	require.NotNil(t, decoded.V6)
	assert.Equal(t, orig.TransactionID, decoded.V6.TransactionID)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff}, FamilyV4)
	assert.Error(t, err)

	_, err = Decode(nil, FamilyV6)
	assert.Error(t, err)
}

func TestEmptyEnvelope(t *testing.T) {
	var empty Message
	_, err := empty.Encode()
	assert.Error(t, err)
	assert.Equal(t, "empty", empty.TypeName())
}
