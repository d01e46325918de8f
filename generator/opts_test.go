package generator

import (
	"testing"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOption(t *testing.T) {
	cases := []struct {
		input string
		code  uint8
		data  []byte
	}{
		{"118,hex,C0A80001", 118, []byte{0xc0, 0xa8, 0x00, 0x01}},
		{"118,ip,192.168.0.1", 118, []byte{192, 168, 0, 1}},
		{"60,str,android-dhcp-9", 60, []byte("android-dhcp-9")},
	}

	for _, c := range cases {
		t.Run(c.input, func(t *testing.T) {
			opt, err := ParseOption(c.input)
			require.NoError(t, err)
			assert.Equal(t, uint8(c.code), opt.Code.Code())
			assert.Equal(t, c.data, opt.Value.ToBytes())
		})
	}
}

func TestParseOptionErrors(t *testing.T) {
	for _, input := range []string{
		"",
		"118",
		"118,hex",
		"118,hex,zz",
		"118,ip,not-an-ip",
		"118,ip,::1",
		"118,bogus,value",
		"300,hex,00",
		"abc,hex,00",
	} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseOption(input)
			assert.Error(t, err)
		})
	}
}

func TestParseOptionsStopsAtFirstError(t *testing.T) {
	opts, err := ParseOptions([]string{"60,str,ok", "bad"})
	assert.Error(t, err)
	assert.Nil(t, opts)

	opts, err = ParseOptions(nil)
	require.NoError(t, err)
	assert.Empty(t, opts)
}

func TestParseParams(t *testing.T) {
	codes, err := ParseParams("1,3, 6,15")
	require.NoError(t, err)
	assert.Equal(t, []dhcpv4.OptionCode{
		dhcpv4.GenericOptionCode(1),
		dhcpv4.GenericOptionCode(3),
		dhcpv4.GenericOptionCode(6),
		dhcpv4.GenericOptionCode(15),
	}, codes)

	_, err = ParseParams("1,x")
	assert.Error(t, err)

	_, err = ParseParams("256")
	assert.Error(t, err)
}

func TestParseParamsV6(t *testing.T) {
	codes, err := ParseParamsV6("23,24")
	require.NoError(t, err)
	assert.Equal(t, []dhcpv6.OptionCode{
		dhcpv6.OptionDNSRecursiveNameServer,
		dhcpv6.OptionDomainSearchList,
	}, codes)

	_, err = ParseParamsV6("23,oops")
	assert.Error(t, err)
}

func TestParseMAC(t *testing.T) {
	want := "de:ad:be:ef:00:01"

	for _, input := range []string{
		"de:ad:be:ef:00:01",
		"de-ad-be-ef-00-01",
		"deadbeef0001",
	} {
		mac, err := ParseMAC(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, mac.String(), input)
	}

	_, err := ParseMAC("not-a-mac")
	assert.Error(t, err)

	// EUI-64 parses but is the wrong length for chaddr.
	_, err = ParseMAC("02:00:5e:10:00:00:00:01")
	assert.Error(t, err)
}

func TestRandomMAC(t *testing.T) {
	mac, err := ParseMAC("random")
	require.NoError(t, err)
	require.Len(t, mac, 6)

	assert.Zero(t, mac[0]&0x01, "random mac must be unicast")
	assert.NotZero(t, mac[0]&0x02, "random mac must be locally administered")
}
