package generator

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"strings"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/insomniacslk/dhcp/dhcpv6"
)

// ParseOption parses a raw option entry of the form
// "118,hex,C0A80001", "118,ip,192.168.0.1" or "60,str,android-dhcp".
func ParseOption(input string) (dhcpv4.Option, error) {
	parts := strings.SplitN(input, ",", 3)
	if len(parts) != 3 {
		return dhcpv4.Option{}, fmt.Errorf("option %q must be code,type,value", input)
	}

	code, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return dhcpv4.Option{}, fmt.Errorf("parsing option code %q: %w", parts[0], err)
	}

	var data []byte
	switch parts[1] {
	case "hex":
		data, err = hex.DecodeString(parts[2])
		if err != nil {
			return dhcpv4.Option{}, fmt.Errorf("decoding hex value %q: %w", parts[2], err)
		}
	case "ip":
		ip := net.ParseIP(parts[2])
		if ip == nil || ip.To4() == nil {
			return dhcpv4.Option{}, fmt.Errorf("decoding IP value %q failed", parts[2])
		}
		data = ip.To4()
	case "str":
		data = []byte(parts[2])
	default:
		return dhcpv4.Option{}, fmt.Errorf("unknown option value type %q: must be \"hex\", \"ip\" or \"str\"", parts[1])
	}

	return dhcpv4.OptGeneric(dhcpv4.GenericOptionCode(code), data), nil
}

// ParseOptions parses each entry of a repeated --opt flag.
func ParseOptions(inputs []string) ([]dhcpv4.Option, error) {
	opts := make([]dhcpv4.Option, 0, len(inputs))
	for _, in := range inputs {
		o, err := ParseOption(in)
		if err != nil {
			return nil, err
		}
		opts = append(opts, o)
	}
	return opts, nil
}

// ParseParams parses a comma-separated parameter request list, e.g. "1,3,6,15".
func ParseParams(params string) ([]dhcpv4.OptionCode, error) {
	var codes []dhcpv4.OptionCode
	for _, p := range strings.Split(params, ",") {
		code, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("parsing param code %q: %w", p, err)
		}
		codes = append(codes, dhcpv4.GenericOptionCode(code))
	}
	return codes, nil
}

// ParseParamsV6 parses a comma-separated v6 option request list, e.g. "23,24".
func ParseParamsV6(params string) ([]dhcpv6.OptionCode, error) {
	var codes []dhcpv6.OptionCode
	for _, p := range strings.Split(params, ",") {
		code, err := strconv.ParseUint(strings.TrimSpace(p), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("parsing param code %q: %w", p, err)
		}
		codes = append(codes, dhcpv6.OptionCode(code))
	}
	return codes, nil
}

// ParseMAC accepts "random", the usual colon/dash forms, or 12 bare hex
// digits ("aabbccddeeff").
func ParseMAC(s string) (net.HardwareAddr, error) {
	if s == "random" {
		return RandomMAC(), nil
	}
	if mac, err := net.ParseMAC(s); err == nil {
		if len(mac) != 6 {
			return nil, errBadChaddr(len(mac))
		}
		return mac, nil
	}
	if len(s) == 12 {
		var pairs []string
		for i := 0; i < 12; i += 2 {
			pairs = append(pairs, s[i:i+2])
		}
		mac, err := net.ParseMAC(strings.Join(pairs, ":"))
		if err == nil {
			return mac, nil
		}
	}
	return nil, fmt.Errorf("parsing MAC address %q failed", s)
}

// RandomMAC generates a random client hardware address.
func RandomMAC() net.HardwareAddr {
	mac := make(net.HardwareAddr, 6)
	for i := range mac {
		mac[i] = byte(rand.Intn(256))
	}
	// Clear the group bit so the address stays unicast, and set the
	// locally-administered bit.
	mac[0] = (mac[0] &^ 0x01) | 0x02
	return mac
}
