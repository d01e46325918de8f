package cmd

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/spf13/cobra"
	"github.com/vishvananda/netlink"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leshow/dhcpm/config"
	"github.com/leshow/dhcpm/generator"
	"github.com/leshow/dhcpm/runner"
	"github.com/leshow/dhcpm/socketeer"
	"github.com/leshow/dhcpm/stats"
)

// exchange bundles everything one invocation needs: the shared socket,
// its two workers, the runner, and the counters.
type exchange struct {
	log    *zap.Logger
	sock   *socketeer.UDPSocketeer
	run    *runner.Runner
	target socketeer.Target
	stats  *stats.ExchangeStats
	wg     sync.WaitGroup
}

// newExchange parses the shared flags, binds the socket, starts the
// sender and receiver workers, and wires the runner to them.
func newExchange(cmd *cobra.Command, targetArg string) (*exchange, error) {
	target := net.ParseIP(targetArg)
	if target == nil {
		return nil, fmt.Errorf("invalid target address %q", targetArg)
	}
	v6 := target.To4() == nil

	flags := cmd.Flags()
	port, err := flags.GetInt("port")
	if err != nil {
		return nil, err
	}
	bindFlag, err := flags.GetString("bind")
	if err != nil {
		return nil, err
	}
	timeoutSecs, err := flags.GetUint("timeout")
	if err != nil {
		return nil, err
	}
	noRetry, err := flags.GetBool("no-retry")
	if err != nil {
		return nil, err
	}
	ifaceName, err := flags.GetString("interface")
	if err != nil {
		return nil, err
	}
	output, err := flags.GetString("output")
	if err != nil {
		return nil, err
	}

	log, err := newLogger(output)
	if err != nil {
		return nil, err
	}

	defaultPort := port == 0
	if defaultPort {
		if v6 {
			port = 546
		} else {
			port = 67
		}
	}

	bind, err := bindAddr(bindFlag, v6, defaultPort)
	if err != nil {
		return nil, err
	}

	st := stats.New()

	sock := socketeer.New(&config.SocketeerOptions{
		Bind:          bind,
		InterfaceName: ifaceName,
		V6:            v6,
	}, log, st.AddStat)

	if err = sock.Init(); err != nil {
		return nil, err
	}

	resolved, err := sock.ResolveTarget(target, port)
	if err != nil {
		return nil, err
	}

	e := &exchange{
		log:    log,
		sock:   sock,
		target: resolved,
		stats:  st,
	}

	e.wg.Add(1)
	go func() {
		e.sock.RunWriter()
		e.wg.Done()
	}()
	e.wg.Add(1)
	go func() {
		e.sock.RunListener()
		e.wg.Done()
	}()

	e.run = runner.New(&config.RunnerOptions{
		Target:     target,
		Port:       port,
		Timeout:    time.Duration(timeoutSecs) * time.Second,
		MaxRetries: runner.DefaultMaxRetries,
		NoRetry:    noRetry,
	}, log, sock.AddPayload, sock.Results(), shutdownChannel, st.AddStat)

	return e, nil
}

// Close stops both workers and reports the exchange counters.
func (e *exchange) Close() {
	if err := e.sock.StopWriter(); err != nil {
		e.log.Error("stopping writer", zap.Error(err))
	}
	if err := e.sock.StopListener(); err != nil && !errors.Is(err, net.ErrClosed) {
		e.log.Error("stopping listener", zap.Error(err))
	}
	e.wg.Wait()
	e.log.Info("exchange finished", zap.String("stats", e.stats.String()))
	_ = e.log.Sync()
}

// bindAddr mirrors the historical defaults: the well-known client port
// when the target port is also defaulted, an ephemeral port otherwise.
func bindAddr(flag string, v6, defaultPort bool) (*net.UDPAddr, error) {
	if flag != "" {
		addr, err := net.ResolveUDPAddr("udp", flag)
		if err != nil {
			return nil, fmt.Errorf("invalid bind address %q: %w", flag, err)
		}
		return addr, nil
	}
	switch {
	case v6 && defaultPort:
		return &net.UDPAddr{IP: net.IPv6unspecified, Port: 547}, nil
	case v6:
		return &net.UDPAddr{IP: net.IPv6unspecified, Port: 0}, nil
	case defaultPort:
		return &net.UDPAddr{IP: net.IPv4zero, Port: 68}, nil
	default:
		return &net.UDPAddr{IP: net.IPv4zero, Port: 0}, nil
	}
}

func newLogger(output string) (*zap.Logger, error) {
	switch output {
	case "json":
		return zap.NewProduction()
	case "debug":
		return zap.NewDevelopment()
	case "pretty":
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
		return cfg.Build()
	default:
		return nil, fmt.Errorf("unknown log output %q: must be \"pretty\", \"json\" or \"debug\"", output)
	}
}

// chaddrFlag resolves the --chaddr flag, falling back to the first
// usable interface MAC when none is given.
func chaddrFlag(cmd *cobra.Command) (net.HardwareAddr, error) {
	s, err := cmd.Flags().GetString("chaddr")
	if err != nil {
		return nil, err
	}
	if s == "" {
		return firstMAC()
	}
	return generator.ParseMAC(s)
}

// firstMAC returns the hardware address of the first up, non-loopback
// link.
func firstMAC() (net.HardwareAddr, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	for _, link := range links {
		attrs := link.Attrs()
		if attrs.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(attrs.HardwareAddr) == 6 {
			return attrs.HardwareAddr, nil
		}
	}
	return nil, errors.New("no usable interface MAC found; pass --chaddr")
}

// ipFlag parses an optional IPv4 flag; empty means absent (nil).
func ipFlag(cmd *cobra.Command, name string) (net.IP, error) {
	s, err := cmd.Flags().GetString(name)
	if err != nil {
		return nil, err
	}
	if s == "" {
		return nil, nil
	}
	ip := net.ParseIP(s)
	if ip == nil || ip.To4() == nil {
		return nil, fmt.Errorf("invalid IPv4 address %q for --%s", s, name)
	}
	return ip.To4(), nil
}

// optsFlag parses the repeated --opt entries.
func optsFlag(cmd *cobra.Command) ([]dhcpv4.Option, error) {
	raw, err := cmd.Flags().GetStringArray("opt")
	if err != nil {
		return nil, err
	}
	return generator.ParseOptions(raw)
}

// paramsFlag parses --params, defaulting to the canonical small set.
func paramsFlag(cmd *cobra.Command) ([]dhcpv4.OptionCode, error) {
	s, err := cmd.Flags().GetString("params")
	if err != nil {
		return nil, err
	}
	if s == "" {
		return generator.DefaultParams(), nil
	}
	return generator.ParseParams(s)
}
