package runner

import (
	"net"
	"testing"
	"time"

	"github.com/insomniacslk/dhcp/dhcpv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leshow/dhcpm/config"
	"github.com/leshow/dhcpm/generator"
	"github.com/leshow/dhcpm/message"
	"github.com/leshow/dhcpm/socketeer"
	"github.com/leshow/dhcpm/stats"
)

// harness wires a Runner to in-memory collaborators so exchanges run
// without a socket.
type harness struct {
	runner   *Runner
	sends    chan socketeer.Outbound
	results  chan message.Inbound
	shutdown chan struct{}
	stats    *stats.ExchangeStats
}

func newHarness(t *testing.T, o *config.RunnerOptions) *harness {
	t.Helper()

	h := &harness{
		sends:    make(chan socketeer.Outbound, 16),
		results:  make(chan message.Inbound, 1),
		shutdown: make(chan struct{}),
		stats:    stats.New(),
	}
	h.runner = New(o, zap.NewNop(), func(out socketeer.Outbound) bool {
		h.sends <- out
		return true
	}, h.results, h.shutdown, h.stats.AddStat)
	return h
}

func (h *harness) sendCount() int {
	return len(h.sends)
}

func testSpec(t *testing.T) generator.Spec {
	t.Helper()
	mac, err := net.ParseMAC("de:ad:be:ef:00:01")
	require.NoError(t, err)
	return &generator.DiscoverSpec{Chaddr: mac, Params: generator.DefaultParams()}
}

func testTarget() socketeer.Target {
	return socketeer.NewTarget(net.ParseIP("192.0.2.1"), 67)
}

func offerReply(t *testing.T) message.Inbound {
	t.Helper()
	reply, err := dhcpv4.New()
	require.NoError(t, err)
	reply.UpdateOption(dhcpv4.OptMessageType(dhcpv4.MessageTypeOffer))
	reply.YourIPAddr = net.IPv4(192, 168, 0, 50)
	return message.Inbound{
		Msg:    message.NewV4(reply),
		Source: &net.UDPAddr{IP: net.ParseIP("192.0.2.1"), Port: 67},
	}
}

func TestRunReturnsFirstReply(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    time.Second,
		MaxRetries: DefaultMaxRetries,
	})

	h.results <- offerReply(t)

	got, err := h.runner.Run(testSpec(t), testTarget())
	require.NoError(t, err)
	require.NotNil(t, got.V4)
	assert.Equal(t, dhcpv4.MessageTypeOffer, got.V4.MessageType())
	assert.Equal(t, 1, h.sendCount())
}

func TestRunRetriesUntilExhausted(t *testing.T) {
	timeout := 30 * time.Millisecond
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    timeout,
		MaxRetries: 2,
	})

	start := time.Now()
	_, err := h.runner.Run(testSpec(t), testTarget())
	elapsed := time.Since(start)

	var terr *TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 3, terr.Attempts)
	assert.Equal(t, 3, h.sendCount())
	assert.GreaterOrEqual(t, elapsed, 3*timeout)
	assert.Equal(t, int64(2), h.stats.Get(stats.RetriesStat))
}

func TestRunRebuildsEachAttempt(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    20 * time.Millisecond,
		MaxRetries: 1,
	})

	_, err := h.runner.Run(testSpec(t), testTarget())
	var terr *TimeoutError
	require.ErrorAs(t, err, &terr)

	first := <-h.sends
	second := <-h.sends
	require.NotNil(t, first.Msg.V4)
	require.NotNil(t, second.Msg.V4)
	assert.NotEqual(t, first.Msg.V4.TransactionID, second.Msg.V4.TransactionID)
}

func TestRunNoRetry(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    20 * time.Millisecond,
		MaxRetries: DefaultMaxRetries,
		NoRetry:    true,
	})

	_, err := h.runner.Run(testSpec(t), testTarget())

	var terr *TimeoutError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, 1, terr.Attempts)
	assert.Equal(t, 1, h.sendCount())
	assert.Zero(t, h.stats.Get(stats.RetriesStat))
}

func TestRunReplyDuringRetryWindow(t *testing.T) {
	timeout := 30 * time.Millisecond
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    timeout,
		MaxRetries: 2,
	})

	go func() {
		// Land inside the second attempt's window.
		time.Sleep(timeout + timeout/2)
		h.results <- offerReply(t)
	}()

	got, err := h.runner.Run(testSpec(t), testTarget())
	require.NoError(t, err)
	require.NotNil(t, got.V4)
	assert.Equal(t, 2, h.sendCount())
}

func TestRunShutdown(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    time.Minute,
		MaxRetries: DefaultMaxRetries,
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		close(h.shutdown)
	}()

	start := time.Now()
	_, err := h.runner.Run(testSpec(t), testTarget())

	var serr *ShutdownError
	require.ErrorAs(t, err, &serr)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, h.sendCount())
}

func TestRunReplyChannelClosed(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    time.Minute,
		MaxRetries: DefaultMaxRetries,
	})

	close(h.results)

	_, err := h.runner.Run(testSpec(t), testTarget())
	assert.ErrorIs(t, err, ErrReplyChannelClosed)
}

func TestRunDora(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    time.Second,
		MaxRetries: DefaultMaxRetries,
	})

	mac, err := net.ParseMAC("de:ad:be:ef:00:01")
	require.NoError(t, err)
	dora := &generator.DoraSpec{Chaddr: mac, Params: generator.DefaultParams()}

	go func() {
		h.results <- offerReply(t)

		<-h.sends // the discover
		request := <-h.sends

		ack := request.Msg.V4
		ack.UpdateOption(dhcpv4.OptMessageType(dhcpv4.MessageTypeAck))
		h.results <- message.Inbound{
			Msg:    message.NewV4(ack),
			Source: &net.UDPAddr{IP: net.ParseIP("192.0.2.1"), Port: 67},
		}
	}()

	got, err := h.runner.RunDora(dora, testTarget())
	require.NoError(t, err)
	require.NotNil(t, got.V4)
	assert.Equal(t, dhcpv4.MessageTypeAck, got.V4.MessageType())

	// The request carried the offered address from the offer.
	assert.Equal(t,
		[]byte{192, 168, 0, 50},
		got.V4.GetOneOption(dhcpv4.OptionRequestedIPAddress),
	)
}

func TestRunDoraDiscoverFailureShortCircuits(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout: 20 * time.Millisecond,
		NoRetry: true,
	})

	mac, err := net.ParseMAC("de:ad:be:ef:00:01")
	require.NoError(t, err)

	_, err = h.runner.RunDora(&generator.DoraSpec{Chaddr: mac}, testTarget())
	require.Error(t, err)
	assert.ErrorContains(t, err, "discover exchange")

	// Only the discover was ever sent.
	assert.Equal(t, 1, h.sendCount())
}

func TestRunDoraOfferWithoutAddress(t *testing.T) {
	h := newHarness(t, &config.RunnerOptions{
		Timeout:    time.Second,
		MaxRetries: DefaultMaxRetries,
	})

	mac, err := net.ParseMAC("de:ad:be:ef:00:01")
	require.NoError(t, err)

	empty, err := dhcpv4.New()
	require.NoError(t, err)
	empty.UpdateOption(dhcpv4.OptMessageType(dhcpv4.MessageTypeOffer))
	h.results <- message.Inbound{
		Msg:    message.NewV4(empty),
		Source: &net.UDPAddr{IP: net.ParseIP("192.0.2.1"), Port: 67},
	}

	_, err = h.runner.RunDora(&generator.DoraSpec{Chaddr: mac}, testTarget())
	assert.ErrorContains(t, err, "no assigned address")
}
