package runner

import (
	"errors"
	"fmt"
	"net"

	"go.uber.org/zap"

	"github.com/leshow/dhcpm/generator"
	"github.com/leshow/dhcpm/message"
	"github.com/leshow/dhcpm/socketeer"
)

// RunDora chains two exchanges: a Discover, then a Request carrying the
// address offered in the Discover reply. The first failure
// short-circuits; the Request uses the same retry and timeout policy.
func (r *Runner) RunDora(spec *generator.DoraSpec, target socketeer.Target) (message.Message, error) {
	offer, err := r.Run(spec.AsDiscover(), target)
	if err != nil {
		return message.Message{}, fmt.Errorf("discover exchange: %w", err)
	}
	if offer.V4 == nil {
		return message.Message{}, errors.New("discover reply was not a v4 message")
	}

	offered := offer.V4.YourIPAddr
	if offered == nil || offered.Equal(net.IPv4zero) {
		return message.Message{}, errors.New("offer carried no assigned address")
	}

	r.log.Info("offer received, requesting",
		zap.Stringer("yiaddr", offered),
	)

	ack, err := r.Run(spec.AsRequest(offered), target)
	if err != nil {
		return message.Message{}, fmt.Errorf("request exchange: %w", err)
	}
	return ack, nil
}
