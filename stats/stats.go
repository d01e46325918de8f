package stats

import (
	"fmt"
	"strings"
	"sync/atomic"
)

type StatValue int

const (
	MessagesSentStat StatValue = iota
	RetriesStat
	RepliesReceivedStat
	RepliesDroppedStat
	DecodeErrorsStat
	SendErrorsStat

	statCount
)

var statNames = [statCount]string{
	"messages_sent",
	"retries",
	"replies_received",
	"replies_dropped",
	"decode_errors",
	"send_errors",
}

// ExchangeStats counts what happened across one invocation's exchanges.
// Counters are updated from the worker goroutines and read once at exit.
type ExchangeStats struct {
	counts [statCount]atomic.Int64
}

func New() *ExchangeStats {
	return &ExchangeStats{}
}

// AddStat increments a counter. Always reports success; the signature
// lets workers treat stat recording as best-effort.
func (s *ExchangeStats) AddStat(v StatValue) bool {
	if v < 0 || v >= statCount {
		return false
	}
	s.counts[v].Add(1)
	return true
}

func (s *ExchangeStats) Get(v StatValue) int64 {
	if v < 0 || v >= statCount {
		return 0
	}
	return s.counts[v].Load()
}

func (s *ExchangeStats) String() string {
	var b strings.Builder
	for i := StatValue(0); i < statCount; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s=%d", statNames[i], s.counts[i].Load())
	}
	return b.String()
}
