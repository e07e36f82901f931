package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fd1az/triscan/business/arbitrage/domain"
)

// ConsoleConsumer renders each opportunity as a human-readable block.
type ConsoleConsumer struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleConsumer writes to stdout.
func NewConsoleConsumer() *ConsoleConsumer {
	return &ConsoleConsumer{out: os.Stdout}
}

// NewConsoleConsumerTo writes to the given writer.
func NewConsoleConsumerTo(out io.Writer) *ConsoleConsumer {
	return &ConsoleConsumer{out: out}
}

// Name implements app.Consumer.
func (c *ConsoleConsumer) Name() string { return "console" }

// Deliver outputs one opportunity to the console.
func (c *ConsoleConsumer) Deliver(_ context.Context, opp domain.Opportunity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintln(c.out, "")
	fmt.Fprintln(c.out, "================================================================================")
	fmt.Fprintln(c.out, "ARBITRAGE OPPORTUNITY DETECTED")
	fmt.Fprintln(c.out, "================================================================================")
	fmt.Fprintf(c.out, "Cycle:          %s\n", opp.Cycle.String())
	fmt.Fprintf(c.out, "Detected:       %s\n", opp.DetectedAt.Format(time.RFC3339))
	fmt.Fprintf(c.out, "ID:             %s\n", opp.ID)
	fmt.Fprintln(c.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(c.out, "LEGS")
	for i, leg := range opp.Cycle.Legs {
		fmt.Fprintf(c.out, "  %s → %s  via %-12s rate %s (seq %d)\n",
			leg.From, leg.To, leg.Pair, opp.LegRates[i].String(), opp.Seqs[i])
	}
	fmt.Fprintln(c.out, "--------------------------------------------------------------------------------")
	fmt.Fprintln(c.out, "PROFIT")
	fmt.Fprintf(c.out, "  Gross rate:   %s\n", opp.GrossRate.String())
	fmt.Fprintf(c.out, "  Net rate:     %s\n", opp.NetRate.String())
	fmt.Fprintf(c.out, "  Profit:       %s%%\n", opp.ProfitPct().StringFixed(4))
	fmt.Fprintln(c.out, "================================================================================")
	return nil
}

// Close implements app.Consumer.
func (c *ConsoleConsumer) Close() error {
	return nil
}
