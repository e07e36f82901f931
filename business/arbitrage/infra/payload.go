// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"time"

	"github.com/fd1az/triscan/business/arbitrage/domain"
)

// opportunityMessage is the wire form shared by the webhook, redis and
// websocket consumers. Rates travel as decimal strings so downstream
// consumers never touch floats.
type opportunityMessage struct {
	ID          string        `json:"id"`
	Cycle       string        `json:"cycle"`
	Assets      [3]string     `json:"assets"`
	GrossRate   string        `json:"gross_rate"`
	NetRate     string        `json:"net_rate"`
	ProfitRatio string        `json:"profit_ratio"`
	ProfitPct   string        `json:"profit_pct"`
	Legs        [3]legMessage `json:"legs"`
	DetectedAt  time.Time     `json:"detected_at"`
}

type legMessage struct {
	From string `json:"from"`
	To   string `json:"to"`
	Pair string `json:"pair"`
	Rate string `json:"rate"`
	Seq  uint64 `json:"seq"`
}

func newOpportunityMessage(opp domain.Opportunity) opportunityMessage {
	msg := opportunityMessage{
		ID:          opp.ID,
		Cycle:       opp.Cycle.String(),
		Assets:      opp.Cycle.Assets,
		GrossRate:   opp.GrossRate.String(),
		NetRate:     opp.NetRate.String(),
		ProfitRatio: opp.ProfitRatio.String(),
		ProfitPct:   opp.ProfitPct().StringFixed(4),
		DetectedAt:  opp.DetectedAt,
	}
	for i, leg := range opp.Cycle.Legs {
		msg.Legs[i] = legMessage{
			From: leg.From,
			To:   leg.To,
			Pair: leg.Pair,
			Rate: opp.LegRates[i].String(),
			Seq:  opp.Seqs[i],
		}
	}
	return msg
}
