package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
)

var (
	bankWithdrawRe = regexp.MustCompile(`(?P<name>.+?)\[(?P<id>\d+)\] a retras (?P<amount>[\d.,]+)\$`)
	bankDepositRe  = regexp.MustCompile(`(?P<name>.+?)\[(?P<id>\d+)\] a depozitat (?P<amount>[\d.,]+)\$`)
	bankTransferRe = regexp.MustCompile(`(?P<src>.+?)\[(?P<srcID>\d+)\] a transferat (?P<amount>[\d.,]+)\$ lui (?P<dst>.+?)\[(?P<dstID>\d+)\]\.?`)
)

// bankParser handles bank withdrawals, deposits and transfers.
type bankParser struct{}

func (p *bankParser) ID() string      { return "bank" }
func (p *bankParser) Version() string { return "v1" }

func (p *bankParser) Match(block *normalize.Block) bool {
	return titleIn(block, "Retragere Banca", "Depunere Banca", "Transfer (Bancar)")
}

func (p *bankParser) Parse(block *normalize.Block) []EventData {
	var events []EventData
	for _, payload := range block.Payload {
		line := payload.Text
		if m := bankWithdrawRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeBankWithdraw,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				Money:       amount(m[3]),
			}
			e.evidence(payload)
			events = append(events, e)
		} else if m := bankDepositRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeBankDeposit,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				Money:       amount(m[3]),
			}
			e.evidence(payload)
			events = append(events, e)
		} else if m := bankTransferRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeBankTransfer,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				DstPlayerID: m[5],
				DstName:     strings.TrimSpace(m[4]),
				Money:       amount(m[3]),
			}
			e.evidence(payload)
			events = append(events, e)
		}
	}
	return events
}
