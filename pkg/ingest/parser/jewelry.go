package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
)

var jewelryBuyRe = regexp.MustCompile(`Juc(?:ător|ator|Äƒtor): (?P<name>.+?)\((?P<id>\d+)\) a cumparat (?P<item>.+?) pentru suma de (?P<amount>[\d.,]+)\$`)

// jewelryParser handles jewelry shop purchases.
type jewelryParser struct{}

func (p *jewelryParser) ID() string      { return "jewelry" }
func (p *jewelryParser) Version() string { return "v1" }

func (p *jewelryParser) Match(block *normalize.Block) bool {
	return titleIn(block, "💎 Bijuterii", "ğŸ’ Bijuterii")
}

func (p *jewelryParser) Parse(block *normalize.Block) []EventData {
	var events []EventData
	for _, payload := range block.Payload {
		m := jewelryBuyRe.FindStringSubmatch(payload.Text)
		if m == nil {
			continue
		}
		e := EventData{
			EventType:   TypeJewelryBuy,
			SrcPlayerID: m[2],
			SrcName:     strings.TrimSpace(m[1]),
			Item:        strings.TrimSpace(m[3]),
			Money:       amount(m[4]),
		}
		e.evidence(payload)
		events = append(events, e)
	}
	return events
}
