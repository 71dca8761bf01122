package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
)

var dropRe = regexp.MustCompile(`Juc(?:ător|ator|Äƒtor): (?P<name>.+?) \((?P<id>\d+)\) a aruncat pe jos (?P<qty>[\d.,]+)x (?P<item>.+)`)

// dropItemParser handles items discarded on the ground.
type dropItemParser struct{}

func (p *dropItemParser) ID() string      { return "drop-item" }
func (p *dropItemParser) Version() string { return "v1" }

func (p *dropItemParser) Match(block *normalize.Block) bool {
	return titleIn(block, "⚠️ Obiect aruncat pe jos", "âš ï¸ Obiect aruncat pe jos")
}

func (p *dropItemParser) Parse(block *normalize.Block) []EventData {
	var events []EventData
	for _, payload := range block.Payload {
		m := dropRe.FindStringSubmatch(payload.Text)
		if m == nil {
			continue
		}
		e := EventData{
			EventType:   TypeItemDrop,
			SrcPlayerID: m[2],
			SrcName:     strings.TrimSpace(m[1]),
			Container:   "ground",
			Item:        strings.TrimSpace(m[4]),
			Qty:         amount(m[3]),
		}
		e.evidence(payload)
		events = append(events, e)
	}
	return events
}
