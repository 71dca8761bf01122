package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
	"github.com/caseforge/caseforge/pkg/models"
)

var (
	offerMoneyRe = regexp.MustCompile(`Jucatorul (?P<src>.+?)\[(?P<srcID>\d+)\] i-a oferit lui (?P<dst>.+?)\[(?P<dstID>\d+)\] suma de (?P<amount>[\d.,]+)\$\.`)
	offerItemRe  = regexp.MustCompile(`Jucatorul (?P<src>.+?)\[(?P<srcID>\d+)\] i-a oferit lui (?P<dst>.+?)\[(?P<dstID>\d+)\] - (?P<item>.+?)\(x(?P<qty>[\d.,]+)\)\.`)
)

// offerParser handles direct player-to-player money and item offers.
type offerParser struct{}

func (p *offerParser) ID() string      { return "offer" }
func (p *offerParser) Version() string { return "v1" }

func (p *offerParser) Match(block *normalize.Block) bool {
	return titleIn(block, "Ofera Bani", "Ofera Item")
}

func (p *offerParser) Parse(block *normalize.Block) []EventData {
	var events []EventData
	for _, payload := range block.Payload {
		line := payload.Text
		if m := offerMoneyRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeOfferMoney,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				DstPlayerID: m[4],
				DstName:     strings.TrimSpace(m[3]),
				Money:       amount(m[5]),
			}
			e.evidence(payload)
			events = append(events, e)
		} else if m := offerItemRe.FindStringSubmatch(line); m != nil {
			item := strings.TrimSpace(m[5])
			var metadata models.JSONMap
			// The game logs "nil" when the item row was already consumed.
			if strings.EqualFold(item, "nil") {
				item = ""
				metadata = models.JSONMap{"item_unknown": true}
			}
			e := EventData{
				EventType:   TypeOfferItem,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				DstPlayerID: m[4],
				DstName:     strings.TrimSpace(m[3]),
				Item:        item,
				Qty:         amount(m[6]),
				Metadata:    metadata,
			}
			e.evidence(payload)
			events = append(events, e)
		}
	}
	return events
}
