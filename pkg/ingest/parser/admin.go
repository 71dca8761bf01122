package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
	"github.com/caseforge/caseforge/pkg/models"
)

var (
	adminGiveMoneyRe = regexp.MustCompile(`(?P<staff>.+?)\[(?P<staffID>\d+)\] i-a dat lui (?P<target>.+?)\[(?P<targetID>\d+)\] suma de (?P<amount>[\d.,]+)\$`)
	adminGiveItemRe  = regexp.MustCompile(`(?P<staff>.+?)\[(?P<staffID>\d+)\] i-a dat lui (?P<target>.+?)\[(?P<targetID>\d+)\] item-ul (?P<item>.+?)\(x(?P<qty>[\d.,]+)\)`)
)

// adminParser handles staff K-Menu grants. The staff display name embeds the
// rank ("Fondator" or "Admin"), recorded as metadata when present.
type adminParser struct{}

func (p *adminParser) ID() string      { return "admin" }
func (p *adminParser) Version() string { return "v1" }

func (p *adminParser) Match(block *normalize.Block) bool {
	return titleIn(block, "Give Money (K-Menu)", "Give Item (K-Menu)")
}

func (p *adminParser) Parse(block *normalize.Block) []EventData {
	var events []EventData
	for _, payload := range block.Payload {
		line := payload.Text
		if m := adminGiveMoneyRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeAdminGiveMoney,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				DstPlayerID: m[4],
				DstName:     strings.TrimSpace(m[3]),
				Money:       amount(m[5]),
				Metadata:    staffMetadata(m[1]),
			}
			e.evidence(payload)
			events = append(events, e)
		} else if m := adminGiveItemRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeAdminGiveItem,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				DstPlayerID: m[4],
				DstName:     strings.TrimSpace(m[3]),
				Item:        strings.TrimSpace(m[5]),
				Qty:         amount(m[6]),
				Metadata:    staffMetadata(m[1]),
			}
			e.evidence(payload)
			events = append(events, e)
		}
	}
	return events
}

func staffMetadata(name string) models.JSONMap {
	switch {
	case strings.Contains(name, "Fondator"):
		return models.JSONMap{"staff_rank": "Fondator"}
	case strings.Contains(name, "Admin"):
		return models.JSONMap{"staff_rank": "Admin"}
	default:
		return nil
	}
}
