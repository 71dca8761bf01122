package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
)

var (
	containerPutRe  = regexp.MustCompile(`\[TRANSFER\].*?\[(?P<id>\d+)\] a pus in (?P<container>.+?) item-ul (?P<item>.+?)\(x(?P<qty>[\d.,]+)\)\.`)
	containerTakeRe = regexp.MustCompile(`\[REMOVE\].*?\[(?P<id>\d+)\] a scos din (?P<container>.+?) item-ul (?P<item>.+?)\(x(?P<qty>[\d.,]+)\)\.`)
	searchTakeRe    = regexp.MustCompile(`\[PERCHEZITIE\] Jucatorul (?P<name>.+?)\[(?P<sid>\d+)\] a scos din (?P<target>.+?) item-ul (?P<item>.+?)\(x(?P<qty>[\d.,]+)\)\.`)
)

// containerParser handles item movements in and out of containers, plus
// confiscations during a player search (PERCHEZITIE), where the "container"
// is the searched player.
type containerParser struct{}

func (p *containerParser) ID() string      { return "container" }
func (p *containerParser) Version() string { return "v1" }

func (p *containerParser) Match(block *normalize.Block) bool {
	return titleIn(block, "Transfera Item")
}

func (p *containerParser) Parse(block *normalize.Block) []EventData {
	var events []EventData
	for _, payload := range block.Payload {
		line := payload.Text
		if m := containerPutRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeContainerPut,
				SrcPlayerID: m[1],
				Container:   strings.TrimSpace(m[2]),
				Item:        strings.TrimSpace(m[3]),
				Qty:         amount(m[4]),
			}
			e.evidence(payload)
			events = append(events, e)
		} else if m := containerTakeRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeContainerTake,
				SrcPlayerID: m[1],
				Container:   strings.TrimSpace(m[2]),
				Item:        strings.TrimSpace(m[3]),
				Qty:         amount(m[4]),
			}
			e.evidence(payload)
			events = append(events, e)
		} else if m := searchTakeRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeSearchTake,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				DstPlayerID: strings.TrimSpace(m[3]),
				Item:        strings.TrimSpace(m[4]),
				Qty:         amount(m[5]),
			}
			e.evidence(payload)
			events = append(events, e)
		}
	}
	return events
}
