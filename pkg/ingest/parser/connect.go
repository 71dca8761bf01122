package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
	"github.com/caseforge/caseforge/pkg/models"
)

var (
	connectRe    = regexp.MustCompile(`(?P<name>.+?)\[(?P<id>\d+)\] se conect(?:ează|eazÄƒ|eaza) cu succes \| \(ip: (?P<ip>.+?)\)`)
	disconnectRe = regexp.MustCompile(`(?P<name>.+?)\[(?P<id>\d+)\] s-a deconectat (?P<rest>.+)`)
)

// connectParser handles server connect and disconnect notices. A disconnect
// whose reason mentions a ban becomes DISCONNECT_BANNED.
type connectParser struct{}

func (p *connectParser) ID() string      { return "connect" }
func (p *connectParser) Version() string { return "v1" }

func (p *connectParser) Match(block *normalize.Block) bool {
	return titleIn(block, "Server Connect", "Server Disconnect")
}

func (p *connectParser) Parse(block *normalize.Block) []EventData {
	var events []EventData
	for _, payload := range block.Payload {
		line := payload.Text
		if m := connectRe.FindStringSubmatch(line); m != nil {
			e := EventData{
				EventType:   TypeConnect,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				Metadata:    models.JSONMap{"ip": m[3]},
			}
			e.evidence(payload)
			events = append(events, e)
		} else if m := disconnectRe.FindStringSubmatch(line); m != nil {
			eventType := TypeDisconnect
			if strings.Contains(strings.ToLower(line), "banat") {
				eventType = TypeDisconnectBanned
			}
			e := EventData{
				EventType:   eventType,
				SrcPlayerID: m[2],
				SrcName:     strings.TrimSpace(m[1]),
				Metadata:    models.JSONMap{"reason_raw": m[3]},
			}
			e.evidence(payload)
			events = append(events, e)
		}
	}
	return events
}
