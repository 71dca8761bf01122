package parser

import (
	"regexp"
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
	"github.com/caseforge/caseforge/pkg/models"
)

var phoneDeltaRe = regexp.MustCompile(`Juc(?:ătorului|atorului|Äƒtorului): (?P<name>.+?)\((?P<id>\d+)\) i-au fost (?P<action>luati|adaugati) (?P<amount>[\d.,]+) \$`)

// phoneParser handles phone money movements. Debits and credits within one
// block are paired greedily by equal amount in encounter order into
// PHONE_TRANSFER events; unpaired lines degrade to PHONE_DELTA.
type phoneParser struct{}

type phoneDelta struct {
	playerID string
	name     string
	money    int64
	payload  normalize.PayloadLine
}

func (p *phoneParser) ID() string      { return "phone" }
func (p *phoneParser) Version() string { return "v1" }

func (p *phoneParser) Match(block *normalize.Block) bool {
	return titleIn(block, "💵 Telefon", "ğŸ’µ Telefon")
}

func (p *phoneParser) Parse(block *normalize.Block) []EventData {
	var debits, credits []phoneDelta
	for _, payload := range block.Payload {
		m := phoneDeltaRe.FindStringSubmatch(payload.Text)
		if m == nil {
			continue
		}
		delta := phoneDelta{playerID: m[2], name: strings.TrimSpace(m[1]), money: ParseAmount(m[4]), payload: payload}
		if m[3] == "luati" {
			debits = append(debits, delta)
		} else {
			credits = append(credits, delta)
		}
	}

	var events []EventData
	usedCredit := make(map[int]bool, len(credits))
	for _, debit := range debits {
		paired := -1
		for i, credit := range credits {
			if !usedCredit[i] && credit.money == debit.money {
				paired = i
				break
			}
		}
		if paired >= 0 {
			usedCredit[paired] = true
			money := debit.money
			e := EventData{
				EventType:   TypePhoneTransfer,
				SrcPlayerID: debit.playerID,
				SrcName:     debit.name,
				DstPlayerID: credits[paired].playerID,
				DstName:     credits[paired].name,
				Money:       &money,
			}
			e.evidence(debit.payload)
			events = append(events, e)
			continue
		}
		money := debit.money
		e := EventData{
			EventType:   TypePhoneDelta,
			SrcPlayerID: debit.playerID,
			SrcName:     debit.name,
			Money:       &money,
			Metadata:    models.JSONMap{"sign": "debit"},
		}
		e.evidence(debit.payload)
		events = append(events, e)
	}

	for i, credit := range credits {
		if usedCredit[i] {
			continue
		}
		money := credit.money
		e := EventData{
			EventType:   TypePhoneDelta,
			SrcPlayerID: credit.playerID,
			SrcName:     credit.name,
			Money:       &money,
			Metadata:    models.JSONMap{"sign": "credit"},
		}
		e.evidence(credit.payload)
		events = append(events, e)
	}
	return events
}
