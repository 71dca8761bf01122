// Package parser maps normalized blocks onto typed events.
//
// Parsers form an ordered registry. For each block every parser whose Match
// predicate accepts the block is invoked, and all yielded events are
// persisted. The regex sources deliberately keep the double-encoded
// (mojibake) byte sequences found in capture output alongside the proper
// UTF-8 forms.
package parser

import (
	"strings"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
	"github.com/caseforge/caseforge/pkg/models"
)

// Event type keys emitted by the registry.
const (
	TypeBankWithdraw     = "BANK_WITHDRAW"
	TypeBankDeposit      = "BANK_DEPOSIT"
	TypeBankTransfer     = "BANK_TRANSFER"
	TypeOfferMoney       = "OFFER_MONEY"
	TypeOfferItem        = "OFFER_ITEM"
	TypePhoneTransfer    = "PHONE_TRANSFER"
	TypePhoneDelta       = "PHONE_DELTA"
	TypeItemDrop         = "ITEM_DROP"
	TypeContainerPut     = "CONTAINER_PUT"
	TypeContainerTake    = "CONTAINER_TAKE"
	TypeSearchTake       = "SEARCH_TAKE"
	TypeConnect          = "CONNECT"
	TypeDisconnect       = "DISCONNECT"
	TypeDisconnectBanned = "DISCONNECT_BANNED"
	TypeAdminGiveMoney   = "ADMIN_GIVE_MONEY"
	TypeAdminGiveItem    = "ADMIN_GIVE_ITEM"
	TypeJewelryBuy       = "JEWELRY_BUY"
)

// EventData is one typed event derived from a payload line, before
// dictionary resolution. Player ids are the natural ids from the transcript,
// not database ids. SrcName and DstName are the display names observed next
// to those ids, recorded as aliases.
type EventData struct {
	EventType   string
	SrcPlayerID string
	SrcName     string
	DstPlayerID string
	DstName     string
	Item        string
	Container   string
	Money       *int64
	Qty         *int64
	Metadata    models.JSONMap

	RawBlockID   string
	RawLineIndex int
	GlobalLineNo int64
}

// Parser classifies blocks and extracts events from their payload lines.
type Parser interface {
	// ID is the stable parser identifier recorded on every event.
	ID() string
	// Version is bumped when extraction semantics change.
	Version() string
	// Match reports whether Parse should run on the block.
	Match(block *normalize.Block) bool
	// Parse extracts zero or more events from the block.
	Parse(block *normalize.Block) []EventData
}

// Registry returns the ordered parser set. Order matters only for stats
// stability; parsers do not shadow each other.
func Registry() []Parser {
	return []Parser{
		&bankParser{},
		&offerParser{},
		&phoneParser{},
		&dropItemParser{},
		&containerParser{},
		&connectParser{},
		&adminParser{},
		&jewelryParser{},
	}
}

// titleIn reports whether the block title, trimmed, is one of the given
// titles.
func titleIn(block *normalize.Block, titles ...string) bool {
	title := strings.TrimSpace(block.Title)
	for _, t := range titles {
		if title == t {
			return true
		}
	}
	return false
}

// evidence copies the payload line's evidence tuple into the event.
func (e *EventData) evidence(p normalize.PayloadLine) {
	e.RawBlockID = p.RawBlockID
	e.RawLineIndex = p.RawLineIndex
	e.GlobalLineNo = p.GlobalLineNo
}
