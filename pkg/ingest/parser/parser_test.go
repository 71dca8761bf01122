package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge/caseforge/pkg/ingest/normalize"
)

func block(title string, lines ...string) *normalize.Block {
	b := &normalize.Block{Title: title}
	for i, line := range lines {
		b.Payload = append(b.Payload, normalize.PayloadLine{
			Text:         line,
			RawBlockID:   "blk-1",
			RawLineIndex: i,
			GlobalLineNo: int64(i + 1),
		})
	}
	return b
}

// parse runs the block through the full registry the way the runner does.
func parse(t *testing.T, b *normalize.Block) []EventData {
	t.Helper()
	var events []EventData
	for _, p := range Registry() {
		if p.Match(b) {
			events = append(events, p.Parse(b)...)
		}
	}
	return events
}

func TestBankWithdraw(t *testing.T) {
	events := parse(t, block("Retragere Banca", "John[42] a retras 1.000$"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeBankWithdraw, e.EventType)
	assert.Equal(t, "42", e.SrcPlayerID)
	assert.Equal(t, "John", e.SrcName)
	require.NotNil(t, e.Money)
	assert.Equal(t, int64(1000), *e.Money)
	assert.Equal(t, "blk-1", e.RawBlockID)
	assert.Equal(t, 0, e.RawLineIndex)
	assert.Equal(t, int64(1), e.GlobalLineNo)
}

func TestBankTransfer(t *testing.T) {
	events := parse(t, block("Transfer (Bancar)", "John[42] a transferat 2.500$ lui Maria[7]."))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeBankTransfer, e.EventType)
	assert.Equal(t, "42", e.SrcPlayerID)
	assert.Equal(t, "John", e.SrcName)
	assert.Equal(t, "7", e.DstPlayerID)
	assert.Equal(t, "Maria", e.DstName)
	assert.Equal(t, int64(2500), *e.Money)
}

func TestOfferMoney(t *testing.T) {
	events := parse(t, block("Ofera Bani",
		"Jucatorul John[42] i-a oferit lui Maria[7] suma de 300$."))

	require.Len(t, events, 1)
	assert.Equal(t, TypeOfferMoney, events[0].EventType)
	assert.Equal(t, "42", events[0].SrcPlayerID)
	assert.Equal(t, "7", events[0].DstPlayerID)
	assert.Equal(t, int64(300), *events[0].Money)
}

func TestOfferItemNil(t *testing.T) {
	events := parse(t, block("Ofera Item",
		"Jucatorul John[42] i-a oferit lui Maria[7] - nil(x2)."))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeOfferItem, e.EventType)
	assert.Empty(t, e.Item)
	assert.Equal(t, int64(2), *e.Qty)
	require.NotNil(t, e.Metadata)
	assert.Equal(t, true, e.Metadata["item_unknown"])
}

func TestOfferItemNamed(t *testing.T) {
	events := parse(t, block("Ofera Item",
		"Jucatorul John[42] i-a oferit lui Maria[7] - pistol(x1)."))

	require.Len(t, events, 1)
	assert.Equal(t, "pistol", events[0].Item)
	assert.Nil(t, events[0].Metadata)
}

func TestPhonePairing(t *testing.T) {
	events := parse(t, block("💵 Telefon",
		"Jucătorului: Ana(7) i-au fost luati 500 $",
		"Jucătorului: Dan(9) i-au fost adaugati 500 $"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypePhoneTransfer, e.EventType)
	assert.Equal(t, "7", e.SrcPlayerID)
	assert.Equal(t, "9", e.DstPlayerID)
	assert.Equal(t, int64(500), *e.Money)
	// Evidence points at the debit line.
	assert.Equal(t, 0, e.RawLineIndex)
}

func TestPhoneUnpairedDebit(t *testing.T) {
	events := parse(t, block("💵 Telefon",
		"Jucătorului: Ana(7) i-au fost luati 500 $"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypePhoneDelta, e.EventType)
	assert.Equal(t, "7", e.SrcPlayerID)
	assert.Equal(t, int64(500), *e.Money)
	assert.Equal(t, "debit", e.Metadata["sign"])
}

func TestPhoneUnpairedCredit(t *testing.T) {
	events := parse(t, block("💵 Telefon",
		"Jucătorului: Dan(9) i-au fost adaugati 250 $"))

	require.Len(t, events, 1)
	assert.Equal(t, TypePhoneDelta, events[0].EventType)
	assert.Equal(t, "credit", events[0].Metadata["sign"])
}

func TestPhoneGreedyPairingOrder(t *testing.T) {
	// Two debits of 100: the first debit pairs with the first 100 credit.
	events := parse(t, block("💵 Telefon",
		"Jucătorului: A(1) i-au fost luati 100 $",
		"Jucătorului: B(2) i-au fost luati 100 $",
		"Jucătorului: C(3) i-au fost adaugati 100 $"))

	require.Len(t, events, 2)
	assert.Equal(t, TypePhoneTransfer, events[0].EventType)
	assert.Equal(t, "1", events[0].SrcPlayerID)
	assert.Equal(t, "3", events[0].DstPlayerID)
	assert.Equal(t, TypePhoneDelta, events[1].EventType)
	assert.Equal(t, "2", events[1].SrcPlayerID)
}

func TestItemDrop(t *testing.T) {
	events := parse(t, block("⚠️ Obiect aruncat pe jos",
		"Jucător: John (42) a aruncat pe jos 3x cartus"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeItemDrop, e.EventType)
	assert.Equal(t, "42", e.SrcPlayerID)
	assert.Equal(t, "ground", e.Container)
	assert.Equal(t, "cartus", e.Item)
	assert.Equal(t, int64(3), *e.Qty)
}

func TestContainerPutAndTake(t *testing.T) {
	events := parse(t, block("Transfera Item",
		"[TRANSFER] John[42] a pus in portbagaj_42_abc item-ul cartus(x10).",
		"[REMOVE] John[42] a scos din portbagaj_42_abc item-ul cartus(x5)."))

	require.Len(t, events, 2)
	assert.Equal(t, TypeContainerPut, events[0].EventType)
	assert.Equal(t, "portbagaj_42_abc", events[0].Container)
	assert.Equal(t, int64(10), *events[0].Qty)
	assert.Equal(t, TypeContainerTake, events[1].EventType)
	assert.Equal(t, int64(5), *events[1].Qty)
}

func TestSearchTake(t *testing.T) {
	events := parse(t, block("Transfera Item",
		"[PERCHEZITIE] Jucatorul Cop[5] a scos din John[42] item-ul cutit(x1)."))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeSearchTake, e.EventType)
	assert.Equal(t, "5", e.SrcPlayerID)
	assert.Equal(t, "John[42]", e.DstPlayerID)
	assert.Equal(t, "cutit", e.Item)
}

func TestConnectCapturesIP(t *testing.T) {
	events := parse(t, block("Server Connect",
		"John[42] se conectează cu succes | (ip: 10.0.0.5)"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeConnect, e.EventType)
	assert.Equal(t, "42", e.SrcPlayerID)
	assert.Equal(t, "10.0.0.5", e.Metadata["ip"])
}

func TestDisconnectBanned(t *testing.T) {
	events := parse(t, block("Server Disconnect",
		"John[42] s-a deconectat fiind banat de admin"))

	require.Len(t, events, 1)
	assert.Equal(t, TypeDisconnectBanned, events[0].EventType)
	assert.Equal(t, "fiind banat de admin", events[0].Metadata["reason_raw"])
}

func TestDisconnectPlain(t *testing.T) {
	events := parse(t, block("Server Disconnect",
		"John[42] s-a deconectat (timeout)"))

	require.Len(t, events, 1)
	assert.Equal(t, TypeDisconnect, events[0].EventType)
}

func TestAdminGiveMoneyRank(t *testing.T) {
	events := parse(t, block("Give Money (K-Menu)",
		"Fondator Vlad[1] i-a dat lui John[42] suma de 5.000$"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeAdminGiveMoney, e.EventType)
	assert.Equal(t, "1", e.SrcPlayerID)
	assert.Equal(t, "42", e.DstPlayerID)
	assert.Equal(t, int64(5000), *e.Money)
	assert.Equal(t, "Fondator", e.Metadata["staff_rank"])
}

func TestAdminGiveItem(t *testing.T) {
	events := parse(t, block("Give Item (K-Menu)",
		"Admin Dan[2] i-a dat lui John[42] item-ul bandaj(x4)"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeAdminGiveItem, e.EventType)
	assert.Equal(t, "bandaj", e.Item)
	assert.Equal(t, int64(4), *e.Qty)
	assert.Equal(t, "Admin", e.Metadata["staff_rank"])
}

func TestJewelryBuy(t *testing.T) {
	events := parse(t, block("💎 Bijuterii",
		"Jucător: John(42) a cumparat lant aur pentru suma de 12.500$"))

	require.Len(t, events, 1)
	e := events[0]
	assert.Equal(t, TypeJewelryBuy, e.EventType)
	assert.Equal(t, "42", e.SrcPlayerID)
	assert.Equal(t, "lant aur", e.Item)
	assert.Equal(t, int64(12500), *e.Money)
}

func TestUnknownTitleYieldsNothing(t *testing.T) {
	events := parse(t, block("Ceva Nou", "Valoare 42 aici"))
	assert.Empty(t, events)
}

func TestRegistryOrderStable(t *testing.T) {
	ids := make([]string, 0)
	for _, p := range Registry() {
		ids = append(ids, p.ID())
	}
	assert.Equal(t, []string{"bank", "offer", "phone", "drop-item", "container", "connect", "admin", "jewelry"}, ids)
}
