package orderbook

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/monad-developers/kuru-terminal/internal/event"
)

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	d, err := NewDecoder()
	if err != nil {
		t.Fatalf("NewDecoder() error: %v", err)
	}
	return d
}

// packEventData ABI-encodes the non-indexed inputs of an event the way the
// contract would emit them.
func packEventData(t *testing.T, name string, args ...interface{}) string {
	t.Helper()

	ab, err := OrderBookABI()
	if err != nil {
		t.Fatalf("OrderBookABI() error: %v", err)
	}
	ev, ok := ab.Events[name]
	if !ok {
		t.Fatalf("event %s not in abi", name)
	}

	data, err := ev.Inputs.NonIndexed().Pack(args...)
	if err != nil {
		t.Fatalf("pack %s: %v", name, err)
	}
	return "0x" + common.Bytes2Hex(data)
}

func topic0(t *testing.T, name string) string {
	t.Helper()

	ab, err := OrderBookABI()
	if err != nil {
		t.Fatalf("OrderBookABI() error: %v", err)
	}
	return strings.ToLower(ab.Events[name].ID.Hex())
}

func TestDecodeTrade(t *testing.T) {
	d := newTestDecoder(t)

	maker := common.HexToAddress("0x1111111111111111111111111111111111111111")
	taker := common.HexToAddress("0x2222222222222222222222222222222222222222")
	origin := common.HexToAddress("0x3333333333333333333333333333333333333333")

	price, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	log := event.Log{
		Identity:        "0xaaa-0",
		Address:         "0xbook",
		BlockNumber:     1200,
		TransactionHash: "0xaaa",
		Topics:          []string{topic0(t, "Trade")},
		Data: packEventData(t, "Trade",
			big.NewInt(123), maker, true, price,
			big.NewInt(5000), taker, origin, big.NewInt(750),
		),
	}

	decoded, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	trade, ok := decoded.(*event.Trade)
	if !ok {
		t.Fatalf("Decode() = %T, want *event.Trade", decoded)
	}

	if trade.ID != "0xaaa-0" {
		t.Errorf("ID = %q, want %q", trade.ID, "0xaaa-0")
	}
	if trade.BlockNumber != 1200 {
		t.Errorf("BlockNumber = %d, want 1200", trade.BlockNumber)
	}
	if trade.OrderBookAddress != "0xbook" {
		t.Errorf("OrderBookAddress = %q, want %q", trade.OrderBookAddress, "0xbook")
	}
	if trade.OrderID != "123" {
		t.Errorf("OrderID = %q, want %q", trade.OrderID, "123")
	}
	if trade.MakerAddress != strings.ToLower(maker.Hex()) {
		t.Errorf("MakerAddress = %q, want %q", trade.MakerAddress, strings.ToLower(maker.Hex()))
	}
	if !trade.IsBuy {
		t.Error("IsBuy = false, want true")
	}
	if trade.Price != "123456789012345678901234567890" {
		t.Errorf("Price = %q, want full precision decimal string", trade.Price)
	}
	if trade.UpdatedSize != "5000" {
		t.Errorf("UpdatedSize = %q, want %q", trade.UpdatedSize, "5000")
	}
	if trade.FilledSize != "750" {
		t.Errorf("FilledSize = %q, want %q", trade.FilledSize, "750")
	}
}

func TestDecodeOrderCreated(t *testing.T) {
	d := newTestDecoder(t)

	owner := common.HexToAddress("0x4444444444444444444444444444444444444444")

	log := event.Log{
		Identity: "0xbbb-1",
		Topics:   []string{topic0(t, "OrderCreated")},
		Data: packEventData(t, "OrderCreated",
			big.NewInt(77), owner, big.NewInt(1500), uint32(900), false,
		),
	}

	decoded, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	created, ok := decoded.(*event.OrderCreated)
	if !ok {
		t.Fatalf("Decode() = %T, want *event.OrderCreated", decoded)
	}
	if created.OrderID != "77" || created.Size != "1500" || created.Price != "900" {
		t.Errorf("fields = %q/%q/%q, want 77/1500/900", created.OrderID, created.Size, created.Price)
	}
	if created.IsBuy {
		t.Error("IsBuy = true, want false")
	}
}

func TestDecodeOrdersCanceled(t *testing.T) {
	d := newTestDecoder(t)

	owner := common.HexToAddress("0x5555555555555555555555555555555555555555")
	ids := []*big.Int{big.NewInt(1), big.NewInt(2), big.NewInt(3)}

	log := event.Log{
		Identity: "0xccc-2",
		Topics:   []string{topic0(t, "OrdersCanceled")},
		Data:     packEventData(t, "OrdersCanceled", ids, owner),
	}

	decoded, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	canceled, ok := decoded.(*event.OrdersCanceled)
	if !ok {
		t.Fatalf("Decode() = %T, want *event.OrdersCanceled", decoded)
	}
	if len(canceled.OrderIDs) != 3 || canceled.OrderIDs[0] != "1" || canceled.OrderIDs[2] != "3" {
		t.Errorf("OrderIDs = %v, want [1 2 3]", canceled.OrderIDs)
	}
	if canceled.Owner != strings.ToLower(owner.Hex()) {
		t.Errorf("Owner = %q, want %q", canceled.Owner, strings.ToLower(owner.Hex()))
	}
}

func TestDecodeOwnershipTransferred(t *testing.T) {
	d := newTestDecoder(t)

	oldOwner := common.HexToAddress("0x6666666666666666666666666666666666666666")
	newOwner := common.HexToAddress("0x7777777777777777777777777777777777777777")

	// Both parameters are indexed; the data payload is empty and the values
	// ride in the topics.
	log := event.Log{
		Identity: "0xddd-3",
		Topics: []string{
			topic0(t, "OwnershipTransferred"),
			common.BytesToHash(oldOwner.Bytes()).Hex(),
			common.BytesToHash(newOwner.Bytes()).Hex(),
		},
		Data: "0x",
	}

	decoded, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}

	transferred, ok := decoded.(*event.OwnershipTransferred)
	if !ok {
		t.Fatalf("Decode() = %T, want *event.OwnershipTransferred", decoded)
	}
	if transferred.OldOwner != strings.ToLower(oldOwner.Hex()) {
		t.Errorf("OldOwner = %q, want %q", transferred.OldOwner, strings.ToLower(oldOwner.Hex()))
	}
	if transferred.NewOwner != strings.ToLower(newOwner.Hex()) {
		t.Errorf("NewOwner = %q, want %q", transferred.NewOwner, strings.ToLower(newOwner.Hex()))
	}
}

func TestDecodeUnrecognizedSignature(t *testing.T) {
	d := newTestDecoder(t)

	log := event.Log{
		Identity: "0xeee-0",
		Topics:   []string{"0x" + strings.Repeat("ab", 32)},
		Data:     "0x1234",
	}

	decoded, err := d.Decode(log)
	if err != nil {
		t.Fatalf("Decode() error: %v, want nil for unrecognized signature", err)
	}
	if decoded != nil {
		t.Errorf("Decode() = %v, want nil for unrecognized signature", decoded)
	}
}

func TestDecodeMalformed(t *testing.T) {
	d := newTestDecoder(t)

	tests := []struct {
		name string
		log  event.Log
	}{
		{
			name: "truncated trade data",
			log: event.Log{
				Topics: []string{topic0(t, "Trade")},
				Data:   "0x1234",
			},
		},
		{
			name: "bad hex data",
			log: event.Log{
				Topics: []string{topic0(t, "Trade")},
				Data:   "0xzzzz",
			},
		},
		{
			name: "missing indexed topics",
			log: event.Log{
				Topics: []string{topic0(t, "OwnershipTransferred")},
				Data:   "0x",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Decode(tt.log); err == nil {
				t.Error("Decode() = nil error, want error")
			}
		})
	}
}

func TestDecodeSkipsUndecodableLog(t *testing.T) {
	d := newTestDecoder(t)

	decoded, err := d.Decode(event.Log{Identity: "0xfff-0"})
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if decoded != nil {
		t.Errorf("Decode() = %v, want nil for log without topics", decoded)
	}
}
