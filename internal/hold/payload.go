package hold

import (
	"encoding/binary"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/pkg/quant"
)

// Market instruction tags.
const (
	TagReserve    byte = 0x20
	TagCommit     byte = 0x21
	TagCancelHold byte = 0x22
)

// Payload sizes, tag included.
const (
	ReservePayloadLen = 1 + 32 + 2 + 1 + 8 + 8 + 4 + 32
	CommitPayloadLen  = 1 + 32 + 8
	CancelPayloadLen  = 1 + 32
)

func encodeReserve(h domain.HoldReceipt) []byte {
	buf := make([]byte, 0, ReservePayloadLen)
	buf = append(buf, TagReserve)
	buf = append(buf, h.HoldID[:]...)
	buf = binary.LittleEndian.AppendUint16(buf, h.InstrumentIndex)
	buf = append(buf, byte(h.Side))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(h.Quantity))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(h.LimitPrice))
	buf = binary.LittleEndian.AppendUint32(buf, h.TTLMs)
	buf = append(buf, h.CommitmentHash[:]...)
	return buf
}

func encodeCommit(holdID domain.Address, capNonce uint64) []byte {
	buf := make([]byte, 0, CommitPayloadLen)
	buf = append(buf, TagCommit)
	buf = append(buf, holdID[:]...)
	return binary.LittleEndian.AppendUint64(buf, capNonce)
}

func encodeCancel(holdID domain.Address) []byte {
	buf := make([]byte, 0, CancelPayloadLen)
	buf = append(buf, TagCancelHold)
	return append(buf, holdID[:]...)
}

// HoldIDOf extracts the hold id from any hold payload. Callers use it to
// match a cancel draft to the reserve it compensates.
func HoldIDOf(data []byte) (domain.Address, bool) {
	if len(data) < 1+domain.AddressLen {
		return domain.Address{}, false
	}
	switch data[0] {
	case TagReserve, TagCommit, TagCancelHold:
	default:
		return domain.Address{}, false
	}
	var id domain.Address
	copy(id[:], data[1:1+domain.AddressLen])
	return id, true
}

// DecodeReserve parses a reserve payload back into the receipt fields it
// carries. Address, RouteID and Status are not part of the payload.
func DecodeReserve(data []byte) (domain.HoldReceipt, error) {
	if len(data) != ReservePayloadLen || data[0] != TagReserve {
		return domain.HoldReceipt{}, domain.Errorf(domain.ErrValidation, "decode reserve", "bad payload (%d bytes)", len(data))
	}
	var h domain.HoldReceipt
	copy(h.HoldID[:], data[1:33])
	h.InstrumentIndex = binary.LittleEndian.Uint16(data[33:35])
	h.Side = domain.Side(data[35])
	h.Quantity = quant.Fixed(binary.LittleEndian.Uint64(data[36:44]))
	h.LimitPrice = quant.Fixed(binary.LittleEndian.Uint64(data[44:52]))
	h.TTLMs = binary.LittleEndian.Uint32(data[52:56])
	copy(h.CommitmentHash[:], data[56:88])
	return h, nil
}

// DecodeCommit parses a commit payload.
func DecodeCommit(data []byte) (holdID domain.Address, capNonce uint64, err error) {
	if len(data) != CommitPayloadLen || data[0] != TagCommit {
		return domain.Address{}, 0, domain.Errorf(domain.ErrValidation, "decode commit", "bad payload (%d bytes)", len(data))
	}
	copy(holdID[:], data[1:33])
	return holdID, binary.LittleEndian.Uint64(data[33:41]), nil
}
