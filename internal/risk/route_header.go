package risk

import (
	"encoding/binary"

	"github.com/Miminimi234/padd/internal/domain"
)

// Route header layout, little-endian:
//
//	[0:8]   magic "ROUTEHDR"
//	[8]     version (1)
//	[9]     flags: bit0 warmup enabled, bit1 shorts enabled
//	[10:12] reserved
//	[12:16] short leverage cap, whole multiples (u32)
//	[16:24] warmup end, unix seconds (i64, 0 = no scheduled end)
const (
	RouteHeaderLen     = 24
	RouteHeaderVersion = 1

	flagWarmup = 1 << 0
	flagShorts = 1 << 1
)

var routeHeaderMagic = [8]byte{'R', 'O', 'U', 'T', 'E', 'H', 'D', 'R'}

// RouteHeader is the part of the route-state account the guards read.
type RouteHeader struct {
	Version          uint8
	WarmupEnabled    bool
	ShortEnabled     bool
	ShortLeverageCap uint32
	WarmupEndsUnix   int64
}

// WarmupActive reports whether warmup restrictions apply at nowUnix.
func (h RouteHeader) WarmupActive(nowUnix int64) bool {
	if !h.WarmupEnabled {
		return false
	}
	return h.WarmupEndsUnix == 0 || nowUnix < h.WarmupEndsUnix
}

// DecodeRouteHeader parses the leading bytes of a route-state account.
// Trailing bytes belong to the rest of the account and are ignored.
func DecodeRouteHeader(data []byte) (RouteHeader, error) {
	const op = "decode route header"
	if len(data) < RouteHeaderLen {
		return RouteHeader{}, domain.Errorf(domain.ErrValidation, op, "account is %d bytes, need %d", len(data), RouteHeaderLen)
	}
	if [8]byte(data[0:8]) != routeHeaderMagic {
		return RouteHeader{}, domain.Errorf(domain.ErrValidation, op, "bad magic %x", data[0:8])
	}
	if data[8] != RouteHeaderVersion {
		return RouteHeader{}, domain.Errorf(domain.ErrValidation, op, "unsupported version %d", data[8])
	}

	flags := data[9]
	return RouteHeader{
		Version:          data[8],
		WarmupEnabled:    flags&flagWarmup != 0,
		ShortEnabled:     flags&flagShorts != 0,
		ShortLeverageCap: binary.LittleEndian.Uint32(data[12:16]),
		WarmupEndsUnix:   int64(binary.LittleEndian.Uint64(data[16:24])),
	}, nil
}

// Encode writes the header in account layout.
func (h RouteHeader) Encode() []byte {
	out := make([]byte, RouteHeaderLen)
	copy(out[0:8], routeHeaderMagic[:])
	out[8] = h.Version
	if h.Version == 0 {
		out[8] = RouteHeaderVersion
	}
	if h.WarmupEnabled {
		out[9] |= flagWarmup
	}
	if h.ShortEnabled {
		out[9] |= flagShorts
	}
	binary.LittleEndian.PutUint32(out[12:16], h.ShortLeverageCap)
	binary.LittleEndian.PutUint64(out[16:24], uint64(h.WarmupEndsUnix))
	return out
}
