package domain

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"math"
)

// SnapshotDigest fingerprints every calculation-relevant field of a trade
// snapshot. Cache keys built from it discriminate histories that agree on
// trade count and dates but differ in prices, sizes, flags or commissions.
func SnapshotDigest(trades []Trade) uint64 {
	h := fnv.New64a()
	var buf [8]byte

	writeFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	writeInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	writeString := func(s string) {
		io.WriteString(h, s)
		h.Write([]byte{0})
	}
	// Nil and zero must hash differently, so optional fields carry a
	// presence marker
	writeFloatPtr := func(v *float64) {
		if v == nil {
			h.Write([]byte{0})
			return
		}
		h.Write([]byte{1})
		writeFloat(*v)
	}

	for _, t := range trades {
		writeString(t.Symbol)
		writeString(t.Strategy)
		writeString(string(t.Direction))
		writeInt(t.EntryDate.UnixNano())
		if t.ExitDate != nil {
			h.Write([]byte{1})
			writeInt(t.ExitDate.UnixNano())
		} else {
			h.Write([]byte{0})
		}
		writeFloat(t.EntryPrice)
		writeFloatPtr(t.ExitPrice)
		writeInt(int64(t.Quantity))
		writeFloatPtr(t.StopLoss)
		writeFloatPtr(t.TakeProfit)
		writeFloatPtr(t.MaxFavorablePrice)
		writeFloatPtr(t.MaxAdversePrice)
		writeFloat(t.MaxPotentialProfit)
		writeFloat(t.MaxDrawdown)
		switch {
		case t.BreakEvenWorked == nil:
			h.Write([]byte{0})
		case *t.BreakEvenWorked:
			h.Write([]byte{2})
		default:
			h.Write([]byte{1})
		}
		writeFloat(t.Commission)
	}
	return h.Sum64()
}
