package datasource

import (
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"
	"unicode/utf8"
)

// NormalizeValue converts driver-specific values into JSON-friendly types.
// Text stays text, exact decimals become float64, invalid UTF-8 bytes become hex.
// NaN and infinities have no JSON form and become nil.
func NormalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return hex.EncodeToString(val)
	case *big.Rat:
		if val == nil {
			return nil
		}
		f, _ := val.Float64()
		return FiniteOrNil(f)
	case *big.Int:
		if val == nil {
			return nil
		}
		if val.IsInt64() {
			return val.Int64()
		}
		return val.String()
	case *big.Float:
		if val == nil {
			return nil
		}
		f, _ := val.Float64()
		return FiniteOrNil(f)
	case float64:
		return FiniteOrNil(val)
	case float32:
		if f := float64(val); math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return val
	case time.Time:
		return val
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return val
	}
}

// FiniteOrNil returns f, or nil when f is NaN or infinite.
func FiniteOrNil(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// UniqueColumnNames suffixes repeated names ("Total", "Total_2") so rows
// keep every column when rendered as JSON objects.
func UniqueColumnNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		seen[name]++
		if n := seen[name]; n > 1 {
			candidate := name + "_" + strconv.Itoa(n)
			for seen[candidate] > 0 {
				n++
				candidate = name + "_" + strconv.Itoa(n)
			}
			seen[candidate]++
			out[i] = candidate
			continue
		}
		out[i] = name
	}
	return out
}
