package infer

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Bucket is the canonical type family a single cell value falls into.
type Bucket int

const (
	BucketBlank Bucket = iota
	BucketInteger
	BucketDecimal
	BucketDouble
	BucketBoolean
	BucketDateTime
	BucketText
)

func (b Bucket) String() string {
	switch b {
	case BucketBlank:
		return "blank"
	case BucketInteger:
		return "integer"
	case BucketDecimal:
		return "decimal"
	case BucketDouble:
		return "double"
	case BucketBoolean:
		return "boolean"
	case BucketDateTime:
		return "datetime"
	default:
		return "text"
	}
}

func (b Bucket) numeric() bool {
	return b == BucketInteger || b == BucketDecimal || b == BucketDouble
}

// maxDecimalPrecision and maxDecimalScale are MySQL's DECIMAL limits. Values
// that need more digits are proposed as double.
const (
	maxDecimalPrecision = 65
	maxDecimalScale     = 30
)

// classification is the outcome of looking at one cell.
type classification struct {
	bucket    Bucket
	intDigits int
	fracs     int
	when      time.Time
}

// dateSeparators guards string date detection so plain numbers and words
// never turn into dates.
const dateSeparators = "-/."

// classify puts a cell value into a bucket. Integral values inside the 32-bit
// signed range are integers, other integral values become decimal(n,0).
func classify(c Cell) classification {
	switch v := c.Value.(type) {
	case nil:
		if strings.TrimSpace(c.Text) == "" {
			return classification{bucket: BucketBlank}
		}
		return classifyString(c.Text)
	case time.Time:
		return classification{bucket: BucketDateTime, when: v}
	case bool:
		return classification{bucket: BucketBoolean}
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return classifyInteger(cast.ToString(v))
	case float32:
		return classifyFloat(float64(v))
	case float64:
		return classifyFloat(v)
	case string:
		return classifyString(v)
	case []byte:
		return classifyString(string(v))
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return classification{bucket: BucketText}
		}
		return classifyString(s)
	}
}

// classifyInteger buckets a signed integer literal as INT when it fits the
// signed 32-bit range. intDigits never counts the sign.
func classifyInteger(literal string) classification {
	digits := len(strings.TrimLeft(literal, "+-"))
	n, err := strconv.ParseInt(literal, 10, 64)
	if err == nil && n >= math.MinInt32 && n <= math.MaxInt32 {
		return classification{bucket: BucketInteger, intDigits: digits}
	}
	return classification{bucket: BucketDecimal, intDigits: digits}
}

func classifyFloat(f float64) classification {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return classification{bucket: BucketText}
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return classifyInteger(strconv.FormatFloat(f, 'f', 0, 64))
	}
	s := strconv.FormatFloat(math.Abs(f), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	if len(whole)+len(frac) > maxDecimalPrecision || len(frac) > maxDecimalScale {
		return classification{bucket: BucketDouble}
	}
	return classification{bucket: BucketDecimal, intDigits: len(whole), fracs: len(frac)}
}

func classifyString(raw string) classification {
	s := strings.TrimSpace(raw)
	if s == "" {
		return classification{bucket: BucketBlank}
	}
	if looksNumeric(s) {
		if hasLeadingZero(s) {
			return classification{bucket: BucketText}
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			return classifyInteger(s)
		}
		if _, err := strconv.ParseFloat(s, 64); err == nil {
			unsigned := strings.TrimLeft(s, "+-")
			if strings.ContainsAny(unsigned, "eE") {
				return classification{bucket: BucketDouble}
			}
			whole, frac, _ := strings.Cut(unsigned, ".")
			if len(whole)+len(frac) > maxDecimalPrecision || len(frac) > maxDecimalScale {
				return classification{bucket: BucketDouble}
			}
			return classification{bucket: BucketDecimal, intDigits: len(whole), fracs: len(frac)}
		}
		// Too large for int64: still integral.
		return classification{bucket: BucketDecimal, intDigits: len(strings.TrimLeft(s, "+-"))}
	}
	if strings.ContainsAny(s, dateSeparators) {
		if t, err := cast.ToTimeE(s); err == nil {
			return classification{bucket: BucketDateTime, when: t}
		}
	}
	return classification{bucket: BucketText}
}

// looksNumeric accepts an optional sign, digits, at most one dot and an
// optional exponent. Hex literals and "Inf" stay text.
func looksNumeric(s string) bool {
	s = strings.TrimLeft(s, "+-")
	if s == "" {
		return false
	}
	digits, dots, exp := 0, 0, false
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.' && !exp:
			dots++
		case (r == 'e' || r == 'E') && digits > 0 && !exp && i < len(s)-1:
			exp = true
		case (r == '+' || r == '-') && exp && (s[i-1] == 'e' || s[i-1] == 'E'):
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// hasLeadingZero reports codes like "007" or "-01", which lose information
// when stored as numbers.
func hasLeadingZero(s string) bool {
	s = strings.TrimLeft(s, "+-")
	return len(s) > 1 && s[0] == '0' && s[1] != '.'
}
