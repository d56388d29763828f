package infer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want Bucket
	}{
		{"nil", Cell{}, BucketBlank},
		{"whitespace", Cell{Value: "  "}, BucketBlank},
		{"int", Cell{Value: 12}, BucketInteger},
		{"uint8", Cell{Value: uint8(3)}, BucketInteger},
		{"integral float", Cell{Value: 12.0}, BucketInteger},
		{"float", Cell{Value: 12.5}, BucketDecimal},
		{"int64 overflow int32", Cell{Value: int64(1) << 40}, BucketDecimal},
		{"numeric string", Cell{Value: "-17"}, BucketInteger},
		{"int32 max", Cell{Value: int64(2147483647)}, BucketInteger},
		{"int32 max plus one", Cell{Value: int64(2147483648)}, BucketDecimal},
		{"negative int32 max", Cell{Value: int64(-2147483647)}, BucketInteger},
		{"int32 min", Cell{Value: int64(-2147483648)}, BucketInteger},
		{"int32 min minus one", Cell{Value: int64(-2147483649)}, BucketDecimal},
		{"int32 min string", Cell{Value: "-2147483648"}, BucketInteger},
		{"int32 max plus one string", Cell{Value: "2147483648"}, BucketDecimal},
		{"decimal string", Cell{Value: "3.14"}, BucketDecimal},
		{"leading zero", Cell{Value: "007"}, BucketText},
		{"zero point", Cell{Value: "0.5"}, BucketDecimal},
		{"exponent", Cell{Value: "6.02e23"}, BucketDouble},
		{"bool", Cell{Value: true}, BucketBoolean},
		{"time", Cell{Value: time.Now()}, BucketDateTime},
		{"date string", Cell{Value: "2023-12-31"}, BucketDateTime},
		{"text only", Cell{Text: "hello"}, BucketText},
		{"hex stays text", Cell{Value: "0x1F"}, BucketText},
		{"dotted version", Cell{Value: "1.2.3"}, BucketText},
		{"word", Cell{Value: "Inf"}, BucketText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.cell).bucket)
		})
	}
}

func TestWiden(t *testing.T) {
	assert.Equal(t, BucketDecimal, widen(BucketInteger, BucketDecimal))
	assert.Equal(t, BucketDouble, widen(BucketDouble, BucketInteger))
	assert.Equal(t, BucketText, widen(BucketInteger, BucketDateTime))
	assert.Equal(t, BucketText, widen(BucketBoolean, BucketText))
	assert.Equal(t, BucketDateTime, widen(BucketDateTime, BucketDateTime))
}

func TestClassifyIntegerDigitsSkipSign(t *testing.T) {
	tests := []struct {
		literal    string
		wantBucket Bucket
		wantDigits int
	}{
		{"2147483647", BucketInteger, 10},
		{"-2147483648", BucketInteger, 10},
		{"+42", BucketInteger, 2},
		{"-2147483649", BucketDecimal, 10},
	}
	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			got := classifyInteger(tt.literal)
			assert.Equal(t, tt.wantBucket, got.bucket)
			assert.Equal(t, tt.wantDigits, got.intDigits)
		})
	}
}
