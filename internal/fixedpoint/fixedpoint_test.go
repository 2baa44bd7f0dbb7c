package fixedpoint

import (
	"math/big"
	"testing"

	"github.com/nmoretto/oraclewatch/internal/apperror"
)

func TestFromRaw(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		decimals uint8
		want     string
		wantCode apperror.Code
	}{
		{
			name:     "8 decimal source upscales to canonical",
			value:    "250000000000", // 2500.00000000
			decimals: 8,
			want:     "2500",
		},
		{
			name:     "already canonical passes through",
			value:    "1500000000000000000", // 1.5 at 18 decimals
			decimals: 18,
			want:     "1.5",
		},
		{
			name:     "zero decimals",
			value:    "42",
			decimals: 0,
			want:     "42",
		},
		{
			name:     "zero value is valid",
			value:    "0",
			decimals: 8,
			want:     "0",
		},
		{
			name:     "negative raw value rejected",
			value:    "-100000000",
			decimals: 8,
			wantCode: apperror.CodeInvalidPrice,
		},
		{
			name:     "more than canonical decimals rejected",
			value:    "1000000000000000000000",
			decimals: 19,
			wantCode: apperror.CodePrecisionLoss,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := new(big.Int).SetString(tt.value, 10)
			if !ok {
				t.Fatalf("bad fixture %q", tt.value)
			}

			p, err := FromRaw(raw, tt.decimals)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("FromRaw(%s, %d) = %s, want error %s", tt.value, tt.decimals, p, tt.wantCode)
				}
				if got := apperror.GetCode(err); got != tt.wantCode {
					t.Fatalf("FromRaw(%s, %d) error code = %s, want %s", tt.value, tt.decimals, got, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("FromRaw(%s, %d) unexpected error: %v", tt.value, tt.decimals, err)
			}
			if got := p.String(); got != tt.want {
				t.Errorf("FromRaw(%s, %d) = %s, want %s", tt.value, tt.decimals, got, tt.want)
			}
		})
	}
}

func TestFromRawOverflow(t *testing.T) {
	// 2^256 - 1 is the largest representable value. Upscaling it by any
	// positive number of decimals must overflow.
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	if _, err := FromRaw(max, 18); err != nil {
		t.Fatalf("max value at canonical scale should fit: %v", err)
	}

	_, err := FromRaw(max, 8)
	if err == nil {
		t.Fatal("upscaled max value should overflow")
	}
	if got := apperror.GetCode(err); got != apperror.CodeArithmeticOverflow {
		t.Errorf("error code = %s, want %s", got, apperror.CodeArithmeticOverflow)
	}
}

func TestPriceArithmetic(t *testing.T) {
	t.Run("add", func(t *testing.T) {
		a := MustFromString("2500.5")
		b := MustFromString("0.5")
		sum, err := a.Add(b)
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if got := sum.String(); got != "2501" {
			t.Errorf("Add = %s, want 2501", got)
		}
	})

	t.Run("sub to zero", func(t *testing.T) {
		a := MustFromString("100")
		diff, err := a.Sub(a)
		if err != nil {
			t.Fatalf("Sub: %v", err)
		}
		if !diff.IsZero() {
			t.Errorf("Sub = %s, want 0", diff)
		}
	})

	t.Run("sub negative result fails", func(t *testing.T) {
		a := MustFromString("1")
		b := MustFromString("2")
		if _, err := a.Sub(b); apperror.GetCode(err) != apperror.CodeArithmeticOverflow {
			t.Errorf("Sub underflow code = %s, want %s", apperror.GetCode(err), apperror.CodeArithmeticOverflow)
		}
	})

	t.Run("mul by scalar", func(t *testing.T) {
		a := MustFromString("12.5")
		prod, err := a.MulUint64(4)
		if err != nil {
			t.Fatalf("MulUint64: %v", err)
		}
		if got := prod.String(); got != "50" {
			t.Errorf("MulUint64 = %s, want 50", got)
		}
	})

	t.Run("mul price rescales", func(t *testing.T) {
		a := MustFromString("0.001")
		b := MustFromString("3000")
		prod, err := a.MulPrice(b)
		if err != nil {
			t.Fatalf("MulPrice: %v", err)
		}
		if got := prod.String(); got != "3" {
			t.Errorf("MulPrice = %s, want 3", got)
		}
	})

	t.Run("abs diff symmetric", func(t *testing.T) {
		a := MustFromString("2505")
		b := MustFromString("2500")
		if got := a.AbsDiff(b).String(); got != "5" {
			t.Errorf("AbsDiff(a,b) = %s, want 5", got)
		}
		if got := b.AbsDiff(a).String(); got != "5" {
			t.Errorf("AbsDiff(b,a) = %s, want 5", got)
		}
	})
}

func TestPriceComparisons(t *testing.T) {
	low := MustFromString("2500")
	high := MustFromString("2505")

	if low.Cmp(high) != -1 || high.Cmp(low) != 1 || low.Cmp(low) != 0 {
		t.Error("Cmp ordering broken")
	}
	if !low.Equal(MustFromString("2500.000")) {
		t.Error("Equal should ignore trailing zeros in fixtures")
	}
	if Zero().Sign() != 0 || low.Sign() != 1 {
		t.Error("Sign broken")
	}
}

func TestZeroValuePriceIsUsable(t *testing.T) {
	var p Price
	if !p.IsZero() {
		t.Error("zero value Price should be zero")
	}
	if p.Raw().Sign() != 0 {
		t.Error("zero value Raw should be 0")
	}
	if got := p.String(); got != "0" {
		t.Errorf("zero value String = %s, want 0", got)
	}
}

func BenchmarkFromRaw(b *testing.B) {
	raw := big.NewInt(250012345678)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = FromRaw(raw, 8)
	}
}
