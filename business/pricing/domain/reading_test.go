package domain

import (
	"math/big"
	"testing"
	"time"

	"github.com/nmoretto/oraclewatch/internal/apperror"
)

func activeConfig() SourceConfig {
	return SourceConfig{
		Source:       "chainlink-eth-usd",
		Asset:        "ETH-USD",
		Provider:     "chainlink",
		Ref:          "0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419",
		MaxStaleness: 60 * time.Second,
		Active:       true,
	}
}

func TestValidateReading(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		answer   string
		decimals uint8
		age      time.Duration
		mutate   func(*SourceConfig)
		want     string
		wantCode apperror.Code
	}{
		{
			name:     "valid_8_decimal_reading",
			answer:   "250000000000", // 2500 at 8 decimals
			decimals: 8,
			age:      10 * time.Second,
			want:     "2500",
		},
		{
			name:     "inactive_source_rejected",
			answer:   "250000000000",
			decimals: 8,
			age:      10 * time.Second,
			mutate:   func(c *SourceConfig) { c.Active = false },
			wantCode: apperror.CodeOracleInactive,
		},
		{
			name:     "zero_answer_rejected",
			answer:   "0",
			decimals: 8,
			age:      10 * time.Second,
			wantCode: apperror.CodeInvalidPrice,
		},
		{
			name:     "negative_answer_rejected",
			answer:   "-250000000000",
			decimals: 8,
			age:      10 * time.Second,
			wantCode: apperror.CodeInvalidPrice,
		},
		{
			name:     "stale_reading_rejected",
			answer:   "250000000000",
			decimals: 8,
			age:      61 * time.Second,
			wantCode: apperror.CodeStaleData,
		},
		{
			name:     "age_exactly_at_bound_accepted",
			answer:   "250000000000",
			decimals: 8,
			age:      60 * time.Second,
			want:     "2500",
		},
		{
			// inactive wins over invalid price: check order is fixed
			name:     "inactive_checked_before_price",
			answer:   "0",
			decimals: 8,
			age:      10 * time.Second,
			mutate:   func(c *SourceConfig) { c.Active = false },
			wantCode: apperror.CodeOracleInactive,
		},
		{
			name:     "invalid_price_checked_before_staleness",
			answer:   "-1",
			decimals: 8,
			age:      61 * time.Second,
			wantCode: apperror.CodeInvalidPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := activeConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}

			answer, ok := new(big.Int).SetString(tt.answer, 10)
			if !ok {
				t.Fatalf("bad fixture %q", tt.answer)
			}
			raw := RawReading{
				Answer:    answer,
				Decimals:  tt.decimals,
				UpdatedAt: now.Add(-tt.age),
			}

			price, err := ValidateReading(raw, cfg, now)
			if tt.wantCode != "" {
				if err == nil {
					t.Fatalf("ValidateReading = %s, want error %s", price, tt.wantCode)
				}
				if got := apperror.GetCode(err); got != tt.wantCode {
					t.Fatalf("error code = %s, want %s", got, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateReading: %v", err)
			}
			if got := price.String(); got != tt.want {
				t.Errorf("ValidateReading = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValidateReadingNilAnswer(t *testing.T) {
	cfg := activeConfig()
	raw := RawReading{Answer: nil, Decimals: 8, UpdatedAt: time.Now()}

	_, err := ValidateReading(raw, cfg, time.Now())
	if got := apperror.GetCode(err); got != apperror.CodeInvalidPrice {
		t.Errorf("error code = %s, want %s", got, apperror.CodeInvalidPrice)
	}
}
