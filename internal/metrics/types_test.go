package metrics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuarterMetricsJSONMissingAsNull(t *testing.T) {
	row := QuarterMetrics{
		Ticker:          "AAPL",
		PeriodEnd:       day(2023, 3, 31),
		Revenue:         100,
		OperatingIncome: Missing(),
		EPS:             1.5,
		Equity:          Missing(),
		Shares:          Missing(),
		Price:           150,
		PER:             100,
		PBR:             Missing(),
		PriceSource:     "stooq:d",
	}

	data, err := json.Marshal(row)
	require.NoError(t, err, "missing sentinels must never reach the encoder as NaN")

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "2023-03-31", decoded["period_end"])
	assert.Equal(t, 100.0, decoded["revenue"])
	assert.Nil(t, decoded["operating_income"])
	assert.Nil(t, decoded["pbr"])

	var back QuarterMetrics
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, IsMissing(back.OperatingIncome))
	assert.Equal(t, 1.5, back.EPS)
}

