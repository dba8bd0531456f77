package csvio_test

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahgos/payment-engine/internal/adapter/csvio"
	"github.com/yahgos/payment-engine/internal/domain"
)

func snap(client uint16, available, held string, locked bool) domain.Snapshot {
	a := decimal.RequireFromString(available)
	h := decimal.RequireFromString(held)
	return domain.Snapshot{
		Client:    client,
		Available: a,
		Held:      h,
		Total:     a.Add(h),
		Locked:    locked,
	}
}

func TestWriter_WriteAll(t *testing.T) {
	var buf bytes.Buffer

	err := csvio.NewWriter(&buf).WriteAll([]domain.Snapshot{
		snap(1, "1.5", "0", false),
		snap(2, "-75", "100", false),
		snap(3, "0", "0", true),
	})
	require.NoError(t, err)

	want := "client,available,held,total,locked\n" +
		"1,1.5000,0.0000,1.5000,false\n" +
		"2,-75.0000,100.0000,25.0000,false\n" +
		"3,0.0000,0.0000,0.0000,true\n"
	assert.Equal(t, want, buf.String())
}

func TestWriter_EmptyReportKeepsHeader(t *testing.T) {
	var buf bytes.Buffer

	err := csvio.NewWriter(&buf).WriteAll(nil)
	require.NoError(t, err)

	assert.Equal(t, "client,available,held,total,locked\n", buf.String())
}
