package models_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rfq/models"
)

func TestRFQNumber(t *testing.T) {
	require.Equal(t, "GP-MSK-001", models.RFQNumber("MSK", 1))
	require.Equal(t, "GP-SPB-042", models.RFQNumber("SPB", 42))
	// После 999 номер растет, а не обрезается
	require.Equal(t, "GP-MSK-1000", models.RFQNumber("MSK", 1000))
}

func TestQuotationNumber(t *testing.T) {
	require.Equal(t, "Q-GP-MSK-001-SUP1-001", models.QuotationNumber("GP-MSK-001", "SUP1", 1))
	require.Equal(t, "Q-GP-MSK-001-SUP1-002", models.QuotationNumber("GP-MSK-001", "SUP1", 2))
}

func TestSequenceScopes(t *testing.T) {
	require.Equal(t, "rfq:MSK", models.SequenceScopeRFQ("MSK"))
	require.NotEqual(t, models.SequenceScopeRFQ("MSK"), models.SequenceScopeRFQ("SPB"))
	require.Equal(t, "quotation:GP-MSK-001:SUP1", models.SequenceScopeQuotation("GP-MSK-001", "SUP1"))
}
