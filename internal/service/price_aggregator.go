package service

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/rab-api/internal/models"
	appErrors "github.com/noah-isme/rab-api/pkg/errors"
)

// itemTotalScale matches the NUMERIC(20,4) columns item totals are stored in.
const itemTotalScale = 4

var errPercentageNotSet = appErrors.Clone(appErrors.ErrBadRequest, "percentage benefits and risks has not been set")

// ComputeItemTotals returns price / minimumVolume * volume for material and fee.
// minimumVolume must be positive.
func ComputeItemTotals(volume, minimumVolume, materialPricePerUnit, feePricePerUnit decimal.Decimal) (material, fee decimal.Decimal) {
	material = materialPricePerUnit.Mul(volume).DivRound(minimumVolume, itemTotalScale)
	fee = feePricePerUnit.Mul(volume).DivRound(minimumVolume, itemTotalScale)
	return material, fee
}

// SectionTotals holds the sums over one section's items.
type SectionTotals struct {
	TotalMaterialPrice decimal.Decimal
	TotalFeePrice      decimal.Decimal
}

// DocumentTotals holds every derived amount of a document.
type DocumentTotals struct {
	Sections                   []SectionTotals
	PercentageBenefitsAndRisks int
	TotalMaterialPrice         decimal.Decimal
	TotalFeePrice              decimal.Decimal
	TotalMaterialAndFee        decimal.Decimal
	TotalBenefitsAndRisks      decimal.Decimal
	TotalPrice                 decimal.Decimal
}

// AggregateOptions tunes AggregateDocument.
type AggregateOptions struct {
	// PercentageDefaultsToZero treats an unset percentage as 0 instead of failing.
	PercentageDefaultsToZero bool
}

// AggregateDocument sums persisted item totals per section and per document and
// applies the benefits and risks surcharge. It does not touch the store.
func AggregateDocument(h *models.DocumentHierarchy, opts AggregateOptions) (*DocumentTotals, error) {
	percentage := 0
	switch {
	case h.Document.PercentageBenefitsAndRisks != nil:
		percentage = *h.Document.PercentageBenefitsAndRisks
	case !opts.PercentageDefaultsToZero:
		return nil, errPercentageNotSet
	}

	totals := &DocumentTotals{
		Sections:                   make([]SectionTotals, len(h.Sections)),
		PercentageBenefitsAndRisks: percentage,
		TotalMaterialPrice:         decimal.Zero,
		TotalFeePrice:              decimal.Zero,
	}
	for i, section := range h.Sections {
		st := SectionTotals{TotalMaterialPrice: decimal.Zero, TotalFeePrice: decimal.Zero}
		for _, item := range section.Items {
			st.TotalMaterialPrice = st.TotalMaterialPrice.Add(item.TotalMaterialPrice)
			st.TotalFeePrice = st.TotalFeePrice.Add(item.TotalFeePrice)
		}
		totals.Sections[i] = st
		totals.TotalMaterialPrice = totals.TotalMaterialPrice.Add(st.TotalMaterialPrice)
		totals.TotalFeePrice = totals.TotalFeePrice.Add(st.TotalFeePrice)
	}

	totals.TotalMaterialAndFee = totals.TotalMaterialPrice.Add(totals.TotalFeePrice)
	totals.TotalBenefitsAndRisks = totals.TotalMaterialAndFee.Mul(decimal.NewFromInt(int64(percentage))).Shift(-2)
	totals.TotalPrice = totals.TotalMaterialAndFee.Add(totals.TotalBenefitsAndRisks)
	return totals, nil
}
