package service

import (
	"fmt"
	"math/big"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/agbru/megacalc/internal/sequence"
	"github.com/agbru/megacalc/pkg/models"
)

// Checksum returns the xxh64 digest of the decimal form of v as 16 hex digits.
func Checksum(v *big.Int) string {
	return ChecksumString(v.String())
}

// ChecksumString returns the xxh64 digest of a decimal string.
func ChecksumString(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ResultDocument converts a result into its JSON document. The decimal value
// is included only when withValue is set.
func ResultDocument(req sequence.Request, res sequence.Result, withValue bool) models.CalculationResult {
	doc := models.CalculationResult{
		Kind:            req.Kind.String(),
		Mode:            req.Mode.String(),
		Target:          req.Target,
		ResolvedIndex:   res.ResolvedIndex,
		Digits:          res.DigitCount,
		Checksum:        Checksum(res.Value),
		DurationMS:      millis(res.Elapsed),
		PeakMemoryBytes: res.PeakMemory,
	}
	if withValue {
		doc.Value = res.Value.String()
	}
	return doc
}

// EstimateDocument converts a forecast into its JSON document.
func EstimateDocument(req sequence.Request, est Estimate, limit time.Duration) models.EstimateResult {
	return models.EstimateResult{
		Kind:           req.Kind.String(),
		Mode:           req.Mode.String(),
		Target:         req.Target,
		PredictedMS:    millis(est.Predicted),
		LimitMS:        millis(limit),
		WillExceed:     est.WillExceed,
		ExpectedDigits: est.ExpectedDigits,
		Model:          est.Model.Transform.String(),
	}
}
