package service

import (
	"fmt"
	"strings"

	"currencyrates/internal/repository"
)

// ValidateObservation checks a row before it is handed to the store.
func ValidateObservation(o repository.Observation) error {
	if !IsValidCurrencyCode(o.CurrencyCode) || o.CurrencyCode != strings.ToUpper(o.CurrencyCode) {
		return fmt.Errorf("%w: currency code %q", ErrInvalidObservation, o.CurrencyCode)
	}
	if len(o.TableType) != 1 || o.TableType[0] < 'A' || o.TableType[0] > 'Z' {
		return fmt.Errorf("%w: table type %q", ErrInvalidObservation, o.TableType)
	}
	if o.Rate.IsNegative() {
		return fmt.Errorf("%w: negative rate %s for %s", ErrInvalidObservation, o.Rate, o.CurrencyCode)
	}
	if o.EffectiveDate.IsZero() {
		return fmt.Errorf("%w: missing effective date for %s", ErrInvalidObservation, o.CurrencyCode)
	}
	return nil
}
