package service

import (
	"context"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"currencyrates/internal/config"
	"currencyrates/internal/repository"
)

// conversionTable is the table whose mid rates drive conversions.
const conversionTable = "A"

// Conversion is an amount expressed in Currency, rounded to two decimals.
type Conversion struct {
	Currency string          `json:"currency" example:"EUR"`
	Amount   decimal.Decimal `json:"amount" example:"22.22"`
}

// ConverterInterface defines the conversion read path.
type ConverterInterface interface {
	Convert(ctx context.Context, amount decimal.Decimal, source string, targets []string) []Conversion
	AllowedTargets() []string
}

// Converter converts amounts through the base currency using the newest stored rates.
type Converter struct {
	rates   repository.RateRepository
	cache   *RatesCache
	log     *zap.SugaredLogger
	base    string
	allowed []string
}

// NewConverter creates a new Converter.
func NewConverter(rates repository.RateRepository, cache *RatesCache, logger *zap.SugaredLogger, cfg config.ConversionConfig) *Converter {
	return &Converter{
		rates:   rates,
		cache:   cache,
		log:     logger,
		base:    strings.ToUpper(cfg.BaseCurrency),
		allowed: AllowedCurrencies(cfg.AllowedCurrencies),
	}
}

// AllowedTargets returns the configured display currencies.
func (c *Converter) AllowedTargets() []string {
	return slices.Clone(c.allowed)
}

// Convert expresses amount in source currency in each target currency.
// The base currency has rate 1. Targets without a positive rate are omitted.
// If the source rate is unknown the result is empty. Convert never fails.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, source string, targets []string) []Conversion {
	source = strings.ToUpper(strings.TrimSpace(source))
	targets = normalizeCodes(targets)
	if source == "" || len(targets) == 0 {
		return []Conversion{}
	}

	need := make([]string, 0, len(targets)+1)
	for _, code := range append([]string{source}, targets...) {
		if code != c.base && !slices.Contains(need, code) {
			need = append(need, code)
		}
	}

	rates, err := c.latest(ctx, need)
	if err != nil {
		c.log.Errorw("Failed to load latest rates", "codes", need, "error", err)
		return []Conversion{}
	}

	amountBase := amount
	if source != c.base {
		r, ok := rates[source]
		if !ok || !r.IsPositive() {
			return []Conversion{}
		}
		amountBase = amount.Mul(r)
	}

	out := make([]Conversion, 0, len(targets))
	for _, target := range targets {
		r := decimal.NewFromInt(1)
		if target != c.base {
			var ok bool
			if r, ok = rates[target]; !ok || !r.IsPositive() {
				continue
			}
		}
		out = append(out, Conversion{Currency: target, Amount: amountBase.Div(r).Round(2)})
	}
	return out
}

func (c *Converter) latest(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	if len(codes) == 0 {
		return map[string]decimal.Decimal{}, nil
	}

	rates, missing := c.cache.Get(ctx, conversionTable, codes)
	if len(missing) == 0 {
		return rates, nil
	}

	gen := c.cache.Generation(ctx, conversionTable)
	fresh, err := c.rates.LatestPerCurrency(ctx, conversionTable, missing)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, conversionTable, gen, fresh)
	for code, r := range fresh {
		rates[code] = r
	}
	return rates, nil
}

// FormatConversions renders conversions as "EUR: 1 234.57 EUR".
func FormatConversions(conversions []Conversion) []string {
	out := make([]string, 0, len(conversions))
	for _, c := range conversions {
		out = append(out, c.Currency+": "+FormatAmount(c.Amount, c.Currency))
	}
	return out
}

// FormatAmount renders amount with two decimals, a space as thousands separator and the ISO code.
func FormatAmount(amount decimal.Decimal, iso string) string {
	s := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, ch := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(ch)
	}
	return sign + b.String() + "." + frac + " " + iso
}

// AllowedCurrencies parses a comma-separated code list, dropping blanks, invalid codes and repeats.
func AllowedCurrencies(csv string) []string {
	return normalizeCodes(strings.Split(csv, ","))
}

func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if !IsValidCurrencyCode(code) || slices.Contains(out, code) {
			continue
		}
		out = append(out, code)
	}
	return out
}
