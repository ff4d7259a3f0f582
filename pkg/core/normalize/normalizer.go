// Package normalize turns accumulated table builders into clean manifest records
package normalize

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"sidu_reader/pkg/core/table"
	"sidu_reader/pkg/models"
)

// FlagNonNumericAmount marks a record whose cargo amount came out as NaN
const FlagNonNumericAmount = "non_numeric_amount"

// descriptionBoilerplate is removed from cargo descriptions
var descriptionBoilerplate = []string{"S/M", "s/m", "NO MARKS.", "no marks.", "PAQUETE"}

// Normalizer cleans builders for one run
type Normalizer struct {
	params    models.RunParams
	countries CountryNamer
	logger    *zap.Logger
}

// NewNormalizer creates a normalizer. A nil namer leaves country codes unresolved.
func NewNormalizer(params models.RunParams, countries CountryNamer, logger *zap.Logger) *Normalizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Normalizer{
		params:    params,
		countries: countries,
		logger:    logger.Named("normalize"),
	}
}

// NormalizeAll normalizes builders in order. The builders are consumed.
func (n *Normalizer) NormalizeAll(builders []*table.Builder) []models.Record {
	out := make([]models.Record, 0, len(builders))
	for _, b := range builders {
		out = append(out, n.Normalize(b))
	}
	return out
}

// Normalize flattens one builder into a record
func (n *Normalizer) Normalize(b *table.Builder) models.Record {
	rec := models.Record{
		CargoDescription: CleanDescription(b.Descriptions),
		CargoType:        packType(b.AmountTypes),
		Containers:       strings.Join(b.Containers, " | "),
		Line:             b.Line,
		BLNumber:         b.BLNumber,
		Pages:            strings.Join(b.Pages(), ", "),
		DestinationPort:  n.params.Port,
		OpType:           n.params.Operation,
	}
	if n.params.InputPath != "" {
		rec.File = filepath.Base(n.params.InputPath)
	}

	amount, err := firstAmount(b.AmountTypes)
	if err != nil {
		n.logger.Warn("cargo amount is not numeric",
			zap.String("key", b.Key), zap.Strings("values", b.AmountTypes), zap.Error(err))
		rec.Flags = append(rec.Flags, FlagNonNumericAmount)
	}
	rec.CargoAmount = amount

	parties := SplitParties(strings.Join(b.Parties, " "))
	rec.Shipper = parties.Shipper
	rec.Consignee = parties.Consignee
	if rec.Consignee == "" {
		rec.Consignee = parties.Notify
	}
	rec.Notify = parties.Notify
	rec.TotalContainers = parties.Containers

	rec.OriginPort, rec.Location = SplitLocations(b.Locations)

	code := countryCode(rec.OriginPort)
	rec.OriginCountry = n.countryName(code)
	if rec.OriginCountry == "" {
		rec.OriginCountry = code
	}
	rec.DestinationCountry = n.countryName(countryCode(n.params.Port))

	return rec
}

func (n *Normalizer) countryName(code string) string {
	if n.countries == nil || code == "" {
		return ""
	}
	return n.countries.CountryName(code)
}

// CleanDescription joins description pieces and drops marking boilerplate
func CleanDescription(parts []string) string {
	desc := strings.Join(parts, " ")
	for _, junk := range descriptionBoilerplate {
		desc = strings.ReplaceAll(desc, junk, "")
	}
	return strings.TrimSpace(desc)
}

// SplitLocations returns the origin port (first non-empty entry) and the remaining
// entries as a comma separated location.
func SplitLocations(entries []string) (originPort, location string) {
	var kept []string
	for _, e := range entries {
		if t := strings.TrimSpace(e); t != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return "", ""
	}
	location = strings.ReplaceAll(strings.Join(kept[1:], ", "), ",,", ",")
	return kept[0], location
}

func firstAmount(amountTypes []string) (string, error) {
	if len(amountTypes) == 0 {
		return NaN, ErrNonNumericAmount
	}
	return CoerceAmount(amountTypes[0])
}

// packType is the unit label in the second amount/type entry. A numeric second entry is
// a repeated quantity, not a label.
func packType(amountTypes []string) string {
	if len(amountTypes) < 2 || IsNumeric(amountTypes[1]) {
		return ""
	}
	return strings.TrimSpace(amountTypes[1])
}
