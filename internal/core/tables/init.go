// Package tables defines the cleaner for every source table kind.
// Each file holds one table; Definitions wires them into a core.Registry.
package tables

import (
	"fmt"
	"maps"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

// CountryPrefix is the registration prefix stripped from tail numbers.
const CountryPrefix = "C-"

// Config carries the lookup data the cleaners depend on.
type Config struct {
	// Airports maps airport codes to city names for flight data.
	Airports map[string]string
}

// DefaultConfig returns the production lookup data.
func DefaultConfig() Config {
	return Config{Airports: maps.Clone(AirportCities)}
}

// Definitions returns one definition per core.Kind.
// The airport table is copied so later changes to cfg do not leak into the
// cleaners.
func Definitions(cfg Config) []core.TableDefinition {
	cfg.Airports = maps.Clone(cfg.Airports)

	kinds := core.Kinds()
	defs := make([]core.TableDefinition, 0, len(kinds))
	for _, k := range kinds {
		defs = append(defs, definitionFor(k, cfg))
	}
	return defs
}

// NewRegistry builds a registry holding every table cleaner.
func NewRegistry(cfg Config) (*core.Registry, error) {
	return core.NewRegistry(Definitions(cfg)...)
}

// definitionFor is the single dispatch point from kind to cleaner.
// Adding a core.Kind without a case here panics at registry build time.
func definitionFor(k core.Kind, cfg Config) core.TableDefinition {
	switch k {
	case core.KindAircraft:
		return single(k, "Aircraft", CleanAircraft)
	case core.KindOpportunity:
		return single(k, "Opportunities", CleanOpportunity)
	case core.KindFlightData:
		return single(k, "Flight Data", FlightCleaner{Airports: cfg.Airports}.Clean)
	case core.KindInvoices:
		return single(k, "Invoices", CleanInvoices)
	case core.KindAsset:
		return single(k, "Assets", CleanAsset)
	case core.KindAccount:
		return core.TableDefinition{
			Info: core.TableInfo{
				Kind:    k,
				Source:  k.Source(),
				Label:   "Accounts",
				Outputs: []string{k.Source(), core.OwnershipTable},
			},
			Clean: func(raw core.RawTable) ([]*core.Frame, error) {
				accounts, owners, err := SplitAccounts(raw)
				if err != nil {
					return nil, err
				}
				return []*core.Frame{accounts, owners}, nil
			},
		}
	default:
		panic(fmt.Sprintf("tables: no cleaner for kind %d", k))
	}
}

func single(k core.Kind, label string, fn func(core.RawTable) (*core.Frame, error)) core.TableDefinition {
	return core.TableDefinition{
		Info: core.TableInfo{
			Kind:    k,
			Source:  k.Source(),
			Label:   label,
			Outputs: []string{k.Source()},
		},
		Clean: func(raw core.RawTable) ([]*core.Frame, error) {
			f, err := fn(raw)
			if err != nil {
				return nil, err
			}
			return []*core.Frame{f}, nil
		},
	}
}

// stripCountryPrefix removes every occurrence of the country prefix.
func stripCountryPrefix(c pgtype.Text) pgtype.Text {
	if !c.Valid {
		return c
	}
	return pgtype.Text{String: strings.ReplaceAll(c.String, CountryPrefix, ""), Valid: true}
}
