package tables

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/etl/internal/core"
)

// FlightColumns are the source columns kept from the flight extract, in
// output order.
var FlightColumns = []string{
	"flightId",
	"quoteId",
	"accountId",
	"flightNumber",
	"registrationNumber",
	"airportFrom",
	"airportTo",
	"eta",
	"etd",
}

// Positions within FlightColumns.
const (
	flightRegistration = 4
	flightAirportFrom  = 5
	flightAirportTo    = 6
	flightETA          = 7
	flightETD          = 8
)

// FlightCleaner cleans the flight_data extract against an airport lookup.
type FlightCleaner struct {
	Airports map[string]string
}

// Clean projects the nine flight columns, resolves airport codes to cities
// and parses eta/etd. An unparseable timestamp fails the table.
func (c FlightCleaner) Clean(raw core.RawTable) (*core.Frame, error) {
	idx, err := core.RequireColumns(raw.Name, raw.Columns, FlightColumns...)
	if err != nil {
		return nil, err
	}

	f := core.FromRaw(raw).Project(idx...)

	f.MapText(flightRegistration, stripCountryPrefix)
	f.MapText(flightAirportFrom, c.city)
	f.MapText(flightAirportTo, c.city)

	for _, col := range []int{flightETA, flightETD} {
		err := f.Convert(col, core.FieldTimestamp, func(t pgtype.Text) (any, error) {
			return core.ParseTimestamp(t)
		})
		if err != nil {
			return nil, err
		}
	}

	if err := f.RenameColumns(core.NormalizeLower); err != nil {
		return nil, err
	}
	f.Dedupe()
	return f, nil
}

func (c FlightCleaner) city(code pgtype.Text) pgtype.Text {
	if code.Valid {
		if name, ok := airportCity(c.Airports, code.String); ok {
			return core.ToPgText(name)
		}
	}
	return core.ToPgText(core.UnknownValue)
}
