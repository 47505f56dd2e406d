package tables

// AirportCities maps the ICAO codes seen in flight extracts to city names.
// Codes outside this table resolve to the Unknown sentinel.
var AirportCities = map[string]string{
	"CYYC": "Calgary",
	"CYYZ": "Toronto",
	"KSLC": "Salt Lake City",
	"KLAS": "Las Vegas",
	"CYVR": "Vancouver",
	"KMSO": "Missoula",
	"KMIO": "Miami",
	"CYXE": "Saskatoon",
	"CYLW": "Kelowna",
	"KREG": "Regina",
	"CYED": "Edmonton",
}

// airportCity resolves a code through lookup. Matching is exact; anything
// unmapped, including differently cased or padded codes, returns ok=false.
func airportCity(lookup map[string]string, code string) (string, bool) {
	city, ok := lookup[code]
	return city, ok
}
