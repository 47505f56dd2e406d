// Package extract pulls flight records from the FL3XX external API into the
// raw store, where the pipeline picks them up as the flight_data table.
//
// Every configured flight id is fetched with GET {base}{id} and the
// X-Auth-Token header. Non-200 responses are skipped with a warning;
// transport failures that persist after retries abort the extract. The
// fetched objects are flattened into one CSV whose header is the union of
// their keys in first-seen order.
package extract
