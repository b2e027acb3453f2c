// Package domain models tidal flood-stage conditions for a single
// monitoring site on the Delaware Bay.
//
// # Data Sources
//
// Water levels come from three public feeds plus two same-origin datasets:
//
//   - USGS instantaneous values (waterservices.usgs.gov/nwis/iv): observed
//     gauge height in feet, typically every 6 minutes.
//   - NOAA CO-OPS predictions (api.tidesandcurrents.noaa.gov): harmonic tide
//     predictions for a nearby station, 6-minute interval.
//   - NWS active alerts (api.weather.gov/alerts/active): GeoJSON feature
//     collection queried by point; only coastal flood events are of interest.
//   - A USGS daily-statistics RDB export (tab-delimited text) of historical
//     daily maxima, and pre-baked JSON datasets served alongside the
//     dashboard.
//
// # Vertical Datums
//
// Tide predictions are published relative to MLLW (mean lower low water)
// while the gauge and the flood-stage thresholds are referenced to NAVD88.
// The two differ by a fixed site-specific offset taken from the NOAA datum
// tables; see [ConvertDatum]. Every predicted value must be shifted before it
// is compared against a threshold.
//
// # Flood Categories
//
// Water levels classify into four mutually exclusive categories against
// three strictly ascending NWS-style stage thresholds:
//
//	level < minor              → No flood
//	minor ≤ level < moderate   → Minor
//	moderate ≤ level < major   → Moderate
//	major ≤ level              → Major
//
// Classification is total: NaN, ±Inf, and absent readings classify as
// No flood rather than erroring. See [Thresholds.Classify].
//
// # USGS RDB Format
//
// The daily-statistics export is line-oriented text. Lines starting with '#'
// are comments. The first non-comment line beginning with "agency_cd" is the
// header naming the tab-delimited columns. Required columns are the strict
// YYYY-MM-DD date column and the two statistic columns for the daily maximum
// and the daily minimum-of-highs. Rows with missing fields, malformed dates,
// or non-numeric values are skipped individually; a missing header or missing
// required column fails the whole parse with [ErrMalformedStats]. See
// [ParseDailyStats].
package domain
