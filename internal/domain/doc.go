// Package domain models the Denver Police Department crime extract and the
// questions the pipeline asks of it.
//
// # Data Source
//
// Both resources come from the City and County of Denver open data catalog
// as CSV with a header row:
//
//	crime.csv          one row per reported offense (lower-case columns)
//	offense_codes.csv  the offense-code lookup (UPPER-CASE columns)
//
// Offenses are classified with a two-level taxonomy derived from NIBRS
// (National Incident Based Reporting System): a coarse category tag such
// as "other-crimes-against-persons" and a fine type tag such as
// "weapon-fire-into-occ-bldg". Both are lower-case, hyphenated slugs.
//
// # Offense-code key
//
// An incident references its lookup row through four columns, see
// [OffenseKey]. The lookup table only shares that key once its columns are
// lower-cased with [NormalizeOffenseCodeColumns]. Skipping that step does not
// fail: [JoinOffenseCodes] simply matches nothing.
//
// # Dates
//
// reported_date arrives as text, "M/D/YYYY h:mm:ss AM". [ParseReportedDates]
// converts the whole column to calendar dates once; the time of day is
// dropped and unparseable values become null. [FilterGeoWindow] refuses a
// table whose reported_date has not been converted.
//
// # Coordinates
//
// geo_lon and geo_lat are WGS-84 degrees. Many rows have no coordinates;
// those never pass a bounding-box filter.
package domain
