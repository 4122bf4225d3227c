package domain

import (
	"time"

	"github.com/couchcryptid/crime-map-etl/internal/table"
)

// Incident table columns, lower-case as published in the incident extract.
const (
	ColOffenseID            = "offense_id"
	ColOffenseCode          = "offense_code"
	ColOffenseCodeExtension = "offense_code_extension"
	ColOffenseTypeID        = "offense_type_id"
	ColOffenseCategoryID    = "offense_category_id"
	ColFirstOccurrenceDate  = "first_occurrence_date"
	ColLastOccurrenceDate   = "last_occurrence_date"
	ColReportedDate         = "reported_date"
	ColIncidentAddress      = "incident_address"
	ColGeoLon               = "geo_lon"
	ColGeoLat               = "geo_lat"
	ColNeighborhoodID       = "neighborhood_id"
	ColDistrictID           = "district_id"
	ColIsCrime              = "is_crime"
	ColIsTraffic            = "is_traffic"
	ColVictimCount          = "victim_count"
)

// Lookup-only columns, after NormalizeOffenseCodeColumns.
const (
	ColOffenseTypeName     = "offense_type_name"
	ColOffenseCategoryName = "offense_category_name"
)

// OffenseKey is the composite key shared by incidents and offense codes.
var OffenseKey = []string{
	ColOffenseCode,
	ColOffenseCodeExtension,
	ColOffenseTypeID,
	ColOffenseCategoryID,
}

// IncidentRecord is one reported offense.
type IncidentRecord struct {
	OffenseID            string     `json:"offense_id"`
	OffenseCode          string     `json:"offense_code"`
	OffenseCodeExtension string     `json:"offense_code_extension"`
	OffenseTypeID        string     `json:"offense_type_id"`
	OffenseCategoryID    string     `json:"offense_category_id"`
	FirstOccurrence      string     `json:"first_occurrence_date,omitempty"`
	LastOccurrence       string     `json:"last_occurrence_date,omitempty"`
	Reported             string     `json:"reported_date,omitempty"`
	ReportedDate         *time.Time `json:"reported_on,omitempty"` // nil when unparseable
	IncidentAddress      string     `json:"incident_address,omitempty"`
	Lon                  *float64   `json:"geo_lon,omitempty"`
	Lat                  *float64   `json:"geo_lat,omitempty"`
	NeighborhoodID       string     `json:"neighborhood_id,omitempty"`
	DistrictID           string     `json:"district_id,omitempty"`
	IsCrime              bool       `json:"is_crime"`
	IsTraffic            bool       `json:"is_traffic"`
	VictimCount          int        `json:"victim_count"`
}

// Key returns the record's offense-code foreign key.
func (r IncidentRecord) Key() OffenseCodeKey {
	return OffenseCodeKey{r.OffenseCode, r.OffenseCodeExtension, r.OffenseTypeID, r.OffenseCategoryID}
}

// OffenseCodeRecord is one row of the offense-code lookup table.
type OffenseCodeRecord struct {
	OffenseCode          string `json:"offense_code"`
	OffenseCodeExtension string `json:"offense_code_extension"`
	OffenseTypeID        string `json:"offense_type_id"`
	OffenseTypeName      string `json:"offense_type_name"`
	OffenseCategoryID    string `json:"offense_category_id"`
	OffenseCategoryName  string `json:"offense_category_name"`
}

// Key returns the lookup row's composite key.
func (r OffenseCodeRecord) Key() OffenseCodeKey {
	return OffenseCodeKey{r.OffenseCode, r.OffenseCodeExtension, r.OffenseTypeID, r.OffenseCategoryID}
}

// OffenseCodeKey holds the four key fields in OffenseKey order.
type OffenseCodeKey [4]string

// DecodeIncidents converts every row of an incident table to a record.
// Missing columns decode as zero values. A reported_date column that has
// already been reparsed fills ReportedDate.
func DecodeIncidents(t *table.Table) []IncidentRecord {
	out := make([]IncidentRecord, t.NumRows())
	for i := range out {
		row := t.Row(i)
		rec := IncidentRecord{
			OffenseID:            row.Get(ColOffenseID).Format(),
			OffenseCode:          row.Get(ColOffenseCode).Format(),
			OffenseCodeExtension: row.Get(ColOffenseCodeExtension).Format(),
			OffenseTypeID:        row.Get(ColOffenseTypeID).Format(),
			OffenseCategoryID:    row.Get(ColOffenseCategoryID).Format(),
			FirstOccurrence:      row.Get(ColFirstOccurrenceDate).Format(),
			LastOccurrence:       row.Get(ColLastOccurrenceDate).Format(),
			Reported:             row.Get(ColReportedDate).Format(),
			IncidentAddress:      row.Get(ColIncidentAddress).Format(),
			Lon:                  floatPtr(row.Get(ColGeoLon)),
			Lat:                  floatPtr(row.Get(ColGeoLat)),
			NeighborhoodID:       row.Get(ColNeighborhoodID).Format(),
			DistrictID:           row.Get(ColDistrictID).Format(),
			IsCrime:              flag(row.Get(ColIsCrime)),
			IsTraffic:            flag(row.Get(ColIsTraffic)),
			VictimCount:          int(row.Get(ColVictimCount).Float()),
		}
		if v := row.Get(ColReportedDate); !v.IsNull() && v.Kind() == table.KindDate {
			d := v.Time()
			rec.ReportedDate = &d
		}
		out[i] = rec
	}
	return out
}

// DecodeOffenseCodes converts a normalized offense-code table to records.
func DecodeOffenseCodes(t *table.Table) []OffenseCodeRecord {
	out := make([]OffenseCodeRecord, t.NumRows())
	for i := range out {
		row := t.Row(i)
		out[i] = OffenseCodeRecord{
			OffenseCode:          row.Get(ColOffenseCode).Format(),
			OffenseCodeExtension: row.Get(ColOffenseCodeExtension).Format(),
			OffenseTypeID:        row.Get(ColOffenseTypeID).Format(),
			OffenseTypeName:      row.Get(ColOffenseTypeName).Format(),
			OffenseCategoryID:    row.Get(ColOffenseCategoryID).Format(),
			OffenseCategoryName:  row.Get(ColOffenseCategoryName).Format(),
		}
	}
	return out
}

func floatPtr(v table.Value) *float64 {
	if v.IsNull() || v.Kind() != table.KindNumber {
		return nil
	}
	f := v.Float()
	return &f
}

func flag(v table.Value) bool {
	if v.IsNull() {
		return false
	}
	if v.Kind() == table.KindNumber {
		return v.Float() != 0
	}
	switch v.Str() {
	case "1", "true", "TRUE", "True", "Y", "y":
		return true
	}
	return false
}
