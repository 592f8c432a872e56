// Package domain models the crop recommendation request, the feature row
// handed to the classifier, and the recommendation returned to clients.
//
// # Districts
//
// The service recognizes the 12 districts of Kerala. Each district has:
//
//	a one-hot feature column  "district_<lowercase name>", e.g. "district_wayanad"
//	a dominant soil type      e.g. Wayanad → "Red Soil"
//
// Names are matched exactly ("Thrissur", not "thrissur"). Unknown names never
// fail a request: the feature column falls back to Ernakulam and the soil
// type falls back to "Laterite". The two fallbacks are independent, so
// "Atlantis" is scored as Ernakulam but reported with Laterite soil.
//
// # Feature Row Layout
//
// The classifier is positional. Rows are always projected onto the reference
// schema in order:
//
//	year, rainfall, monsoon, score, district_ernakulam, ..., district_wayanad
//
// monsoon is derived as rainfall × 0.6 (the share of annual rainfall that
// falls during the south-west monsoon). score is the district's historical
// average score on the fraction scale [0,1].
//
// # Request Defaults
//
// Every request field is optional. Absent, null or mistyped fields take their
// defaults:
//
//	district     "Ernakulam"
//	rainfall     2500 (mm/year)
//	temperature  28 (°C)
//	year         2024
//
// Numeric strings such as "2500" are coerced. lat/lng are accepted for client
// compatibility but do not contribute to the feature row.
package domain
