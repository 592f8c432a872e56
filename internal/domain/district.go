package domain

import "strings"

// District is one of the Kerala districts the classifier was trained on.
type District string

const (
	Ernakulam          District = "Ernakulam"
	Idukki             District = "Idukki"
	Kannur             District = "Kannur"
	Kollam             District = "Kollam"
	Kottayam           District = "Kottayam"
	Kozhikode          District = "Kozhikode"
	Malappuram         District = "Malappuram"
	Palakkad           District = "Palakkad"
	Pathanamthitta     District = "Pathanamthitta"
	Thiruvananthapuram District = "Thiruvananthapuram"
	Thrissur           District = "Thrissur"
	Wayanad            District = "Wayanad"
)

const (
	// DefaultDistrict is used when a request omits the district or names an
	// unknown one.
	DefaultDistrict = Ernakulam

	// DefaultSoilType is reported for district names outside the enumeration.
	DefaultSoilType = "Laterite"

	// DistrictColumnPrefix prefixes every one-hot district column.
	DistrictColumnPrefix = "district_"
)

// districts lists the enumeration in feature-column order.
var districts = []District{
	Ernakulam,
	Idukki,
	Kannur,
	Kollam,
	Kottayam,
	Kozhikode,
	Malappuram,
	Palakkad,
	Pathanamthitta,
	Thiruvananthapuram,
	Thrissur,
	Wayanad,
}

var soilTypes = map[District]string{
	Ernakulam:          "Alluvial",
	Idukki:             "Forest Soil",
	Kannur:             "Coastal Alluvium",
	Kollam:             "Laterite",
	Kottayam:           "Alluvial",
	Kozhikode:          "Laterite",
	Malappuram:         "Laterite",
	Palakkad:           "Red Soil",
	Pathanamthitta:     "Forest Soil",
	Thiruvananthapuram: "Red Soil",
	Thrissur:           "Laterite",
	Wayanad:            "Red Soil",
}

// Districts returns every known district in feature-column order.
func Districts() []District {
	out := make([]District, len(districts))
	copy(out, districts)
	return out
}

// Key returns the one-hot feature column for the district, e.g. "district_idukki".
func (d District) Key() string {
	return DistrictColumnPrefix + strings.ToLower(string(d))
}

// SoilType returns the dominant soil type of the district.
func (d District) SoilType() string {
	if s, ok := soilTypes[d]; ok {
		return s
	}
	return DefaultSoilType
}

// LookupDistrict finds a district by its exact name.
func LookupDistrict(name string) (District, bool) {
	d := District(name)
	if _, ok := soilTypes[d]; !ok {
		return "", false
	}
	return d, true
}

// ResolveDistrictKey maps a district name to its feature column. Unknown names
// resolve to the default district's column.
func ResolveDistrictKey(name string) string {
	if d, ok := LookupDistrict(name); ok {
		return d.Key()
	}
	return DefaultDistrict.Key()
}

// SoilTypeFor returns the soil type for a district name, or DefaultSoilType
// when the name is unknown.
func SoilTypeFor(name string) string {
	if d, ok := LookupDistrict(name); ok {
		return d.SoilType()
	}
	return DefaultSoilType
}

// DistrictKeys returns the one-hot columns of every district in order.
func DistrictKeys() []string {
	keys := make([]string, len(districts))
	for i, d := range districts {
		keys[i] = d.Key()
	}
	return keys
}
