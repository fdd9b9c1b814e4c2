package fostplus

import "encoding/json"

// ZipCodeMatch is one locality returned for a numeric zip code query.
type ZipCodeMatch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// StreetMatch is a street resolved within the scope of a zip code id.
type StreetMatch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Fraction is a waste category, identified by the id of its logo.
type Fraction struct {
	LogoID string `json:"logoId"`
	Color  string `json:"color"`
	Name   string `json:"name"`
}

// RecyclingPark is a drop-off facility with its own opening schedule.
// ExceptionDays and OpeningPeriods are passed through verbatim; their
// schema belongs to the remote service.
type RecyclingPark struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Latitude       *float64          `json:"latitude"`
	Longitude      *float64          `json:"longitude"`
	Location       string            `json:"location"`
	Description    string            `json:"description"`
	ExceptionDays  []json.RawMessage `json:"exceptionDays"`
	OpeningPeriods []json.RawMessage `json:"openingPeriods"`
}

// collectionTypes holds the logo ids of the recognized collection types.
// Records referencing any other logo id never appear in output.
var collectionTypes = map[string]struct{}{
	"5d610b86162c063cc0400101": {}, // residual household waste
	"5d610b86162c063cc0400102": {}, // PMD
	"5d610b86162c063cc0400103": {}, // paper and cardboard
	"5d610b86162c063cc0400104": {}, // glass
	"5d610b86162c063cc0400105": {}, // organic waste (GFT)
	"5d610b86162c063cc0400106": {}, // garden waste
	"5d610b86162c063cc0400107": {}, // bulky waste
	"5d610b86162c063cc0400108": {}, // textile
	"5d610b86162c063cc0400109": {}, // christmas trees
	"5d610b86162c063cc040010a": {}, // soft plastics
	"5d610b86162c063cc040010b": {}, // wood
	"5d610b86162c063cc040010c": {}, // metal
}

// pageEnvelope is the response wrapper of paginated list endpoints.
// Pointer fields distinguish a missing field from an empty one.
type pageEnvelope struct {
	Items *[]json.RawMessage `json:"items"`
	Pages *int               `json:"pages"`
	Total int                `json:"total"`
}

type zipCodeItem struct {
	ID    string              `json:"id"`
	Code  string              `json:"code"`
	Names []map[string]string `json:"names"`
}

type zipCodeResponse struct {
	Items []zipCodeItem `json:"items"`
}

type streetItem struct {
	ID    string            `json:"id"`
	Names map[string]string `json:"names"`
}

type streetResponse struct {
	Total int          `json:"total"`
	Items []streetItem `json:"items"`
}

type parkItem struct {
	ID             string            `json:"id"`
	DisplayName    map[string]string `json:"displayName"`
	ExceptionDays  []json.RawMessage `json:"exceptionDays"`
	OpeningPeriods []json.RawMessage `json:"openingPeriods"`
	Street         string            `json:"street"`
	HouseNumber    string            `json:"houseNumber"`
	Zipcode        string            `json:"zipcode"`
	City           string            `json:"city"`
	Location       struct {
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"location"`
	Info struct {
		Rules struct {
			Access struct {
				Description map[string]string `json:"description"`
			} `json:"access"`
			Specific map[string]string `json:"specific"`
		} `json:"rules"`
	} `json:"info"`
}

type parksResponse struct {
	Items []parkItem `json:"items"`
}

// collectionItem is one raw scheduling record from the collections endpoint.
type collectionItem struct {
	Timestamp string `json:"timestamp"`
	Exception struct {
		ReplacedBy json.RawMessage `json:"replacedBy"`
	} `json:"exception"`
	Fraction struct {
		Color string            `json:"color"`
		Name  map[string]string `json:"name"`
		Logo  *struct {
			ID string `json:"id"`
		} `json:"logo"`
	} `json:"fraction"`
}
