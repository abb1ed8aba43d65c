package domain

// BikeStatus is the rental state of a bike.
type BikeStatus string

const (
	BikeActive   BikeStatus = "active"
	BikeInRepair BikeStatus = "in_repair"
	BikeRetired  BikeStatus = "retired"
)

// Valid reports whether s is one of the known statuses.
func (s BikeStatus) Valid() bool {
	switch s {
	case BikeActive, BikeInRepair, BikeRetired:
		return true
	}
	return false
}

// Station is the home location of a bike.
type Station string

const (
	StationKortrijk Station = "Kortrijk"
	StationBrugge   Station = "Brugge"
	StationOostende Station = "Oostende"
)

// Stations lists every station in display order.
var Stations = []Station{StationKortrijk, StationBrugge, StationOostende}

// Valid reports whether s is one of the fixed stations.
func (s Station) Valid() bool {
	for _, st := range Stations {
		if s == st {
			return true
		}
	}
	return false
}

// Bike is a rentable bicycle. ID is assigned by the store on creation.
type Bike struct {
	ID       int64      `json:"id"`
	Status   BikeStatus `json:"status"`
	Location Station    `json:"location"`
	Note     string     `json:"note,omitempty"`
}
