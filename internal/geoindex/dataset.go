package geoindex

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"sentinelx/internal/model"
)

// BuiltinRegions returns the bundled district-centroid dataset covering the
// states present in the agency directory. Deployments with broader coverage
// replace it via geo.dataset_path.
func BuiltinRegions() []Region {
	return builtinRegions
}

var builtinRegions = []Region{
	region("New Delhi", "Delhi", "DL", 28.6139, 77.2090),
	region("Mumbai", "Maharashtra", "MH", 19.0760, 72.8777),
	region("Pune", "Maharashtra", "MH", 18.5204, 73.8567),
	region("Nagpur", "Maharashtra", "MH", 21.1458, 79.0882),
	region("Bengaluru Urban", "Karnataka", "KA", 12.9716, 77.5946),
	region("Mysuru", "Karnataka", "KA", 12.2958, 76.6394),
	region("Chennai", "Tamil Nadu", "TN", 13.0827, 80.2707),
	region("Coimbatore", "Tamil Nadu", "TN", 11.0168, 76.9558),
	region("Lucknow", "Uttar Pradesh", "UP", 26.8467, 80.9462),
	region("Ghaziabad", "Uttar Pradesh", "UP", 28.6692, 77.4538),
	region("Varanasi", "Uttar Pradesh", "UP", 25.3176, 82.9739),
	region("Gurugram", "Haryana", "HR", 28.4595, 77.0266),
	region("Faridabad", "Haryana", "HR", 28.4089, 77.3178),
	region("Ambala", "Haryana", "HR", 30.3782, 76.7767),
	region("Thiruvananthapuram", "Kerala", "KL", 8.5241, 76.9366),
	region("Ernakulam", "Kerala", "KL", 9.9312, 76.2673),
	region("Ahmedabad", "Gujarat", "GJ", 23.0225, 72.5714),
	region("Surat", "Gujarat", "GJ", 21.1702, 72.8311),
	region("Kolkata", "West Bengal", "WB", 22.5726, 88.3639),
	region("Darjeeling", "West Bengal", "WB", 26.7271, 88.3953),
	region("Hyderabad", "Telangana", "TS", 17.3850, 78.4867),
	region("Warangal", "Telangana", "TS", 17.9784, 79.5941),
	region("Ludhiana", "Punjab", "PB", 30.9010, 75.8573),
	region("Amritsar", "Punjab", "PB", 31.6340, 74.8723),
	region("Jaipur", "Rajasthan", "RJ", 26.9124, 75.7873),
	region("Jodhpur", "Rajasthan", "RJ", 26.2389, 73.0243),
	region("North Goa", "Goa", "GA", 15.4909, 73.8278),
	region("South Goa", "Goa", "GA", 15.2048, 74.1240),
}

func region(district, state, code string, lat, lon float64) Region {
	return Region{
		Label: model.RegionLabel{District: district, State: state, StateCode: code},
		Point: model.GeoPoint{Lat: lat, Lon: lon},
	}
}

// LoadCSV reads a replacement dataset with rows of
// district,state,state_code,lat,lon. A header row is skipped when detected.
func LoadCSV(path string) ([]Region, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 5
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	out := make([]Region, 0, len(rows))
	for i, row := range rows {
		lat, latErr := strconv.ParseFloat(strings.TrimSpace(row[3]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(row[4]), 64)
		if latErr != nil || lonErr != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%s: bad coordinate on row %d", path, i+1)
		}
		out = append(out, Region{
			Label: model.RegionLabel{
				District:  strings.TrimSpace(row[0]),
				State:     strings.TrimSpace(row[1]),
				StateCode: strings.ToUpper(strings.TrimSpace(row[2])),
			},
			Point: model.GeoPoint{Lat: lat, Lon: lon},
		})
	}
	return out, nil
}
