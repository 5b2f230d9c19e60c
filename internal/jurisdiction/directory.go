package jurisdiction

import (
	"strings"

	"sentinelx/internal/model"
)

// Verified agency contact directory (2025 data), keyed by state code.
var directory = map[string][]string{
	"DL": {"addlcp.tfchq@delhipolice.gov.in"},
	"MH": {"sp.hsp.hq@mahapolice.gov.in", "cp.mumbai.jtcp.traf@mahapolice.gov.in"},
	"KA": {"bangloretrafficpolice@gmail.com"},
	"TN": {"cctnstn@tn.gov.in"},
	"UP": {"traffic_dir@uppolice.gov.in"},
	"HR": {"igp.lo@hry.nic.in", "dcp.trafficggn@hry.nic.in"},
	"KL": {"sptrafficsz.pol@kerala.gov.in"},
	"GJ": {"dig-traffic-ahd@gujarat.gov.in"},
	"WB": {"dctp@kolkatatrafficpolice.gov.in"},
	"TS": {"addlcptraffic@hyd.tspolice.gov.in"},
	"PB": {"trafficpolicepunjab@gmail.com"},
	"RJ": {"adgp.traffic@rajpolice.gov.in"},
	"GA": {"sp_traffic@goapolice.gov.in"},
}

// locationAgency maps a resolved region to its traffic-police authority.
// Haryana and Maharashtra carry locality-targeted contacts: the Gurugram
// traffic DCP and the Mumbai joint CP apply only when the resolved district
// indicates those localities, otherwise state HQ.
func locationAgency(label model.RegionLabel) (model.Agency, bool) {
	endpoints, ok := directory[label.StateCode]
	if !ok {
		return model.Agency{}, false
	}
	locality := strings.ToLower(label.District + " " + label.State)
	id := label.StateCode + "-TrafficPolice"
	switch label.StateCode {
	case "HR":
		if strings.Contains(locality, "gurugram") || strings.Contains(locality, "gurgaon") {
			id = "HR-Gurugram"
		} else {
			id = "HR-StateHQ"
			endpoints = endpoints[:1]
		}
	case "MH":
		if strings.Contains(locality, "mumbai") {
			id = "MH-Mumbai"
		} else {
			id = "MH-StateHQ"
			endpoints = endpoints[:1]
		}
	}
	return model.Agency{ID: id, StateCode: label.StateCode, Endpoints: endpoints}, true
}

// registrationAgency maps a plate state code to its registration authority.
func registrationAgency(code string) (model.Agency, bool) {
	endpoints, ok := directory[code]
	if !ok {
		return model.Agency{}, false
	}
	return model.Agency{ID: code + "-RegistrationAuthority", StateCode: code, Endpoints: endpoints}, true
}
