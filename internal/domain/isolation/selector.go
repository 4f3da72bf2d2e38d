package isolation

import (
	"strings"

	"github.com/pratik-mahalle/soar/internal/domain/incident"
)

// Indicator keys the selector reads
const (
	IndicatorSourceIP    = "source_ip"
	IndicatorUserAccount = "user_account"
	IndicatorProcess     = "process"
)

// iotMarker identifies field devices by asset name
const iotMarker = "sensor"

// Select derives the isolation strategy for an incident. Indicator rules fire
// on key presence, even when the value is empty. Every rule fires
// independently, so an asset may appear under both system and iot_device.
func Select(inc *incident.Incident) Strategy {
	s := Strategy{}

	if ip, ok := inc.Indicators.Value(IndicatorSourceIP); ok {
		s[MethodNetwork] = []string{ip}
	}

	if len(inc.AffectedAssets) > 0 {
		s[MethodSystem] = append([]string(nil), inc.AffectedAssets...)

		var devices []string
		for _, asset := range inc.AffectedAssets {
			if strings.Contains(strings.ToLower(asset), iotMarker) {
				devices = append(devices, asset)
			}
		}
		if len(devices) > 0 {
			s[MethodIoTDevice] = devices
		}
	}

	if user, ok := inc.Indicators.Value(IndicatorUserAccount); ok {
		s[MethodUser] = []string{user}
	}

	if proc, ok := inc.Indicators.Value(IndicatorProcess); ok {
		s[MethodProcess] = []string{proc}
	}

	return s
}
