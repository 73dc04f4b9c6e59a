/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package checker

import (
	"encoding/json"
	"errors"
	"fmt"
)

// 12 inches per foot, 25.4 mm per inch
const millimetersPerFoot = 12 * 25.4

const nanosecond = 1e-9

// Fix is GNSS time and position solution in engineering units
type Fix struct {
	ValidTime      bool    `json:"validTime"`
	TimeAccuracy   float64 `json:"timeAccuracy"` // seconds
	SatellitesUsed int     `json:"satellitesUsed"`
	ValidFix       bool    `json:"validFix"`
	Is3D           bool    `json:"fixIs3D"`
	Latitude       float64 `json:"latitude"`  // degrees
	Longitude      float64 `json:"longitude"` // degrees
	AltitudeFt     float64 `json:"altitudeFt"`
	AccuracyFt     float64 `json:"fixAccuracyFt"`
}

// Satellite is a satellite used in the fix
type Satellite struct {
	Type      string `json:"type"`
	ID        int    `json:"id"`
	Azimuth   int    `json:"azimuth"`
	Elevation int    `json:"elevation"`
	CNo       int    `json:"cno"`
}

// fixDocument is what 'gpsctl --query fix --json' prints
type fixDocument struct {
	Time *struct {
		Valid      bool    `json:"valid"`
		AccuracyNS float64 `json:"accuracy_ns"`
	} `json:"time"`
	SatellitesUsed int `json:"number_of_satellites_used"`
	Fix            *struct {
		Valid                bool    `json:"valid"`
		Is3D                 bool    `json:"3d"`
		LatitudeDeg          float64 `json:"latitude_deg"`
		LongitudeDeg         float64 `json:"longitude_deg"`
		HeightAboveMSLMM     float64 `json:"height_above_mean_sea_level_mm"`
		HorizontalAccuracyMM float64 `json:"horizontal_accuracy_mm"`
	} `json:"fix"`
}

// satellitesDocument is what 'gpsctl --query satellites --json' prints
type satellitesDocument struct {
	Satellites *[]struct {
		Used        bool   `json:"used"`
		GNSSID      string `json:"gnssID"`
		SatelliteID int    `json:"satelliteID"`
		CNo         int    `json:"CNo"`
		Azimuth     int    `json:"azimuth"`
		Elevation   int    `json:"elevation"`
	} `json:"satellites"`
}

// MillimetersToFeet converts millimeters to feet
func MillimetersToFeet(mm float64) float64 {
	return mm / millimetersPerFoot
}

// ParseFix normalizes fix query JSON
func ParseFix(data []byte) (*Fix, error) {
	var doc fixDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFixInvalid, err)
	}
	if doc.Time == nil {
		return nil, fmt.Errorf("%w: %w", ErrFixInvalid, errors.New("no 'time' object"))
	}
	if doc.Fix == nil {
		return nil, fmt.Errorf("%w: %w", ErrFixInvalid, errors.New("no 'fix' object"))
	}
	return &Fix{
		ValidTime:      doc.Time.Valid,
		TimeAccuracy:   nanosecond * doc.Time.AccuracyNS,
		SatellitesUsed: doc.SatellitesUsed,
		ValidFix:       doc.Fix.Valid,
		Is3D:           doc.Fix.Is3D,
		Latitude:       doc.Fix.LatitudeDeg,
		Longitude:      doc.Fix.LongitudeDeg,
		AltitudeFt:     MillimetersToFeet(doc.Fix.HeightAboveMSLMM),
		AccuracyFt:     MillimetersToFeet(doc.Fix.HorizontalAccuracyMM),
	}, nil
}

// ParseSatellites normalizes satellites query JSON, keeping only satellites used in the fix
func ParseSatellites(data []byte) ([]Satellite, error) {
	var doc satellitesDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSatellitesInvalid, err)
	}
	if doc.Satellites == nil {
		return nil, fmt.Errorf("%w: %w", ErrSatellitesInvalid, errors.New("no 'satellites' array"))
	}
	sats := []Satellite{}
	for _, s := range *doc.Satellites {
		if !s.Used {
			continue
		}
		sats = append(sats, Satellite{
			Type:      s.GNSSID,
			ID:        s.SatelliteID,
			Azimuth:   s.Azimuth,
			Elevation: s.Elevation,
			CNo:       s.CNo,
		})
	}
	return sats, nil
}
