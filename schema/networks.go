// Copyright 2025 Magnus Pierre
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package schema holds the static market vocabulary: the known
// electricity networks with their regions and native intervals, the
// fuel technology registry, and the unit definitions metric columns
// are labelled with.
package schema

import (
	"strings"
	"time"
)

// Network describes one electricity market: its dispatch interval, the
// timezone its timestamps are reported in, and its region codes.
type Network struct {
	Code     string
	Country  string
	Label    string
	Timezone string
	Interval time.Duration
	Regions  []string
}

var (
	// NEM is the National Electricity Market covering the eastern
	// states, dispatched on five-minute intervals.
	NEM = Network{
		Code:     "NEM",
		Country:  "au",
		Label:    "NEM",
		Timezone: "Australia/Brisbane",
		Interval: 5 * time.Minute,
		Regions:  []string{"NSW1", "QLD1", "SA1", "TAS1", "VIC1"},
	}

	// WEM is the Wholesale Electricity Market in Western Australia,
	// settled on thirty-minute intervals.
	WEM = Network{
		Code:     "WEM",
		Country:  "au",
		Label:    "WEM",
		Timezone: "Australia/Perth",
		Interval: 30 * time.Minute,
		Regions:  []string{"WEM"},
	}

	networks = []Network{NEM, WEM}
)

// Networks lists the known networks.
func Networks() []Network {
	out := make([]Network, len(networks))
	copy(out, networks)
	return out
}

// NetworkByCode looks a network up by its code, case-insensitively.
func NetworkByCode(code string) (Network, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, n := range networks {
		if n.Code == code {
			return n, true
		}
	}
	return Network{}, false
}

// Location resolves the network's timezone.
func (n Network) Location() (*time.Location, error) {
	return time.LoadLocation(n.Timezone)
}

// IntervalMinutes returns the dispatch interval in whole minutes.
func (n Network) IntervalMinutes() int {
	return int(n.Interval / time.Minute)
}

// HasRegion reports whether code names one of the network's regions.
func (n Network) HasRegion(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, r := range n.Regions {
		if r == code {
			return true
		}
	}
	return false
}
