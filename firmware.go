// Copyright 2026 The OpenAir Project Contributors.
// SPDX-License-Identifier: Apache-2.0
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

package mhz19

import "fmt"

// extendedMinMajorVersion is the first firmware major version that
// supports the extended command set (combined CO2+temperature reads).
const extendedMinMajorVersion = 5

// FirmwareVersion contains the sensor firmware information reported by
// the version-query command.
type FirmwareVersion struct {
	Raw   string
	Major int
	Minor int
}

// String formats the version as "major.minor", e.g. "5.02".
func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor)
}

// SupportsExtended reports whether the firmware answers the extended
// command set.
func (v FirmwareVersion) SupportsExtended() bool {
	return v.Major >= extendedMinMajorVersion
}

// parseFirmwareVersion decodes the four ASCII digits the sensor reports,
// e.g. "0502" => major 5, minor 2. Non-digit payloads yield a zero
// version, which never qualifies for the extended dialect.
func parseFirmwareVersion(data []byte) FirmwareVersion {
	if len(data) < 4 {
		return FirmwareVersion{}
	}
	raw := string(data[:4])
	for _, c := range raw {
		if c < '0' || c > '9' {
			return FirmwareVersion{Raw: raw}
		}
	}
	return FirmwareVersion{
		Raw:   raw,
		Major: int(raw[0]-'0')*10 + int(raw[1]-'0'),
		Minor: int(raw[2]-'0')*10 + int(raw[3]-'0'),
	}
}
