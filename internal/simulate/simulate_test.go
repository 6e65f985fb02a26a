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

package simulate

import (
	"testing"

	mhz19 "github.com/openairproject/go-mhz19"
	"github.com/stretchr/testify/require"
)

const maxPolls = 1024

func driveCO2(t *testing.T, device *mhz19.Device) (uint16, error) {
	t.Helper()
	for i := 0; i < maxPolls; i++ {
		co2, status, err := device.ReadCO2PPM()
		if err != nil {
			return 0, err
		}
		if status == mhz19.PollComplete {
			return co2, nil
		}
	}
	t.Fatal("ReadCO2PPM did not terminate")
	return 0, nil
}

func TestEndToEndCO2Read(t *testing.T) {
	t.Parallel()
	sensor := NewSensor(WithCO2(1250))
	device, err := mhz19.New(sensor)
	require.NoError(t, err)

	co2, err := driveCO2(t, device)
	require.NoError(t, err)
	require.Equal(t, uint16(1250), co2)

	// Consecutive reads see updated concentrations.
	sensor.SetCO2(800)
	co2, err = driveCO2(t, device)
	require.NoError(t, err)
	require.Equal(t, uint16(800), co2)
}

func TestEndToEndSlowLink(t *testing.T) {
	t.Parallel()
	sensor := NewSensor(WithCO2(640), WithReadGap(4))
	device, err := mhz19.New(sensor)
	require.NoError(t, err)

	co2, err := driveCO2(t, device)
	require.NoError(t, err)
	require.Equal(t, uint16(640), co2)
}

func TestEndToEndUpgradeAndCombinedRead(t *testing.T) {
	t.Parallel()
	sensor := NewSensor(WithCO2(572), WithTemperature(-7), WithFirmware("0502"))
	device, err := mhz19.New(sensor)
	require.NoError(t, err)

	var ext *mhz19.ExtendedDevice
	for ext == nil {
		var status mhz19.PollStatus
		ext, status, err = device.UpgradeToExtended()
		require.NoError(t, err)
		if status == mhz19.PollComplete {
			break
		}
	}
	require.NotNil(t, ext)

	var co2 uint16
	var temperature int
	var status mhz19.PollStatus
	for status != mhz19.PollComplete {
		co2, temperature, status, err = ext.ReadCO2AndTemperature()
		require.NoError(t, err)
	}
	require.Equal(t, uint16(572), co2)
	require.Equal(t, -7, temperature)
}

func TestEndToEndOldFirmwareRefusesUpgrade(t *testing.T) {
	t.Parallel()
	sensor := NewSensor(WithFirmware("0443"))
	device, err := mhz19.New(sensor)
	require.NoError(t, err)

	for {
		ext, status, upgradeErr := device.UpgradeToExtended()
		if upgradeErr != nil {
			require.ErrorIs(t, upgradeErr, mhz19.ErrUnsupportedFirmware)
			require.Nil(t, ext)
			break
		}
		require.NotEqual(t, mhz19.PollComplete, status)
	}

	// The base handle survives the refused upgrade.
	co2, err := driveCO2(t, device)
	require.NoError(t, err)
	require.Equal(t, uint16(400), co2)
}

func TestEndToEndCorruptChecksumSurfacesOnce(t *testing.T) {
	t.Parallel()
	sensor := NewSensor(WithCO2(999))
	device, err := mhz19.New(sensor)
	require.NoError(t, err)

	sensor.CorruptNextChecksum()
	_, err = driveCO2(t, device)
	require.ErrorIs(t, err, mhz19.ErrChecksumMismatch)

	// Not retried automatically; an explicit new exchange succeeds.
	co2, err := driveCO2(t, device)
	require.NoError(t, err)
	require.Equal(t, uint16(999), co2)
}

func TestEndToEndWriteCommands(t *testing.T) {
	t.Parallel()
	sensor := NewSensor()
	device, err := mhz19.New(sensor)
	require.NoError(t, err)

	for {
		status, calErr := device.SetSelfCalibrate(true)
		require.NoError(t, calErr)
		if status == mhz19.PollComplete {
			break
		}
	}
	require.True(t, sensor.SelfCalibrate())

	for {
		status, rangeErr := device.SetDetectionRange(2000)
		require.NoError(t, rangeErr)
		if status == mhz19.PollComplete {
			break
		}
	}
	require.Equal(t, uint16(2000), sensor.DetectionRange())
}
