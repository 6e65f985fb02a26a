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

// co2mon continuously reads an MH-Z19 family CO2 sensor over a serial
// port, prints the readings and optionally publishes them to an MQTT
// broker. It also exposes the sensor's one-shot maintenance commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	mhz19 "github.com/openairproject/go-mhz19"
	"github.com/openairproject/go-mhz19/detection"
	"github.com/openairproject/go-mhz19/polling"
	"github.com/openairproject/go-mhz19/transport/uart"
)

// Package-level flag variables
var (
	flagConfigPath    string
	flagDevicePath    string
	flagInterval      time.Duration
	flagExtended      bool
	flagDebug         bool
	flagMQTTBroker    string
	flagSelfCalibrate string
	flagCalibrateZero bool
	flagRangePPM      uint
)

func init() {
	flag.StringVar(&flagConfigPath, "config", "", "Path to a TOML config file")
	flag.StringVar(&flagDevicePath, "device", "", "Serial device path (auto-detect if empty)")
	flag.DurationVar(&flagInterval, "interval", 0, "Reading interval (default 5s)")
	flag.BoolVar(&flagExtended, "extended", true, "Use the extended dialect when the firmware supports it")
	flag.BoolVar(&flagDebug, "debug", false, "Enable debug output")
	flag.StringVar(&flagMQTTBroker, "mqtt", "", "MQTT broker URL (publishing disabled if empty)")
	flag.StringVar(&flagSelfCalibrate, "self-calibrate", "", "Switch automatic baseline correction (\"on\" or \"off\") and exit")
	flag.BoolVar(&flagCalibrateZero, "calibrate-zero", false, "Calibrate the zero point (sensor must sit in 400ppm air) and exit")
	flag.UintVar(&flagRangePPM, "range", 0, "Set the detection range in ppm (2000 or 5000) and exit")
}

func parseConfig() (monitorConfig, error) {
	cfg := defaultMonitorConfig()
	if flagConfigPath != "" {
		var err error
		cfg, err = loadMonitorConfig(flagConfigPath)
		if err != nil {
			return monitorConfig{}, err
		}
	}

	// Flags override the file.
	if flagDevicePath != "" {
		cfg.DevicePath = flagDevicePath
	}
	if flagInterval > 0 {
		cfg.Interval = flagInterval
	}
	if flagMQTTBroker != "" {
		cfg.MQTT.Broker = flagMQTTBroker
	}
	if flagDebug {
		cfg.Debug = true
	}
	if !flagExtended {
		cfg.Extended = false
	}

	if cfg.Debug {
		mhz19.SetDebugEnabled(true)
	}
	return cfg, nil
}

// openTransport opens the configured serial device, auto-detecting one
// when no path is given.
func openTransport(cfg *monitorConfig) (mhz19.Transport, error) {
	path := cfg.DevicePath
	if path == "" {
		devices, err := detection.Detect()
		if err != nil {
			return nil, fmt.Errorf("failed to scan serial ports: %w", err)
		}
		if len(devices) == 0 {
			return nil, errors.New("no serial ports found; pass -device")
		}
		path = devices[0].Path
		if cfg.Debug {
			_, _ = fmt.Printf("Auto-detected serial port: %s\n", path)
		}
	}

	transport, err := uart.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	return transport, nil
}

// await drives one non-blocking operation to completion, yielding the
// scheduler between steps. The sensor handles are non-blocking by
// design; this process has nothing else to do while waiting.
func await(ctx context.Context, step func() (mhz19.PollStatus, error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		status, err := step()
		if err != nil {
			return err
		}
		if status == mhz19.PollComplete {
			return nil
		}
		time.Sleep(time.Millisecond)
	}
}

// runMaintenance executes the requested one-shot command and returns
// whether one was requested at all.
func runMaintenance(ctx context.Context, dev *mhz19.Device) (bool, error) {
	switch {
	case flagSelfCalibrate != "":
		var on bool
		switch strings.ToLower(flagSelfCalibrate) {
		case "on":
			on = true
		case "off":
			on = false
		default:
			return true, fmt.Errorf("-self-calibrate takes \"on\" or \"off\", got %q", flagSelfCalibrate)
		}
		if err := await(ctx, func() (mhz19.PollStatus, error) { return dev.SetSelfCalibrate(on) }); err != nil {
			return true, fmt.Errorf("failed to switch self-calibration: %w", err)
		}
		_, _ = fmt.Printf("Self-calibration switched %s\n", flagSelfCalibrate)
		return true, nil

	case flagCalibrateZero:
		if err := await(ctx, dev.CalibrateZero); err != nil {
			return true, fmt.Errorf("failed to calibrate zero point: %w", err)
		}
		_, _ = fmt.Println("Zero point calibrated")
		return true, nil

	case flagRangePPM != 0:
		if flagRangePPM > 0xFFFF {
			return true, fmt.Errorf("detection range %d out of range", flagRangePPM)
		}
		ppm := uint16(flagRangePPM)
		if err := await(ctx, func() (mhz19.PollStatus, error) { return dev.SetDetectionRange(ppm) }); err != nil {
			return true, fmt.Errorf("failed to set detection range: %w", err)
		}
		_, _ = fmt.Printf("Detection range set to %d ppm\n", ppm)
		return true, nil
	}
	return false, nil
}

// publisher sends readings to an MQTT broker as JSON.
type publisher struct {
	client paho.Client
	topic  string
	qos    byte
}

func newPublisher(cfg mqttConfig) (*publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10*time.Second) || token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, token.Error())
	}
	return &publisher{client: client, topic: cfg.Topic, qos: cfg.QoS}, nil
}

type readingMessage struct {
	CO2PPM       uint16 `json:"co2_ppm"`
	TemperatureC *int   `json:"temperature_c,omitempty"`
	At           string `json:"at"`
}

func (p *publisher) publish(r polling.Reading) {
	msg := readingMessage{CO2PPM: r.CO2PPM, At: r.At.UTC().Format(time.RFC3339)}
	if r.HasTemperature {
		t := r.TemperatureC
		msg.TemperatureC = &t
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to encode reading: %v\n", err)
		return
	}
	p.client.Publish(p.topic, p.qos, false, payload)
}

func (p *publisher) close() {
	p.client.Disconnect(250)
}

// newSession builds the reading loop, preferring the extended dialect
// when configured and supported by the firmware.
func newSession(ctx context.Context, dev *mhz19.Device, cfg *monitorConfig) (*polling.Session, error) {
	pollCfg := polling.DefaultConfig()
	pollCfg.Interval = cfg.Interval

	if cfg.Extended {
		var ext *mhz19.ExtendedDevice
		err := await(ctx, func() (mhz19.PollStatus, error) {
			e, status, err := dev.UpgradeToExtended()
			if status == mhz19.PollComplete {
				ext = e
			}
			return status, err
		})
		switch {
		case err == nil:
			return polling.NewExtendedSession(ext, pollCfg), nil
		case errors.Is(err, mhz19.ErrUnsupportedFirmware):
			var ufe *mhz19.UnsupportedFirmwareError
			if errors.As(err, &ufe) {
				_, _ = fmt.Printf("Firmware %s has no extended dialect, reading CO2 only\n", ufe.Version)
			}
		default:
			return nil, fmt.Errorf("failed to probe firmware version: %w", err)
		}
	}
	return polling.NewSession(dev, pollCfg), nil
}

func run(ctx context.Context, cfg *monitorConfig) error {
	transport, err := openTransport(cfg)
	if err != nil {
		return err
	}

	// The transport outlives the handle handoff on dialect upgrade, so
	// close it directly.
	defer func() {
		if err := transport.Close(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Failed to close serial port: %v\n", err)
		}
	}()

	dev, err := mhz19.New(transport)
	if err != nil {
		return err
	}

	if done, err := runMaintenance(ctx, dev); done {
		return err
	}

	session, err := newSession(ctx, dev, cfg)
	if err != nil {
		return err
	}

	var pub *publisher
	if cfg.MQTT.Broker != "" {
		pub, err = newPublisher(cfg.MQTT)
		if err != nil {
			return err
		}
		defer pub.close()
	}

	session.OnReading = func(r polling.Reading) {
		if r.HasTemperature {
			_, _ = fmt.Printf("%s  CO2 %4d ppm  %3d C\n", r.At.Format(time.TimeOnly), r.CO2PPM, r.TemperatureC)
		} else {
			_, _ = fmt.Printf("%s  CO2 %4d ppm\n", r.At.Format(time.TimeOnly), r.CO2PPM)
		}
		if pub != nil {
			pub.publish(r)
		}
	}
	session.OnError = func(err error) {
		_, _ = fmt.Fprintf(os.Stderr, "Reading failed: %v\n", err)
	}

	_, _ = fmt.Println("Monitoring CO2. Press Ctrl+C to stop...")
	err = session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

func main() {
	flag.Parse()
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	cfg, err := parseConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, &cfg); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
