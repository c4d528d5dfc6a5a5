// Package adb implements the operator.Driver capability surface on top of the
// adb command line tool. Each method is a single-shot command; connection
// caching and serialization are the session manager's job.
package adb

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/spance/android-operator/operator/definitions"
	"github.com/spance/android-operator/operator/faults"
)

const (
	defaultADBPath = "adb"
	probeTimeout   = 3 * time.Second
	listTimeout    = 5 * time.Second
)

type Driver struct {
	adbPath string
}

func NewDriver(adbPath string) *Driver {
	if adbPath == "" {
		adbPath = defaultADBPath
	}
	return &Driver{adbPath: adbPath}
}

// run executes one adb command scoped to the handle's serial and returns the
// combined output. Failures carry the output as context.
func (d *Driver) run(ctx context.Context, h *definitions.Handle, args ...string) (string, error) {
	var cmdArgs []string
	if h != nil && h.Serial != "" {
		cmdArgs = append(cmdArgs, "-s", h.Serial)
	}
	cmdArgs = append(cmdArgs, args...)

	log.Debug().Str("cmd", fmt.Sprintf("%s %s", d.adbPath, strings.Join(cmdArgs, " "))).Msg("adb")

	rawOutput, err := exec.CommandContext(ctx, d.adbPath, cmdArgs...).CombinedOutput()
	output := string(rawOutput)
	if err != nil {
		if ctx.Err() != nil {
			return output, ctx.Err()
		}
		log.Error().Err(err).Str("output", strings.TrimSpace(output)).Msg("adb command failed")
		return output, faults.Wrap(faults.DeviceOperation, err,
			fmt.Sprintf("adb %s failed: %s", args[0], strings.TrimSpace(output)))
	}
	return output, nil
}

func (d *Driver) Connect(ctx context.Context, serial string) (*definitions.Handle, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	devices, err := d.ListDevices(ctx)
	if err != nil {
		return nil, err
	}

	if serial == "" {
		for _, dev := range devices {
			if dev.Status == "device" {
				serial = dev.Serial
				break
			}
		}
		if serial == "" {
			return nil, fmt.Errorf("no device in ready state")
		}
	} else {
		found := false
		for _, dev := range devices {
			if dev.Serial == serial && dev.Status == "device" {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("device %s not connected or not authorized", serial)
		}
	}

	log.Debug().Str("serial", serial).Msg("connected to device")
	return &definitions.Handle{Serial: serial, ConnectedAt: time.Now()}, nil
}

func (d *Driver) Alive(ctx context.Context, h *definitions.Handle) bool {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	output, err := d.run(ctx, h, "shell", "echo", "ok")
	return err == nil && strings.Contains(output, "ok")
}

func (d *Driver) Disconnect(ctx context.Context, h *definitions.Handle) error {
	if h == nil {
		return nil
	}
	// Only TCP endpoints hold an adb-level connection worth releasing; USB
	// serials need nothing.
	if !strings.Contains(h.Serial, ":") {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()
	_, err := d.run(ctx, nil, "disconnect", h.Serial)
	return err
}

func (d *Driver) ListDevices(ctx context.Context) ([]definitions.DeviceInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, listTimeout)
	defer cancel()

	output, err := d.run(ctx, nil, "devices", "-l")
	if err != nil {
		return nil, err
	}

	var devices []definitions.DeviceInfo
	scanner := bufio.NewScanner(strings.NewReader(output))

	// Skip the header line
	scanner.Scan()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		info := definitions.DeviceInfo{Serial: parts[0], Status: parts[1]}
		for _, part := range parts[2:] {
			if strings.HasPrefix(part, "model:") {
				info.Model = strings.SplitN(part, ":", 2)[1]
				break
			}
		}
		devices = append(devices, info)
	}

	return devices, nil
}
