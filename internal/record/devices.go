package record

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// Device describes an audio input device.
type Device struct {
	Index      int     `json:"index"`
	Name       string  `json:"name"`
	Channels   int     `json:"channels"`
	SampleRate float64 `json:"sample_rate"`
	Default    bool    `json:"default"`
}

// ListInputDevices enumerates devices capable of capturing audio.
func ListInputDevices() ([]Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audio backend: %w", err)
	}
	defer portaudio.Terminate()

	infos, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate audio devices: %w", err)
	}
	def, _ := portaudio.DefaultInputDevice()

	var devices []Device
	for i, info := range infos {
		if info.MaxInputChannels <= 0 {
			continue
		}
		devices = append(devices, Device{
			Index:      i,
			Name:       info.Name,
			Channels:   info.MaxInputChannels,
			SampleRate: info.DefaultSampleRate,
			Default:    def != nil && info == def,
		})
	}
	return devices, nil
}
