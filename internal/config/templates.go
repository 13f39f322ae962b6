package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case ServicePreview:
		return previewTemplate, nil
	case ServiceConfigurable:
		return configurableTemplate, nil
	case ServiceSensor:
		return sensorTemplate, nil
	case ServiceRaw:
		return rawTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const previewTemplate = `host = "127.0.0.1"
service = "preview"
wait_seconds = 5
read_seconds = 1
write_seconds = 1
`

const configurableTemplate = `host = "127.0.0.1"
service = "configurable"
channels = ["Lq", "c"]
inactive = true
wait_seconds = 5
read_seconds = 1
write_seconds = 1
`

const sensorTemplate = `host = "127.0.0.1"
service = "sensor"
wait_seconds = 5
read_seconds = 1
write_seconds = 1
`

const rawTemplate = `host = "127.0.0.1"
service = "raw"
wait_seconds = 5
read_seconds = 1
write_seconds = 1
`
