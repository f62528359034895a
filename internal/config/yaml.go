package config

import (
	"go.yaml.in/yaml/v3"

	"github.com/koustreak/timefs/internal/errs"
)

const redacted = "********"

// YAML renders the configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	if out.FTP.Password != "" && out.FTP.Password != "anonymous" {
		out.FTP.Password = redacted
	}
	if out.ObjectStore.SecretKey != "" {
		out.ObjectStore.SecretKey = redacted
	}
	b, err := yaml.Marshal(&out)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindIOFailure, "render config", err)
	}
	return b, nil
}
