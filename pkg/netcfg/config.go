package netcfg

import (
	"encoding/json"
	"fmt"
)

// SubjectClassApps scopes configs to an application name.
const SubjectClassApps = "apps"

// Config is a typed view over a JSON config node.
type Config interface {
	Init(subject, key string, raw []byte) error
}

// Validator is implemented by configs that can reject themselves on apply.
type Validator interface {
	IsValid() bool
}

// BaseConfig keeps the subject, key and raw node; embed it and decode the
// node into typed fields with Decode.
type BaseConfig struct {
	subject string
	key     string
	raw     json.RawMessage
}

func (c *BaseConfig) Init(subject, key string, raw []byte) error {
	if !json.Valid(raw) {
		return fmt.Errorf("config %s/%s: invalid JSON", subject, key)
	}
	c.subject = subject
	c.key = key
	c.raw = append(json.RawMessage(nil), raw...)
	return nil
}

func (c *BaseConfig) Subject() string {
	return c.subject
}

func (c *BaseConfig) Key() string {
	return c.key
}

func (c *BaseConfig) Node() json.RawMessage {
	return c.raw
}

func (c *BaseConfig) Decode(v any) error {
	if err := json.Unmarshal(c.raw, v); err != nil {
		return fmt.Errorf("decode config %s/%s: %w", c.subject, c.key, err)
	}
	return nil
}

// Factory creates config instances for one config key under a subject class.
type Factory struct {
	SubjectClassKey string
	ConfigKey       string
	Create          func() Config
}
