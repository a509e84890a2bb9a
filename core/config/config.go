package config

import (
	_ "embed"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/josephlewis42/hooksh/core/shell"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

var (
	//go:embed default/hooksh.yaml
	defaultConfigData []byte
)

const (
	ConfigurationName = "hooksh.yaml"
)

type Configuration struct {
	configFs afero.Fs
	dir      string

	ShellName        string            `json:"shell_name" validate:"required,excludesall=/"`
	DefaultPath      string            `json:"default_path" validate:"required"`
	InheritEnv       bool              `json:"inherit_env"`
	Env              map[string]string `json:"env" validate:"dive,keys,envname,endkeys"`
	KillGracePeriod  string            `json:"kill_grace_period" validate:"required,duration"`
	Timeout          string            `json:"timeout" validate:"required,duration"`
	EventLog         string            `json:"event_log"`
	DisabledBuiltins []string          `json:"disabled_builtins" validate:"unique,dive,required"`
}

// Validate the configuration for basic semantic errors.
func (c *Configuration) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})
	if err := validate.RegisterValidation("duration", validateDuration); err != nil {
		return err
	}
	if err := validate.RegisterValidation("envname", validateEnvName); err != nil {
		return err
	}

	return validate.Struct(c)
}

// validateDuration accepts non-negative time.ParseDuration strings.
func validateDuration(fl validator.FieldLevel) bool {
	d, err := time.ParseDuration(fl.Field().String())
	return err == nil && d >= 0
}

func validateEnvName(fl validator.FieldLevel) bool {
	return shell.IsValidName(fl.Field().String())
}

func (c *Configuration) fs() afero.Fs {
	if c.configFs == nil {
		return afero.NewOsFs()
	}
	return c.configFs
}

// KillGrace is how long processes get between SIGTERM and SIGKILL.
func (c *Configuration) KillGrace() time.Duration {
	d, _ := time.ParseDuration(c.KillGracePeriod)
	return d
}

// ScriptTimeout is the longest a script may run, zero means forever.
func (c *Configuration) ScriptTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Environ builds the initial environment for scripts, hostEnv is used if the
// configuration inherits the host environment.
func (c *Configuration) Environ(hostEnv []string) []string {
	env := make(map[string]string)
	if c.InheritEnv {
		for _, kv := range hostEnv {
			if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
				env[k] = v
			}
		}
	}
	if _, ok := env["PATH"]; !ok {
		env["PATH"] = c.DefaultPath
	}
	for k, v := range c.Env {
		env[k] = v
	}

	var out []string
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

// EventLogPath returns the path of the event log, or an empty string if it's
// disabled. Relative paths are resolved against the configuration directory.
func (c *Configuration) EventLogPath() string {
	if c.EventLog == "" {
		return ""
	}
	if filepath.IsAbs(c.EventLog) || c.dir == "" {
		return c.EventLog
	}
	return filepath.Join(c.dir, c.EventLog)
}

// OpenEventLog opens the event log in an append only state.
func (c *Configuration) OpenEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
}

// ReadEventLog opens the event log for reading.
func (c *Configuration) ReadEventLog() (afero.File, error) {
	return c.fs().OpenFile(c.EventLogPath(), os.O_RDONLY, 0600)
}

// Default returns the built-in configuration, used when no configuration
// file exists.
func Default() *Configuration {
	var out Configuration
	if err := yaml.UnmarshalStrict(defaultConfigData, &out); err != nil {
		panic(err)
	}
	return &out
}
