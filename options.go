package commsdsl

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	dslerrors "github.com/jacoelho/commsdsl/errors"
	"github.com/jacoelho/commsdsl/internal/logging"
)

// LogFunc receives every diagnostic that passes the severity filter. The
// message starts with its "document:line:" provenance.
type LogFunc func(severity dslerrors.Severity, msg string)

type severityOption struct {
	value dslerrors.Severity
	set   bool
}

func (o severityOption) resolved() dslerrors.Severity {
	if !o.set {
		return dslerrors.Info
	}
	return o.value
}

// Options configures a Builder. The zero value logs info and above through
// the standard logrus logger.
type Options struct {
	minSeverity            severityOption
	warnAsError            bool
	multipleSchemasEnabled bool
	logFunc                LogFunc
	logger                 *logrus.Logger
}

// NewOptions returns a default, valid options value.
func NewOptions() Options {
	return Options{}
}

// WithMinSeverity drops diagnostics below value before they reach the log.
// Errors are recorded regardless.
func (o Options) WithMinSeverity(value dslerrors.Severity) Options {
	o.minSeverity = severityOption{value: value, set: true}
	return o
}

// WithWarnAsError promotes every warning to an error.
func (o Options) WithWarnAsError(value bool) Options {
	o.warnAsError = value
	return o
}

// WithMultipleSchemasEnabled admits documents defining more than one schema.
func (o Options) WithMultipleSchemasEnabled(value bool) Options {
	o.multipleSchemasEnabled = value
	return o
}

// WithLogFunc routes diagnostics to fn instead of logrus.
func (o Options) WithLogFunc(fn LogFunc) Options {
	o.logFunc = fn
	return o
}

// WithLogger routes diagnostics to a specific logrus logger.
func (o Options) WithLogger(log *logrus.Logger) Options {
	o.logger = log
	return o
}

// MinSeverity returns the effective severity filter.
func (o Options) MinSeverity() dslerrors.Severity { return o.minSeverity.resolved() }

// WarnAsError reports whether warnings are promoted.
func (o Options) WarnAsError() bool { return o.warnAsError }

// MultipleSchemasEnabled reports whether several schemas are admitted.
func (o Options) MultipleSchemasEnabled() bool { return o.multipleSchemasEnabled }

// Validate validates option values.
func (o Options) Validate() error {
	if s := o.minSeverity; s.set && s.value > dslerrors.Error {
		return fmt.Errorf("min severity %s out of range", s.value)
	}
	return nil
}

func (o Options) reporter() *logging.Reporter {
	sink := logging.Sink(o.logFunc)
	if o.logFunc == nil {
		log := o.logger
		if log == nil {
			log = logrus.StandardLogger()
		}
		sink = logging.LogrusSink(log)
	}
	return logging.NewReporter(logging.Config{
		Sink:        sink,
		MinSeverity: o.minSeverity.resolved(),
		WarnAsError: o.warnAsError,
	})
}

type optionsFile struct {
	MinSeverity            *string `yaml:"min_severity"`
	WarnAsError            *bool   `yaml:"warn_as_error"`
	MultipleSchemasEnabled *bool   `yaml:"multiple_schemas_enabled"`
}

// ParseOptionsYAML decodes options from YAML. Keys absent from data keep
// their default. Recognized keys are min_severity, warn_as_error and
// multiple_schemas_enabled.
func ParseOptionsYAML(data []byte) (Options, error) {
	return NewOptions().MergeYAML(data)
}

// MergeYAML overlays the keys present in data onto o.
func (o Options) MergeYAML(data []byte) (Options, error) {
	var f optionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return o, fmt.Errorf("parse options: %w", err)
	}
	if f.MinSeverity != nil {
		s, err := dslerrors.ParseSeverity(*f.MinSeverity)
		if err != nil {
			return o, fmt.Errorf("parse options: min_severity: %w", err)
		}
		o = o.WithMinSeverity(s)
	}
	if f.WarnAsError != nil {
		o = o.WithWarnAsError(*f.WarnAsError)
	}
	if f.MultipleSchemasEnabled != nil {
		o = o.WithMultipleSchemasEnabled(*f.MultipleSchemasEnabled)
	}
	return o, nil
}
