package assembler

import (
	stderrors "errors"
	"fmt"

	"billing-fixtures/core/collection"
	"billing-fixtures/internal/config"
	"billing-fixtures/internal/errors"
)

// Steps names the requests of the baseline folder
type Steps struct {
	UserBefore     string
	SystemBefore   string
	Generate       string
	UserAfter      string
	VoucherDetails string
	SystemAfter    string
}

// DefaultSteps returns the step names of the stock baseline folder
func DefaultSteps() Steps {
	return StepsFromConfig(config.Default().Template)
}

// StepsFromConfig reads step names from the template configuration
func StepsFromConfig(cfg config.TemplateConfig) Steps {
	return Steps{
		UserBefore:     cfg.UserBefore,
		SystemBefore:   cfg.SystemBefore,
		Generate:       cfg.Generate,
		UserAfter:      cfg.UserAfter,
		VoucherDetails: cfg.VoucherDetails,
		SystemAfter:    cfg.SystemAfter,
	}
}

// Names lists the step names in execution order
func (s Steps) Names() []string {
	return []string{s.UserBefore, s.SystemBefore, s.Generate, s.UserAfter, s.VoucherDetails, s.SystemAfter}
}

// Validate checks that a baseline folder carries every step under a distinct
// name, and that the generation step has a request. All problems are
// reported together.
func (s Steps) Validate(template *collection.Item) error {
	if template == nil {
		return errors.TemplateShape("baseline folder")
	}

	var errs []error
	seen := make(map[string]bool, len(s.Names()))
	for _, name := range s.Names() {
		if name == "" {
			errs = append(errs, errors.New(errors.TypeConfig, "template step name is empty"))
			continue
		}
		if seen[name] {
			errs = append(errs, errors.Newf(errors.TypeConfig, "template step name %q is configured for more than one step", name).
				WithContext("step", name))
			continue
		}
		seen[name] = true
		if template.Step(name) == nil {
			errs = append(errs, errors.TemplateShape(name))
		}
	}
	if gen := template.Step(s.Generate); gen != nil && gen.Request == nil {
		errs = append(errs, errors.TemplateShape(s.Generate).WithContext("reason", "step has no request"))
	}

	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return errors.Wrap(errors.TypeTemplateShape, fmt.Sprintf("baseline folder %q is missing %d steps", template.Name, len(errs)), stderrors.Join(errs...))
}
