package config

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"

	vmseederrors "github.com/vmseed/vmseed/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	semverPattern = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?(?:-[0-9A-Za-z-.]+)?(?:\+[0-9A-Za-z-.]+)?$`)
	stepIDPattern = regexp.MustCompile(`^[a-z0-9_]+$`)
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		_ = v.RegisterValidation("semver", func(fl validator.FieldLevel) bool {
			return semverPattern.MatchString(fl.Field().String())
		})

		_ = v.RegisterValidation("step_id", func(fl validator.FieldLevel) bool {
			return stepIDPattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})

	return validateInst
}

// ValidateConfig performs schema and cross-field validation on the
// provisioning document. Beyond struct tags it enforces the sequencer's
// ordering invariant: a depends_on reference must name a step that appears
// earlier in the list, so a dependency's precondition is guaranteed to have
// been handled before the dependent step runs.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return vmseederrors.NewValidationError("config", "configuration is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(cfg); err != nil {
		return convertValidationError(err)
	}

	stepIndex := make(map[string]int, len(cfg.Steps))

	for i, step := range cfg.Steps {
		if _, exists := stepIndex[step.ID]; exists {
			return vmseederrors.NewValidationError(fieldForStep(i, "id"), fmt.Sprintf("duplicate step id %q", step.ID), nil)
		}

		if err := validateStep(i, &step); err != nil {
			return err
		}

		stepIndex[step.ID] = i
	}

	for i, step := range cfg.Steps {
		for _, dep := range step.DependsOn {
			index, ok := stepIndex[dep]
			if !ok {
				return vmseederrors.NewValidationError(fieldForStep(i, "depends_on"), fmt.Sprintf("references unknown step %q", dep), nil)
			}
			if index >= i {
				return vmseederrors.NewValidationError(fieldForStep(i, "depends_on"), fmt.Sprintf("step %q must appear before %q in the sequence", dep, step.ID), nil)
			}
			if step.Enabled && !cfg.Steps[index].Enabled {
				return vmseederrors.NewValidationError(fieldForStep(i, "depends_on"), fmt.Sprintf("step %q depends on disabled step %q", step.ID, dep), nil)
			}
		}
	}

	for i, val := range cfg.Validations {
		if err := validateValidation(i, &val); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *Step) error {
	if err := validatePayload(index, step); err != nil {
		return err
	}

	if step.Fallback == nil {
		return nil
	}

	fb := step.Fallback
	if fb.Fallback != nil {
		return vmseederrors.NewValidationError(fieldForStep(index, "fallback"), "a fallback cannot declare its own fallback", nil)
	}
	if len(fb.DependsOn) > 0 {
		return vmseederrors.NewValidationError(fieldForStep(index, "fallback"), "a fallback cannot declare dependencies", nil)
	}
	if fb.ID != "" {
		return vmseederrors.NewValidationError(fieldForStep(index, "fallback"), "a fallback inherits its parent's id", nil)
	}
	return validatePayload(index, fb)
}

func validatePayload(index int, step *Step) error {
	field := fieldForStep(index, "type")
	missing := func(name string) error {
		return vmseederrors.NewValidationError(field, fmt.Sprintf("%s configuration missing for step type %q", name, step.Type), nil)
	}

	switch step.Type {
	case "package":
		if step.Package == nil || len(step.Package.Packages) == 0 {
			return missing("package")
		}
	case "installer":
		if step.Installer == nil || step.Installer.URL == "" {
			return missing("installer")
		}
		if step.Installer.CheckCommand == "" && step.Installer.CheckFile == "" {
			return vmseederrors.NewValidationError(field, "installer requires check_command or check_file", nil)
		}
	case "command":
		if step.Command == nil || step.Command.Command == "" {
			return missing("command")
		}
	case "lineinfile":
		if step.LineInFile == nil || step.LineInFile.File == "" || len(step.LineInFile.Lines) == 0 {
			return missing("lineinfile")
		}
	case "fetchfile":
		if step.FetchFile == nil || step.FetchFile.URL == "" || step.FetchFile.Destination == "" {
			return missing("fetchfile")
		}
	case "sshkey":
		if step.SSHKey == nil || step.SSHKey.Path == "" {
			return missing("sshkey")
		}
	case "repo":
		if step.Repo == nil || step.Repo.URL == "" || step.Repo.Destination == "" {
			return missing("repo")
		}
	case "usergroup":
		if step.UserGroup == nil || step.UserGroup.Group == "" {
			return missing("usergroup")
		}
	default:
		return vmseederrors.NewValidationError(field, fmt.Sprintf("unknown step type %q", step.Type), nil)
	}

	return nil
}

func validateValidation(index int, val *Validation) error {
	field := fmt.Sprintf("validations[%d]", index)

	switch val.Type {
	case "command_exists":
		if val.Command == "" {
			return vmseederrors.NewValidationError(field, "command is required", nil)
		}
	case "file_exists":
		if val.Path == "" {
			return vmseederrors.NewValidationError(field, "path is required", nil)
		}
	case "path_contains":
		if val.File == "" || val.Text == "" {
			return vmseederrors.NewValidationError(field, "file and text are required", nil)
		}
	case "user_in_group":
		if val.Group == "" {
			return vmseederrors.NewValidationError(field, "group is required", nil)
		}
	}

	return nil
}

func fieldForStep(index int, field string) string {
	return fmt.Sprintf("steps[%d].%s", index, field)
}

func convertValidationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		first := errs[0]
		return vmseederrors.NewValidationError(first.Namespace(), fmt.Sprintf("failed %q constraint", first.Tag()), err)
	}
	return vmseederrors.NewValidationError("config", err.Error(), err)
}
