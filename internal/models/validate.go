package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("goal_type", validateGoalType); err != nil {
			panic(fmt.Sprintf("failed to register goal_type validator: %v", err))
		}
		if err := validate.RegisterValidation("log_type", validateLogType); err != nil {
			panic(fmt.Sprintf("failed to register log_type validator: %v", err))
		}
	})
	return validate
}

func validateGoalType(fl validator.FieldLevel) bool {
	return GoalType(fl.Field().String()).Valid()
}

func validateLogType(fl validator.FieldLevel) bool {
	return LogType(fl.Field().String()).Valid()
}

// Validate checks v against its struct tags and returns a readable error
// naming every failing field.
func Validate(v interface{}) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid %T: %s", v, strings.Join(msgs, "; "))
}

// ApplyDefaults fills unset optional fields (mood, weather, temperature,
// goal type) from the struct's default tags. v must be a pointer.
func ApplyDefaults(v interface{}) error {
	return defaults.Set(v)
}
