package order

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/Additional-Code/serviceorders/internal/dto"
	"github.com/Additional-Code/serviceorders/internal/entity"
)

// fieldRules lists validated fields in the order their messages are reported.
var fieldRules = []struct {
	field   string
	message string
}{
	{"Reference", MsgReferenceRequired},
	{"Company", MsgCompanyRequired},
	{"Description", MsgDescriptionRequired},
	{"Status", MsgInvalidStatus},
}

// Validator checks order input against the field rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator registers the custom order rules on a fresh validator instance.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
		return entity.Status(fl.Field().String()).Valid()
	})

	return &Validator{validate: v}
}

// Validate returns one message per failing rule, ordered reference, company,
// description, status. Text fields are trimmed before checking; an empty result
// means the input is valid.
func (v *Validator) Validate(in dto.OrderInput) []string {
	err := v.validate.Struct(in.Trimmed())
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	failed := make(map[string]struct{}, len(fieldErrs))
	for _, fe := range fieldErrs {
		failed[fe.StructField()] = struct{}{}
	}

	messages := make([]string, 0, len(failed))
	for _, rule := range fieldRules {
		if _, ok := failed[rule.field]; ok {
			messages = append(messages, rule.message)
		}
	}
	return messages
}
