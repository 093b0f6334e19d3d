package domain

import (
	"github.com/go-playground/validator/v10"
)

const (
	msgEmpty     = "no puede ser vacio"
	msgNull      = "no puede estar vacio"
	msgNameSize  = "el tamaño tiene que estar entre 3 y 15 caracteres"
	msgBadEmail  = "no es una direccion de correo bien formada"
	nameSizeRule = "min=3,max=15"
)

var validate = validator.New()

type stringRule struct {
	tag       string
	message   string
	skipEmpty bool
}

// ValidateCustomer checks c field by field and returns a *ValidationError
// listing every violated rule, or nil when c is valid.
func ValidateCustomer(c *Customer) error {
	var errs []FieldError

	checkString := func(field, value string, rules ...stringRule) {
		for _, r := range rules {
			if r.skipEmpty && value == "" {
				continue
			}
			if err := validate.Var(value, r.tag); err != nil {
				errs = append(errs, FieldError{Field: field, Message: r.message})
			}
		}
	}

	checkString("nombre", c.FirstName,
		stringRule{tag: "required", message: msgEmpty},
		stringRule{tag: nameSizeRule, message: msgNameSize},
	)
	checkString("apellido", c.LastName,
		stringRule{tag: "required", message: msgEmpty},
	)
	checkString("email", c.Email,
		stringRule{tag: "required", message: msgEmpty},
		stringRule{tag: "email", message: msgBadEmail, skipEmpty: true},
	)
	if c.CreatedAt.IsZero() {
		errs = append(errs, FieldError{Field: "createAt", Message: msgNull})
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
