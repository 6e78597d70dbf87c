package validators

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/devsergyo/sales-commissions/pkg/errors"
	"github.com/devsergyo/sales-commissions/pkg/types"
)

// MsgValidation is the top-level message of every field validation failure.
const MsgValidation = "Erro de validação"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	return v
}

// DecodeJSONBody decodes a strict JSON body and runs struct validation.
// Field errors are reported as {"field": ["message", ...]}.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		io.Copy(io.Discard, r.Body)
	}()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Corpo da requisição inválido").WithDetails(map[string]any{"error": err.Error()})
	}
	if err := validate.Struct(dest); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := types.FieldErrors{}
		for _, fieldErr := range errs {
			details.Add(fieldErr.Field(), validationMessage(fieldErr))
		}
		return pkgerrors.New(pkgerrors.CodeValidation, MsgValidation).WithDetails(map[string][]string(details))
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, MsgValidation)
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("O campo %s é obrigatório.", fe.Field())
	case "min":
		return fmt.Sprintf("O campo %s deve ter pelo menos %s caracteres.", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("O campo %s não pode ter mais de %s caracteres.", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("O campo %s deve ser um endereço de e-mail válido.", fe.Field())
	}
	return fmt.Sprintf("O campo %s é inválido.", fe.Field())
}
