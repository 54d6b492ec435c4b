package types

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

// ChatRequest is the body of POST /api/chat. The conversation is ordered
// oldest first; the last message is the one being answered.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (r *ChatRequest) Validate() map[string]string {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	errors := make(map[string]string)
	for i, m := range r.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			errors[fmt.Sprintf("Messages[%d].Role", i)] = fmt.Sprintf("unknown role %q", m.Role)
		}
	}
	if len(errors) > 0 {
		return errors
	}
	return nil
}
