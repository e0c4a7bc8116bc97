package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dmarin/portfolio-api/internal/middleware"
	apierrors "github.com/dmarin/portfolio-api/internal/pkg/errors"
	"github.com/dmarin/portfolio-api/internal/pkg/response"
	"github.com/dmarin/portfolio-api/internal/service"
)

// ContactHandler handles contact form submissions.
type ContactHandler struct {
	contactService *service.ContactService
	validate       *validator.Validate
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contactService *service.ContactService) *ContactHandler {
	return &ContactHandler{
		contactService: contactService,
		validate:       validator.New(),
	}
}

// Routes returns a chi router with the contact routes.
func (h *ContactHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Submit)
	return r
}

// Submit handles POST /contact
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var input service.ContactInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.Error(w, apierrors.ErrBadRequest)
		return
	}

	if err := h.validate.Struct(input); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			field := errs[0].Field()
			response.ValidationError(w, field, field+" is missing or invalid")
			return
		}
		response.Error(w, apierrors.ErrBadRequest)
		return
	}

	if err := h.contactService.Submit(r.Context(), input, middleware.ClientIP(r)); err != nil {
		response.Error(w, err)
		return
	}

	middleware.RecordEmailSent("contact")
	response.OK(w, map[string]any{
		"success": true,
		"message": "Message sent successfully",
	})
}
