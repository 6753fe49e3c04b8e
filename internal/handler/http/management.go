package http

import (
	"net/http"

	"github.com/aqdev/uauth/pkg/httputil"
	"github.com/aqdev/uauth/pkg/middleware"
)

// resourceResponse is the body returned by the role-gated demo endpoints.
type resourceResponse struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Actor    string `json:"actor,omitempty"`
}

// ResourceHandler serves a role-and-permission gated resource. The admin and
// management surfaces are the same handler parameterized by resource name;
// access policy lives entirely in the route middleware.
type ResourceHandler struct {
	resource string
}

// NewResourceHandler creates a handler for the named gated resource.
func NewResourceHandler(resource string) *ResourceHandler {
	return &ResourceHandler{resource: resource}
}

// Get handles GET on the gated resource.
func (h *ResourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "read")
}

// Post handles POST on the gated resource.
func (h *ResourceHandler) Post(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "create")
}

// Put handles PUT on the gated resource.
func (h *ResourceHandler) Put(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "update")
}

// Delete handles DELETE on the gated resource.
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, "delete")
}

func (h *ResourceHandler) respond(w http.ResponseWriter, r *http.Request, action string) {
	var actor string
	if principal := middleware.PrincipalFromContext(r.Context()); principal != nil {
		actor = principal.Email
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: resourceResponse{
		Resource: h.resource,
		Action:   action,
		Actor:    actor,
	}})
}
