package handler

import (
	"net/http"

	"menu-app-go/internal/domain/access"
	catalogdomain "menu-app-go/internal/domain/catalog"
	"menu-app-go/internal/transport/httpserver/middleware"
)

type menuBody struct {
	catalogdomain.MenuInput
	readOnlyFields
}

// MenuEndpoints serves one menu resource: its listing vocabulary and object policy.
type MenuEndpoints struct {
	h      *Handlers
	vocab  *catalogdomain.MenuVocabulary
	policy access.Policy
	op     string
}

func (h *Handlers) Menus(vocab *catalogdomain.MenuVocabulary, policy access.Policy) *MenuEndpoints {
	return &MenuEndpoints{h: h, vocab: vocab, policy: policy, op: "menus." + vocab.Name()}
}

func (e *MenuEndpoints) List(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	query, err := e.h.Queries.ParseMenuQuery(e.vocab, r.URL.Query(), caller)
	if err != nil {
		e.h.writeServiceError(w, e.op+".list", err, "query", r.URL.RawQuery)
		return
	}

	menus, err := e.h.Catalog.ListMenus(r.Context(), query)
	if err != nil {
		e.h.writeServiceError(w, e.op+".list", err)
		return
	}

	writeJSON(w, http.StatusOK, catalogdomain.ProjectMenus(menus, catalogdomain.ProjectionNested))
}

func (e *MenuEndpoints) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		e.h.writeServiceError(w, e.op+".get", catalogdomain.ErrMenuNotFound)
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	menu, err := e.h.Catalog.GetMenu(r.Context(), caller, e.policy, id)
	if err != nil {
		e.h.writeServiceError(w, e.op+".get", err, "menu_id", id)
		return
	}

	writeJSON(w, http.StatusOK, catalogdomain.ProjectMenu(*menu, catalogdomain.ProjectionNested))
}

func (e *MenuEndpoints) Create(w http.ResponseWriter, r *http.Request) {
	var body menuBody
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	input := body.MenuInput

	caller := middleware.CallerFromContext(r.Context())
	menu, err := e.h.Catalog.CreateMenu(r.Context(), caller, input)
	if err != nil {
		e.h.writeServiceError(w, e.op+".create", err, "user_id", caller.ID)
		return
	}

	writeJSON(w, http.StatusCreated, catalogdomain.ProjectMenu(*menu, catalogdomain.ProjectionIDs))
}

func (e *MenuEndpoints) Update(w http.ResponseWriter, r *http.Request) {
	e.update(w, r, false)
}

func (e *MenuEndpoints) Patch(w http.ResponseWriter, r *http.Request) {
	e.update(w, r, true)
}

func (e *MenuEndpoints) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		e.h.writeServiceError(w, e.op+".update", catalogdomain.ErrMenuNotFound)
		return
	}

	var body menuBody
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	input := body.MenuInput

	caller := middleware.CallerFromContext(r.Context())
	menu, err := e.h.Catalog.UpdateMenu(r.Context(), caller, e.policy, id, input, partial)
	if err != nil {
		e.h.writeServiceError(w, e.op+".update", err, "menu_id", id, "user_id", caller.ID)
		return
	}

	writeJSON(w, http.StatusOK, catalogdomain.ProjectMenu(*menu, catalogdomain.ProjectionIDs))
}

func (e *MenuEndpoints) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		e.h.writeServiceError(w, e.op+".delete", catalogdomain.ErrMenuNotFound)
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	if err := e.h.Catalog.DeleteMenu(r.Context(), caller, e.policy, id); err != nil {
		e.h.writeServiceError(w, e.op+".delete", err, "menu_id", id, "user_id", caller.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
