package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"menu-app-go/internal/domain/access"
	catalogdomain "menu-app-go/internal/domain/catalog"
	"menu-app-go/internal/transport/httpserver/middleware"
)

const (
	msgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."
	msgNoImage      = "No file was submitted."
	imageFormField  = "image"
	multipartMemory = 4 << 20
)

type dishBody struct {
	catalogdomain.DishInput
	readOnlyFields
	Image json.RawMessage `json:"image"`
	Menus json.RawMessage `json:"menus"`
}

// DishEndpoints serves one dish resource under the given object policy.
type DishEndpoints struct {
	h      *Handlers
	policy access.Policy
	op     string
}

func (h *Handlers) Dishes(name string, policy access.Policy) *DishEndpoints {
	return &DishEndpoints{h: h, policy: policy, op: "dishes." + name}
}

func (e *DishEndpoints) List(w http.ResponseWriter, r *http.Request) {
	query, err := e.h.Queries.ParseDishQuery(r.URL.Query())
	if err != nil {
		e.h.writeServiceError(w, e.op+".list", err, "query", r.URL.RawQuery)
		return
	}

	dishes, err := e.h.Catalog.ListDishes(r.Context(), query)
	if err != nil {
		e.h.writeServiceError(w, e.op+".list", err)
		return
	}

	writeJSON(w, http.StatusOK, catalogdomain.ProjectDishes(dishes))
}

func (e *DishEndpoints) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		e.h.writeServiceError(w, e.op+".get", catalogdomain.ErrDishNotFound)
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	dish, err := e.h.Catalog.GetDish(r.Context(), caller, e.policy, id)
	if err != nil {
		e.h.writeServiceError(w, e.op+".get", err, "dish_id", id)
		return
	}

	writeJSON(w, http.StatusOK, catalogdomain.ProjectDish(*dish))
}

func (e *DishEndpoints) Create(w http.ResponseWriter, r *http.Request) {
	var body dishBody
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	input := body.DishInput

	caller := middleware.CallerFromContext(r.Context())
	dish, err := e.h.Catalog.CreateDish(r.Context(), caller, input)
	if err != nil {
		e.h.writeServiceError(w, e.op+".create", err, "user_id", caller.ID)
		return
	}

	writeJSON(w, http.StatusCreated, catalogdomain.ProjectDish(*dish))
}

func (e *DishEndpoints) Update(w http.ResponseWriter, r *http.Request) {
	e.update(w, r, false)
}

func (e *DishEndpoints) Patch(w http.ResponseWriter, r *http.Request) {
	e.update(w, r, true)
}

func (e *DishEndpoints) update(w http.ResponseWriter, r *http.Request, partial bool) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		e.h.writeServiceError(w, e.op+".update", catalogdomain.ErrDishNotFound)
		return
	}

	var body dishBody
	if err := decodeJSON(r, &body); err != nil {
		writeDecodeError(w, err)
		return
	}
	input := body.DishInput

	caller := middleware.CallerFromContext(r.Context())
	dish, err := e.h.Catalog.UpdateDish(r.Context(), caller, e.policy, id, input, partial)
	if err != nil {
		e.h.writeServiceError(w, e.op+".update", err, "dish_id", id, "user_id", caller.ID)
		return
	}

	writeJSON(w, http.StatusOK, catalogdomain.ProjectDish(*dish))
}

func (e *DishEndpoints) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		e.h.writeServiceError(w, e.op+".delete", catalogdomain.ErrDishNotFound)
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	if err := e.h.Catalog.DeleteDish(r.Context(), caller, e.policy, id); err != nil {
		e.h.writeServiceError(w, e.op+".delete", err, "dish_id", id, "user_id", caller.ID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadImage replaces the dish photo. The body is either multipart with an
// "image" part or the raw image bytes.
func (e *DishEndpoints) UploadImage(w http.ResponseWriter, r *http.Request) {
	op := e.op + ".upload_image"
	id, err := parseIDParam(r, "id")
	if err != nil {
		e.h.writeServiceError(w, op, catalogdomain.ErrDishNotFound)
		return
	}

	caller := middleware.CallerFromContext(r.Context())
	current, err := e.h.Catalog.AuthorizeDishImage(r.Context(), caller, id)
	if err != nil {
		e.h.writeServiceError(w, op, err, "dish_id", id, "user_id", caller.ID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, e.h.maxUploadBytes)
	data, err := readImage(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			e.h.log.BusinessError(op+": upload too large", err, "dish_id", id, "limit", tooLarge.Limit)
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "image is too large")
			return
		}
		e.h.log.BusinessError(op+": read upload failed", err, "dish_id", id)
		writeValidationError(w, catalogdomain.FieldError(imageFormField, msgNoImage))
		return
	}
	if len(data) == 0 {
		writeValidationError(w, catalogdomain.FieldError(imageFormField, msgNoImage))
		return
	}

	url, err := e.h.Photos.SaveDishPhoto(r.Context(), id, data)
	if err != nil {
		e.h.writeServiceError(w, op, err, "dish_id", id)
		return
	}

	dish, err := e.h.Catalog.SetDishImage(r.Context(), id, url)
	if err != nil {
		if derr := e.h.Photos.DeleteDishPhoto(r.Context(), url); derr != nil {
			e.h.log.Warn(op+": remove unused photo failed", "dish_id", id, "url", url, "error", derr)
		}
		e.h.writeServiceError(w, op, err, "dish_id", id)
		return
	}
	if current.Image != "" && current.Image != url {
		if err := e.h.Photos.DeleteDishPhoto(r.Context(), current.Image); err != nil {
			e.h.log.Warn(op+": remove previous photo failed", "dish_id", id, "url", current.Image, "error", err)
		}
	}

	e.h.log.Info("dish image stored", "dish_id", id, "url", url)
	writeJSON(w, http.StatusOK, catalogdomain.ProjectDish(*dish))
}

func readImage(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return io.ReadAll(r.Body)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile(imageFormField)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
