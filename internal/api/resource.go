package api

import (
	"net/http"

	"realty/internal/auth"
	"realty/internal/models"
	"realty/internal/repo"
)

// decodeFunc разбирает тело запроса в набор полей для Store.
// creating = true для POST: обязательные поля проверяются только при создании.
type decodeFunc func(r *http.Request, creating bool) (map[string]any, error)

// resource — типовой CRUD над одной таблицей.
type resource[T any] struct {
	h      *Handler
	store  *repo.Store[T]
	public bool        // список доступен без токена
	read   auth.Policy // список (если не public) и чтение одной записи
	write  auth.Policy
	decode decodeFunc
	// stamp — проставлять created_by_user из токена при создании
	stamp bool
	// changed вызывается после каждой успешной мутации
	changed func()
}

func (res *resource[T]) List(w http.ResponseWriter, r *http.Request) {
	if !res.public {
		if _, ok := res.h.guard(w, r, res.read); !ok {
			return
		}
	}
	rows, err := res.store.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rows)
}

func (res *resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := res.h.guard(w, r, res.read); !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := res.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	models.WriteJSON(w, http.StatusOK, rec)
}

func (res *resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	who, ok := res.h.guard(w, r, res.write)
	if !ok {
		return
	}
	fields, err := res.decode(r, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if res.stamp {
		fields["created_by_user"] = who.ID
	}
	rec, err := res.store.Create(r.Context(), who.ID, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res.notify()
	models.WriteJSON(w, http.StatusCreated, rec)
}

func (res *resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	who, ok := res.h.guard(w, r, res.write)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	fields, err := res.decode(r, false)
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := res.store.Update(r.Context(), who.ID, id, fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res.notify()
	models.WriteJSON(w, http.StatusOK, rec)
}

func (res *resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	who, ok := res.h.guard(w, r, res.write)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := res.store.Delete(r.Context(), who.ID, id); err != nil {
		writeError(w, r, err)
		return
	}
	res.notify()
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"message": res.store.Table() + " record deleted",
		"id":      id,
	})
}

func (res *resource[T]) notify() {
	if res.changed != nil {
		res.changed()
	}
}
