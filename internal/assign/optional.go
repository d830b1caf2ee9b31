package assign

import (
	"bytes"
	"encoding/json"
)

// Optional различает три состояния поля в PATCH-запросе:
// ключ отсутствует (Set == false), null (Set && Value == nil) и значение.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

func Null[T any]() Optional[T] { return Optional[T]{Set: true} }

// UnmarshalJSON вызывается только для присутствующих ключей.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) applyPtr(dst **T) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = nil
		return
	}
	v := *o.Value
	*dst = &v
}

func (o Optional[T]) apply(dst *T) {
	if !o.Set {
		return
	}
	var zero T
	if o.Value == nil {
		*dst = zero
		return
	}
	*dst = *o.Value
}
