package domain

// Patch is an optional field update: either Unchanged or SetTo(value).
// Setting a field to its zero value is distinct from leaving it untouched.
type Patch[T any] struct {
	value T
	set   bool
}

func Unchanged[T any]() Patch[T] {
	return Patch[T]{}
}

func SetTo[T any](value T) Patch[T] {
	return Patch[T]{value: value, set: true}
}

// PatchFromPtr maps nil to Unchanged and any other pointer to SetTo(*ptr).
func PatchFromPtr[T any](ptr *T) Patch[T] {
	if ptr == nil {
		return Unchanged[T]()
	}
	return SetTo(*ptr)
}

func (p Patch[T]) Get() (T, bool) {
	return p.value, p.set
}

func (p Patch[T]) IsSet() bool {
	return p.set
}

// Apply overwrites dst when the patch is set and reports whether it did.
func (p Patch[T]) Apply(dst *T) bool {
	if !p.set || dst == nil {
		return false
	}
	*dst = p.value
	return true
}

type AssetPatch struct {
	Name Patch[string]
	Uri  Patch[string]
}

func (p AssetPatch) IsEmpty() bool {
	return !p.Name.IsSet() && !p.Uri.IsSet()
}
