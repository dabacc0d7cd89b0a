package dataset

// Attributes is the free-form scalar attribute map of an entity.
type Attributes map[string]Value

// Get returns the value for key, Null{} when absent. Lookups are total so
// comparators never branch on presence.
func (a Attributes) Get(key string) Value {
	if v, ok := a[key]; ok && v != nil {
		return v
	}
	return Null{}
}

// Has reports whether key is present and non-null.
func (a Attributes) Has(key string) bool {
	return !IsNull(a.Get(key))
}

// String returns the canonical string form of the value for key.
func (a Attributes) String(key string) string {
	return Canon(a.Get(key))
}

// Bool returns the value for key as a boolean. Only Bool(true) is true;
// absent, null and non-bool values are false.
func (a Attributes) Bool(key string) bool {
	b, ok := a.Get(key).(Bool)
	return ok && bool(b)
}

// Ref returns the value for key as a foreign-key id string. The second
// return is false when the key is absent or null, so callers can distinguish
// "no reference" from a reference to id "".
func (a Attributes) Ref(key string) (string, bool) {
	v := a.Get(key)
	if IsNull(v) {
		return "", false
	}
	return Canon(v), true
}

// Entity is a typed record: an id plus an attribute map. Entities of a given
// table are held in a Table; id uniqueness is enforced there. Insertion order
// is irrelevant - results are explicitly sorted downstream.
type Entity struct {
	ID         string
	Attributes Attributes
}

// Attr is shorthand for e.Attributes.Get.
func (e *Entity) Attr(key string) Value {
	return e.Attributes.Get(key)
}

// Ref is shorthand for e.Attributes.Ref.
func (e *Entity) Ref(key string) (string, bool) {
	return e.Attributes.Ref(key)
}

// Draft reports the entity's draft flag.
func (e *Entity) Draft() bool {
	return e.Attributes.Bool("draft")
}

// NewEntity builds an entity from raw scalars, converting each attribute
// through ParseValue.
func NewEntity(id string, attrs map[string]any) *Entity {
	a := make(Attributes, len(attrs))
	for k, raw := range attrs {
		a[k] = ParseValue(raw)
	}
	return &Entity{ID: id, Attributes: a}
}
