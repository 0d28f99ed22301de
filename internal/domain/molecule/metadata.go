package molecule

// Property is one named record attribute.
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Metadata is an insertion-ordered string property bag attached to a record.
// Setting an existing name replaces its value in place; new names append.
// The zero value is ready to use.
type Metadata struct {
	names  []string
	values map[string]string
}

// NewMetadata returns a bag pre-populated with props, in order.
func NewMetadata(props ...Property) *Metadata {
	m := &Metadata{}
	for _, p := range props {
		m.Set(p.Name, p.Value)
	}
	return m
}

// Set stores value under name.
func (m *Metadata) Set(name, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[name]; !ok {
		m.names = append(m.names, name)
	}
	m.values[name] = value
}

// Get returns the value stored under name.
func (m *Metadata) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	v, ok := m.values[name]
	return v, ok
}

// Delete removes name; a missing name is a no-op.
func (m *Metadata) Delete(name string) {
	if m == nil {
		return
	}
	if _, ok := m.values[name]; !ok {
		return
	}
	delete(m.values, name)
	for i, n := range m.names {
		if n == name {
			m.names = append(m.names[:i], m.names[i+1:]...)
			break
		}
	}
}

// Len returns the number of properties.
func (m *Metadata) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Names returns property names in insertion order.
func (m *Metadata) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Properties returns the bag as an ordered slice.
func (m *Metadata) Properties() []Property {
	if m == nil {
		return nil
	}
	out := make([]Property, 0, len(m.names))
	for _, n := range m.names {
		out = append(out, Property{Name: n, Value: m.values[n]})
	}
	return out
}

// Merge copies every property of other into m, overwriting values for names
// that already exist.
func (m *Metadata) Merge(other *Metadata) {
	if other == nil {
		return
	}
	for _, n := range other.names {
		m.Set(n, other.values[n])
	}
}

// Clone returns an independent copy.  Clone of nil is an empty bag.
func (m *Metadata) Clone() *Metadata {
	c := &Metadata{}
	c.Merge(m)
	return c
}

// Equal reports whether both bags hold the same properties in the same order.
func (m *Metadata) Equal(other *Metadata) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, n := range m.Names() {
		if other.names[i] != n || other.values[n] != m.values[n] {
			return false
		}
	}
	return true
}
