package amf

// Kind tags the eleven AMF value constructors from spec.md's data model.
// Value is modeled as a sum type over Kind rather than an interface
// hierarchy per type, following lal's own ObjectPair/amf0 value shape in
// pkg/rtmp/amf0.go, generalized to keep Objects ordered on both encode
// and decode paths.
type Kind int

const (
	KindNumber Kind = iota
	KindBoolean
	KindString
	KindNull
	KindUndefined
	KindObject
	KindEcmaArray
	KindStrictArray
	KindLongString
	KindInteger  // AMF3 only
	KindByteArray // AMF3 only
)

// Pair is one ordered property of an Object or EcmaArray.
type Pair struct {
	Name  string
	Value Value
}

// Object is an insertion-ordered property list. Property order must survive
// an encode/decode round-trip (spec.md testable property #5) so this is a
// slice, never a Go map.
type Object struct {
	Pairs []Pair
}

// Get returns the first value bound to name, in encounter order.
func (o *Object) Get(name string) (Value, bool) {
	for _, p := range o.Pairs {
		if p.Name == name {
			return p.Value, true
		}
	}
	return Value{}, false
}

// Set appends name/v, or overwrites in place if name is already present.
func (o *Object) Set(name string, v Value) {
	for i := range o.Pairs {
		if o.Pairs[i].Name == name {
			o.Pairs[i].Value = v
			return
		}
	}
	o.Pairs = append(o.Pairs, Pair{Name: name, Value: v})
}

// Value is the tagged union described by spec.md §3. Only the field(s)
// matching Kind are meaningful.
type Value struct {
	Kind Kind

	num  float64
	b    bool
	str  string
	obj  *Object
	arr  []Value
	i32  int32
	byts []byte
}

func Number(v float64) Value    { return Value{Kind: KindNumber, num: v} }
func Boolean(v bool) Value      { return Value{Kind: KindBoolean, b: v} }
func String(v string) Value     { return Value{Kind: KindString, str: v} }
func Null() Value               { return Value{Kind: KindNull} }
func Undefined() Value          { return Value{Kind: KindUndefined} }
func NewObject() Value          { return Value{Kind: KindObject, obj: &Object{}} }
func NewEcmaArray() Value       { return Value{Kind: KindEcmaArray, obj: &Object{}} }
func StrictArray(v []Value) Value { return Value{Kind: KindStrictArray, arr: v} }
func LongString(v string) Value { return Value{Kind: KindLongString, str: v} }
func Integer(v int32) Value     { return Value{Kind: KindInteger, i32: v} }
func ByteArray(v []byte) Value  { return Value{Kind: KindByteArray, byts: v} }

func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsBoolean() bool   { return v.b }
func (v Value) AsString() string  { return v.str }
func (v Value) AsObject() *Object { return v.obj }
func (v Value) AsArray() []Value  { return v.arr }
func (v Value) AsInteger() int32  { return v.i32 }
func (v Value) AsBytes() []byte   { return v.byts }

// IsObjectLike reports whether Kind carries ordered name/value pairs
// (Object and EcmaArray share representation and AMF0 wire shape apart
// from their leading count field and type marker).
func (v Value) IsObjectLike() bool {
	return v.Kind == KindObject || v.Kind == KindEcmaArray
}
