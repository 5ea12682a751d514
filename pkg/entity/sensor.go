package entity

import "sync"

// observable is the shared state/subscriber core of all sensors.
type observable[T comparable] struct {
	name string

	mu       sync.Mutex
	state    T
	hasState bool
	subs     []func(T)
}

func (o *observable[T]) publish(v T) {
	o.mu.Lock()
	o.state = v
	o.hasState = true
	subs := make([]func(T), len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

func (o *observable[T]) get() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state, o.hasState
}

func (o *observable[T]) subscribe(fn func(T)) {
	o.mu.Lock()
	o.subs = append(o.subs, fn)
	o.mu.Unlock()
}

// Sensor is a numeric observable.
type Sensor struct {
	observable[float64]
}

// NewSensor creates a sensor with no state.
func NewSensor(name string) *Sensor {
	return &Sensor{observable[float64]{name: name}}
}

// Name returns the sensor name.
func (s *Sensor) Name() string { return s.name }

// Publish stores v and notifies subscribers.
func (s *Sensor) Publish(v float64) { s.publish(v) }

// State returns the last published value, or 0.
func (s *Sensor) State() float64 {
	v, _ := s.get()
	return v
}

// HasState reports whether a value was ever published.
func (s *Sensor) HasState() bool {
	_, ok := s.get()
	return ok
}

// Value returns the last published value and whether there was one.
func (s *Sensor) Value() (float64, bool) { return s.get() }

// Subscribe registers fn for every published value.
func (s *Sensor) Subscribe(fn func(float64)) { s.subscribe(fn) }

// TextSensor is a string observable.
type TextSensor struct {
	observable[string]
}

// NewTextSensor creates a text sensor with no state.
func NewTextSensor(name string) *TextSensor {
	return &TextSensor{observable[string]{name: name}}
}

// Name returns the sensor name.
func (s *TextSensor) Name() string { return s.name }

// Publish stores v and notifies subscribers.
func (s *TextSensor) Publish(v string) { s.publish(v) }

// State returns the last published value, or "".
func (s *TextSensor) State() string {
	v, _ := s.get()
	return v
}

// HasState reports whether a value was ever published.
func (s *TextSensor) HasState() bool {
	_, ok := s.get()
	return ok
}

// Subscribe registers fn for every published value.
func (s *TextSensor) Subscribe(fn func(string)) { s.subscribe(fn) }

// BinarySensor is a boolean observable.
type BinarySensor struct {
	observable[bool]
}

// NewBinarySensor creates a binary sensor with no state.
func NewBinarySensor(name string) *BinarySensor {
	return &BinarySensor{observable[bool]{name: name}}
}

// Name returns the sensor name.
func (s *BinarySensor) Name() string { return s.name }

// Publish stores v and notifies subscribers.
func (s *BinarySensor) Publish(v bool) { s.publish(v) }

// State returns the last published value, or false.
func (s *BinarySensor) State() bool {
	v, _ := s.get()
	return v
}

// HasState reports whether a value was ever published.
func (s *BinarySensor) HasState() bool {
	_, ok := s.get()
	return ok
}

// Subscribe registers fn for every published value.
func (s *BinarySensor) Subscribe(fn func(bool)) { s.subscribe(fn) }
