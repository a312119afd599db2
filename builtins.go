package main

// ArgSpec constrains one builtin argument. Range constraints are enforced
// against literal arguments only; a value computed at runtime cannot be
// checked at compile time.
type ArgSpec struct {
	Name    string
	Min     int64
	Max     int64
	Ranged  bool
	Literal bool // argument must be an integer literal
}

// Builtin is one entry of the fixed builtin catalog. The catalog is
// initialized once and read-only process-wide.
type Builtin struct {
	Name string
	Args []ArgSpec
	Expr bool // yields a value, usable inside expressions
}

func (b *Builtin) Arity() int { return len(b.Args) }

func sensorBuiltin(name string) *Builtin {
	return &Builtin{
		Name: name,
		Args: []ArgSpec{{Name: "port", Min: 1, Max: 4, Ranged: true, Literal: true}},
		Expr: true,
	}
}

// builtinCatalog maps builtin function names to their contracts.
// Motor methods live in motorMethods; `motor` itself is only a receiver.
var builtinCatalog = map[string]*Builtin{
	"touch":      sensorBuiltin("touch"),
	"light":      sensorBuiltin("light"),
	"sound":      sensorBuiltin("sound"),
	"ultrasonic": sensorBuiltin("ultrasonic"),
	"play_tone": {
		Name: "play_tone",
		Args: []ArgSpec{{Name: "frequency"}, {Name: "milliseconds"}},
	},
	"display": {
		Name: "display",
		Args: []ArgSpec{{Name: "text"}, {Name: "line", Min: 1, Max: 8, Ranged: true}},
	},
	"clear_screen": {Name: "clear_screen"},
	"wait": {
		Name: "wait",
		Args: []ArgSpec{{Name: "milliseconds"}},
	},
}

// motorMethods is the fixed method catalog for motor(PORT).method(...).
var motorMethods = map[string]*Builtin{
	"on": {
		Name: "on",
		Args: []ArgSpec{{Name: "power", Min: -100, Max: 100, Ranged: true}},
	},
	"off":   {Name: "off"},
	"coast": {Name: "coast"},
}

// motorPorts maps port letters to the firmware's output port numbers.
var motorPorts = map[string]int64{
	"A": MOTOR_A,
	"B": MOTOR_B,
	"C": MOTOR_C,
}

func isBuiltinName(name string) bool {
	if name == "motor" {
		return true
	}
	_, ok := builtinCatalog[name]
	return ok
}
