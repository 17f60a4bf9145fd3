package logging

import (
	"fmt"
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Pipeline field helpers

func Component(name string) Field {
	return String("component", name)
}

func RunID(id fmt.Stringer) Field {
	return String("run_id", id.String())
}

// Stage names the layer transition or pipeline step, e.g. "sub_industry".
func Stage(name string) Field {
	return String("stage", name)
}

// Table names a node or edge table by its type.
func Table(t fmt.Stringer) Field {
	return String("table", t.String())
}

func Nodes(n int) Field {
	return Int("nodes", n)
}

func Edges(n int) Field {
	return Int("edges", n)
}

// IDRange records the first and last id of a freshly allocated table.
func IDRange(first, last int64) Field {
	return Field{Key: "id_range", Value: [2]int64{first, last}}
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
