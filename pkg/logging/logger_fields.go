package logging

import (
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

// Field helpers for the client's recurring log dimensions
func BatchID(id string) Field {
	return String("batch_id", id)
}

func JobID(id int) Field {
	return Int("job_id", id)
}

func Statement(s string) Field {
	return String("statement", s)
}

func ChunkSize(n int) Field {
	return Int("chunk_size", n)
}

func Status(code int) Field {
	return Int("status", code)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
