package market

import "fmt"

// FailureKind classifies why a gateway call produced no data.
type FailureKind string

const (
	// KindConfig means a required credential or setting is missing.
	KindConfig FailureKind = "config"
	// KindUpstream means the provider answered with a non-success response.
	KindUpstream FailureKind = "upstream"
	// KindNetwork means the request could not complete.
	KindNetwork FailureKind = "network"
	// KindInvalid means the caller supplied an argument the provider cannot serve.
	KindInvalid FailureKind = "invalid"
)

const (
	MsgMissingAPIKey = "API key is missing. Set COINGECKO_API_KEY in the environment or a .env file."
	MsgNetwork       = "An unexpected network error occurred."
	MsgDecode        = "Failed to decode provider response."
)

// Failure is the error variant of a Result. Message is safe to show to users.
type Failure struct {
	Kind    FailureKind `json:"kind"`
	Message string      `json:"message"`
	Status  int         `json:"status,omitempty"`
}

func (f *Failure) Error() string {
	if f.Status > 0 {
		return fmt.Sprintf("market %s (status %d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("market %s: %s", f.Kind, f.Message)
}

// Result is either data or a Failure, never both.
type Result[T any] struct {
	Data    T
	Failure *Failure
}

// OK reports whether the result carries data.
func (r Result[T]) OK() bool {
	return r.Failure == nil
}

// Ok wraps data in a successful Result.
func Ok[T any](data T) Result[T] {
	return Result[T]{Data: data}
}

// Fail wraps a failure in a Result.
func Fail[T any](kind FailureKind, message string) Result[T] {
	return Result[T]{Failure: &Failure{Kind: kind, Message: message}}
}

// FailWith wraps an existing failure in a Result of another type.
func FailWith[T any](f *Failure) Result[T] {
	return Result[T]{Failure: f}
}
