package funcinvoke

import "context"

// Invoker performs a one-shot call to a named server-side procedure with a
// bearer credential. The function's backing service decides what the call
// does; this core only cares about success or failure.
type Invoker interface {
	Invoke(ctx context.Context, name string, bearerToken string) error
}
