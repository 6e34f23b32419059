package executor

import (
	"context"
	"errors"

	"opnet/internal/config"
	"opnet/internal/ctxlog"
	"opnet/internal/registry"
	"opnet/internal/store"
)

// Invoke is the execution adapter: it resolves one operator's declared inputs
// into a single argument map, calls the callable, and routes the output back
// into the shared store when asked. It runs the full resolve/invoke/save
// cycle Repeat times sequentially; the first failing repeat aborts the rest
// and fails the whole operator.
//
// Argument precedence: dedicated params are copied first, then resolved
// shared bindings overwrite on name collision. With ReinitializeInRepeats the
// bindings are re-read from the store before every repeat, so an operator
// that writes a key it also reads observes its own previous repeat's value.
func Invoke(ctx context.Context, op *config.Operator, fn registry.Callable, st store.Store) (any, error) {
	logger := ctxlog.FromContext(ctx).With("operator", op.ID)

	var resolved map[string]any
	if len(op.Bindings) > 0 && !op.ReinitializeInRepeats {
		var err error
		resolved, err = st.GetMany(op.Bindings)
		if err != nil {
			return nil, opErr(op.ID, KindCallable, 1, err)
		}
	}

	var out any
	for repeat := 1; repeat <= op.Repeat; repeat++ {
		if len(op.Bindings) > 0 && op.ReinitializeInRepeats {
			var err error
			resolved, err = st.GetMany(op.Bindings)
			if err != nil {
				return nil, opErr(op.ID, KindCallable, repeat, err)
			}
		}

		args := make(map[string]any, len(op.Params)+len(resolved))
		for k, v := range op.Params {
			args[k] = v
		}
		for k, v := range resolved {
			args[k] = v
		}

		if op.Repeat > 1 {
			logger.Debug("Invoking operator repeat.", "repeat", repeat, "of", op.Repeat)
		}

		var err error
		out, err = fn(ctx, args)
		if err != nil {
			return nil, opErr(op.ID, KindCallable, repeat, err)
		}

		// A dispatch whose context expired was already reported failed; its
		// abandoned goroutine must not publish output into the store.
		if ctxErr := ctx.Err(); ctxErr != nil {
			kind := KindCallable
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				kind = KindTimeout
			}
			return nil, opErr(op.ID, kind, repeat, ctxErr)
		}

		if op.SaveOutput {
			if err := st.Set(op.SharedOutputName, out); err != nil {
				return nil, opErr(op.ID, KindCallable, repeat, err)
			}
		}
	}
	return out, nil
}
