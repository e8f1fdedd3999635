package interview

import "context"

// TransitionHook observes committed interview transitions. The default
// implementation does nothing: interview transitions deliberately do
// not drive the owning application's pipeline. Callers that want that
// coupling supply their own hook.
type TransitionHook interface {
	AfterTransition(ctx context.Context, iv *Interview, action string)
}

// NoopHook ignores every transition.
type NoopHook struct{}

// AfterTransition implements TransitionHook.
func (NoopHook) AfterTransition(context.Context, *Interview, string) {}
