package capabilities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/logging"
)

// CoreHandler implements the "core" capability: small general-purpose
// operations useful for wiring flows together and for exercising the engine.
type CoreHandler struct {
	logger logging.Logger
}

// NewCoreHandler constructs a core handler for one invocation
func NewCoreHandler(logger logging.Logger) engine.Handler {
	return &CoreHandler{logger: logger}
}

// Operations returns the operations the core capability exposes
func (h *CoreHandler) Operations() map[string]engine.OperationFunc {
	return map[string]engine.OperationFunc{
		"echo":     h.echo,
		"log":      h.log,
		"sleep":    h.sleep,
		"fail":     h.fail,
		"template": h.template,
	}
}

// echo returns the resolved parameters as the step result
func (h *CoreHandler) echo(ctx context.Context, flowCtx engine.Context, params map[string]interface{}) (interface{}, error) {
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		out[k] = v
	}
	return out, nil
}

// log writes the "message" parameter to the shared logging sink
func (h *CoreHandler) log(ctx context.Context, flowCtx engine.Context, params map[string]interface{}) (interface{}, error) {
	message := fmt.Sprintf("%v", params["message"])
	h.logger.Info(message)
	return map[string]interface{}{"message": message}, nil
}

// sleep pauses for "duration_ms" milliseconds, honoring cancellation
func (h *CoreHandler) sleep(ctx context.Context, flowCtx engine.Context, params map[string]interface{}) (interface{}, error) {
	ms, err := numberParam(params, "duration_ms")
	if err != nil {
		return nil, err
	}

	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return map[string]interface{}{"slept_ms": ms}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// fail always returns an error carrying the "message" parameter
func (h *CoreHandler) fail(ctx context.Context, flowCtx engine.Context, params map[string]interface{}) (interface{}, error) {
	message, _ := params["message"].(string)
	if message == "" {
		message = "step failed"
	}
	return nil, errors.New(message)
}

// template renders "format" with fmt verbs applied to the "args" sequence
func (h *CoreHandler) template(ctx context.Context, flowCtx engine.Context, params map[string]interface{}) (interface{}, error) {
	format, ok := params["format"].(string)
	if !ok {
		return nil, errors.New("format parameter is required and must be a string")
	}

	var args []interface{}
	if raw, ok := params["args"].([]interface{}); ok {
		args = raw
	}

	return map[string]interface{}{"text": fmt.Sprintf(format, args...)}, nil
}

// numberParam reads an integer parameter that may arrive as any numeric
// type depending on how the definition was decoded
func numberParam(params map[string]interface{}, name string) (int64, error) {
	switch v := params[name].(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case nil:
		return 0, fmt.Errorf("%s parameter is required", name)
	default:
		return 0, fmt.Errorf("%s parameter must be a number, got %T", name, v)
	}
}
