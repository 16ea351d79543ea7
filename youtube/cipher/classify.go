package cipher

import (
	"context"
	"fmt"

	"github.com/ytget/ytresolve/internal/jsengine"
	"github.com/ytget/ytresolve/internal/logger"
)

const (
	probeInput = "abcdefgh"
	probeArg   = 3
)

// probeScript calls the declaration on the probe characters and yields the
// resulting string. Helpers mutate the array in place; a returned array or
// string is used instead when present.
const probeScript = `(function(){var a=%q.split("");var r=(function(%s)%s)(a,%d);` +
	`if(Object.prototype.toString.call(r)==="[object Array]"){a=r}else if(typeof r==="string"){return r}` +
	`return a.join("")})()`

// classifyByExecution runs one helper declaration and compares what it did
// to the probe against each known transform. KindUnknown with a nil error
// means the helper ran but matched nothing; a failed run is reported as a
// JS_EXECUTION_FAILED error.
func classifyByExecution(ctx context.Context, engine jsengine.Engine, params, decl string) (Kind, error) {
	if decl == "" || params == "" {
		return KindUnknown, nil
	}
	log := logger.WithComponent(logger.ComponentEngine)

	out, err := engine.Eval(ctx, fmt.Sprintf(probeScript, probeInput, params, decl, probeArg))
	if err != nil {
		log.Debug("Probe execution failed", map[string]interface{}{"engine": engine.Name(), "error": err.Error()})
		return KindUnknown, Wrap(ErrCodeJSExecutionFailed, "helper declaration failed to run", err, engine.Name())
	}
	for _, k := range []Kind{KindSlice, KindSwap, KindReverse} {
		if (Step{Kind: k, Arg: probeArg}).Apply(probeInput) == out {
			log.Debug("Classified by execution", map[string]interface{}{"engine": engine.Name(), "kind": k.String()})
			return k, nil
		}
	}
	log.Debug("Probe output matches no transform", map[string]interface{}{"engine": engine.Name(), "output": out})
	return KindUnknown, nil
}
