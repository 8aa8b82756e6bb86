package classify

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/meshforge/tilemesh/pkg/geom"
)

// EvalTimeout is the hard limit for one script evaluation.
const EvalTimeout = 5 * time.Second

// ScriptClassifier evaluates a caller-supplied Lisp rule to map
// features to node ids. The script reads the feature through the
// builtins (elem), (subcat), and (class), and its final value must be a
// non-negative integer node id.
//
// Each evaluation runs in a fresh sandboxed environment for
// determinism; results are memoized per feature so repeated splits over
// the same feature set pay the interpreter cost once.
type ScriptClassifier struct {
	source string

	mu   sync.Mutex
	memo map[geom.Feature]uint32
}

// NewScriptClassifier wraps a classifier script. The script is not
// parsed until the first Classify call.
func NewScriptClassifier(source string) (*ScriptClassifier, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("%w: empty classifier script", geom.ErrInvalidArgument)
	}
	return &ScriptClassifier{
		source: source,
		memo:   make(map[geom.Feature]uint32),
	}, nil
}

// Func adapts the classifier to the splitter's callback type.
func (c *ScriptClassifier) Func() Func {
	return c.Classify
}

type scriptResult struct {
	node uint32
	err  error
}

// Classify evaluates the script against f. Script errors, non-integer
// results, and out-of-range node ids wrap ErrInvalidArgument.
func (c *ScriptClassifier) Classify(f geom.Feature) (uint32, error) {
	c.mu.Lock()
	if n, ok := c.memo[f]; ok {
		c.mu.Unlock()
		return n, nil
	}
	c.mu.Unlock()

	ch := make(chan scriptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- scriptResult{err: fmt.Errorf("%w: panic in classifier script: %v", geom.ErrInvalidArgument, r)}
			}
		}()
		n, err := c.evaluate(f)
		ch <- scriptResult{node: n, err: err}
	}()

	timer := time.NewTimer(EvalTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res.err != nil {
			return 0, res.err
		}
		c.mu.Lock()
		c.memo[f] = res.node
		c.mu.Unlock()
		return res.node, nil
	case <-timer.C:
		return 0, fmt.Errorf("classifier script timed out after %s", EvalTimeout)
	}
}

// evaluate runs one script evaluation in a fresh sandbox. Sandbox mode
// keeps user code away from the filesystem and syscalls.
func (c *ScriptClassifier) evaluate(f geom.Feature) (uint32, error) {
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	env.AddFunction("elem", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(f.ElementID)}, nil
	})
	env.AddFunction("subcat", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(f.SubCategoryID)}, nil
	})
	env.AddFunction("class", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		return &zygo.SexpInt{Val: int64(f.Class)}, nil
	})

	if err := env.LoadString(c.source); err != nil {
		return 0, fmt.Errorf("%w: classifier parse error: %v", geom.ErrInvalidArgument, err)
	}
	out, err := env.Run()
	if err != nil {
		return 0, fmt.Errorf("%w: classifier runtime error: %v", geom.ErrInvalidArgument, err)
	}

	n, ok := out.(*zygo.SexpInt)
	if !ok {
		return 0, fmt.Errorf("%w: classifier returned %T, want integer node id", geom.ErrInvalidArgument, out)
	}
	if n.Val < 0 || n.Val > math.MaxUint32 {
		return 0, fmt.Errorf("%w: classifier node id %d out of range", geom.ErrInvalidArgument, n.Val)
	}
	return uint32(n.Val), nil
}
